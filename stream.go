package npng

import (
	"fmt"
	"io"
)

// EncodeTo encodes the pixel set and writes the resulting file to w.
func EncodeTo(w io.Writer, pixels []Pixel, meta Metadata, cfg Config) error {
	data, err := Encode(pixels, meta, cfg)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("npng: write: %w", err)
	}
	return nil
}

// DecodeFrom drains r and decodes the result. The format requires the full
// file before pixel decoding starts, so this buffers everything r yields.
func DecodeFrom(r io.Reader) (*Img, error) {
	return DecodeFromWithOptions(r, DecodeOptions{})
}

// DecodeFromWithOptions is DecodeFrom with explicit options.
func DecodeFromWithOptions(r io.Reader, opts DecodeOptions) (*Img, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("npng: read: %w", err)
	}
	return DecodeWithOptions(data, opts)
}
