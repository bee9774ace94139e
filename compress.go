package npng

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Encoding selects the compression applied to the serialized pixel payload.
type Encoding uint8

const (
	// Plain stores the pixel payload uncompressed.
	Plain Encoding = iota
	// Zlib compresses the pixel payload with zlib at the default level.
	Zlib
	// Zstd compresses the pixel payload with zstd at the default level.
	// This is the default encoding.
	Zstd
)

// String returns the token stored in the header's encoding_format field.
func (e Encoding) String() string {
	switch e {
	case Plain:
		return "plain"
	case Zlib:
		return "zlib"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// ParseEncoding maps a header token back to its Encoding.
func ParseEncoding(tag string) (Encoding, error) {
	switch tag {
	case "plain":
		return Plain, nil
	case "zlib":
		return Zlib, nil
	case "zstd":
		return Zstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, tag)
	}
}

// compress transforms the raw pixel payload per the selected encoding.
// Decompression does not depend on the level used here, so the level is
// not a format parameter and is pinned to each backend's default.
func compress(e Encoding, raw []byte) ([]byte, error) {
	switch e {
	case Plain:
		return raw, nil
	case Zlib:
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			zw.Close()
			return nil, fmt.Errorf("npng: zlib compress: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("npng: zlib compress: %w", err)
		}
		return buf.Bytes(), nil
	case Zstd:
		zw, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("npng: zstd compress: %w", err)
		}
		out := zw.EncodeAll(raw, nil)
		zw.Close()
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, e)
	}
}

// decompress reverses compress. It runs only after the trailer checksum has
// been verified, so a backend failure here means the payload itself is bad.
func decompress(e Encoding, payload []byte) ([]byte, error) {
	switch e {
	case Plain:
		return payload, nil
	case Zlib:
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("%w: zlib: %v", ErrPayloadCorrupt, err)
		}
		raw, err := io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: zlib: %v", ErrPayloadCorrupt, err)
		}
		return raw, nil
	case Zstd:
		zr, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderLowmem(true))
		if err != nil {
			return nil, fmt.Errorf("npng: zstd decompress: %w", err)
		}
		raw, err := zr.DecodeAll(payload, nil)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrPayloadCorrupt, err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, e)
	}
}
