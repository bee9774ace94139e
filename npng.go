// Package npng implements the NPNG container format: a raster image codec
// that stores pixels sparsely by coordinate, with optional per-pixel alpha
// and a pluggable compression layer over the pixel stream.
//
// A file is a fixed-layout header (signature, version, flags, metadata),
// followed by the possibly-compressed pixel payload, followed by a CRC-32
// trailer. Encode and Decode are pure transforms over in-memory buffers;
// the package holds no state between calls and is safe for concurrent use.
package npng

import (
	"bytes"
	"fmt"
	"sort"
)

// Config selects the format variant written by Encode.
type Config struct {
	// Alpha stores a 4-byte RGBA color per pixel and elides fully
	// transparent pixels. When false, colors are 3-byte RGB and every
	// pixel decodes as fully opaque.
	Alpha bool
	// Varint stores coordinates as LEB128 varints instead of fixed
	// 2-byte values. Not recommended; see varint.go.
	Varint bool
	// Encoding is the compression applied to the pixel payload.
	Encoding Encoding
}

// DefaultConfig matches the reference encoder: alpha on, fixed-width
// coordinates, zstd compression.
func DefaultConfig() Config {
	return Config{Alpha: true, Varint: false, Encoding: Zstd}
}

// Img is a decoded image: the sparse pixel set, its metadata, and the
// version of the encoder that produced the file.
type Img struct {
	Pixels  []Pixel
	Meta    Metadata
	Version EncoderVersion
}

// DecodeOptions tweaks Decode behavior. The zero value is the normal,
// strict mode.
type DecodeOptions struct {
	// IgnoreChecksum skips CRC verification. Only useful for salvaging
	// known-damaged files; decoding may then fail later with less
	// specific errors.
	IgnoreChecksum bool
	// FitCanvas recomputes Meta.Width/Height from the decoded pixel set
	// instead of trusting the header's declared bounds.
	FitCanvas bool
}

// normalize resolves duplicate coordinates (last write wins) and orders
// the set row-major, y then x, so that encoding is deterministic.
func normalize(pixels []Pixel) []Pixel {
	type coord struct{ x, y uint16 }
	seen := make(map[coord]int, len(pixels))
	out := make([]Pixel, 0, len(pixels))
	for _, p := range pixels {
		if i, ok := seen[coord{p.X, p.Y}]; ok {
			out[i] = p
			continue
		}
		seen[coord{p.X, p.Y}] = len(out)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// fitCanvas returns the smallest canvas containing every pixel.
func fitCanvas(pixels []Pixel) (w, h uint16) {
	for _, p := range pixels {
		if p.X >= w {
			w = p.X + 1
		}
		if p.Y >= h {
			h = p.Y + 1
		}
	}
	return w, h
}

// Encode serializes the sparse pixel set into NPNG bytes.
//
// Duplicate coordinates are resolved last-write-wins before anything is
// serialized. When meta.Width and meta.Height are both zero the canvas is
// fitted to the pixel set; otherwise every coordinate must lie inside the
// declared canvas.
func Encode(pixels []Pixel, meta Metadata, cfg Config) ([]byte, error) {
	pixels = normalize(pixels)

	if meta.Width == 0 && meta.Height == 0 {
		meta.Width, meta.Height = fitCanvas(pixels)
	} else {
		for _, p := range pixels {
			if p.X >= meta.Width || p.Y >= meta.Height {
				return nil, fmt.Errorf("%w: (%d, %d) on a %dx%d canvas", ErrCoordinateOutOfBounds, p.X, p.Y, meta.Width, meta.Height)
			}
		}
	}

	h := header{
		version:  EncoderVersion{Major: VersionMajor, Minor: VersionMinor},
		alpha:    cfg.Alpha,
		varint:   cfg.Varint,
		encoding: cfg.Encoding,
		meta:     meta,
	}
	var buf bytes.Buffer
	if err := writeHeader(&buf, h); err != nil {
		return nil, err
	}

	payload, err := compress(cfg.Encoding, encodePixels(pixels, cfg.Alpha, cfg.Varint))
	if err != nil {
		return nil, err
	}
	buf.Write(payload)
	writeChecksum(&buf, checksum(payload))
	return buf.Bytes(), nil
}

// Decode parses NPNG bytes back into an image. The whole file must be in
// memory; there is no partial decode. Any structural violation aborts with
// the error of the stage that detected it: header validity is checked
// first, then the trailer checksum, then decompression, then the pixel
// records themselves.
func Decode(data []byte) (*Img, error) {
	return DecodeWithOptions(data, DecodeOptions{})
}

// DecodeWithOptions is Decode with explicit options.
func DecodeWithOptions(data []byte, opts DecodeOptions) (*Img, error) {
	h, headerLen, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data)-headerLen < checksumLen {
		return nil, fmt.Errorf("%w: no checksum trailer", ErrTruncatedHeader)
	}
	payload := data[headerLen : len(data)-checksumLen]

	crc, err := readChecksum(data[len(data)-checksumLen:])
	if err != nil {
		return nil, err
	}
	if !opts.IgnoreChecksum && !verifyChecksum(payload, crc) {
		return nil, fmt.Errorf("%w: stored %08X, computed %08X", ErrChecksumMismatch, crc, checksum(payload))
	}

	raw, err := decompress(h.encoding, payload)
	if err != nil {
		return nil, err
	}
	pixels, err := decodePixels(raw, h.meta.Width, h.meta.Height, h.alpha, h.varint)
	if err != nil {
		return nil, err
	}

	img := &Img{Pixels: pixels, Meta: h.meta, Version: h.version}
	if opts.FitCanvas {
		img.Meta.Width, img.Meta.Height = fitCanvas(pixels)
	}
	return img, nil
}
