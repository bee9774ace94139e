package npng

import (
	"encoding/binary"
	"fmt"
)

// Pixel is one stored pixel: canvas coordinates plus a packed 32-bit RGBA
// color (R in the top byte, A in the bottom byte). The alpha byte is only
// meaningful for files whose header has the alpha flag set.
type Pixel struct {
	X, Y  uint16
	Color uint32
}

// NewPixel packs the given channels into a Pixel.
func NewPixel(x, y uint16, r, g, b, a uint8) Pixel {
	return Pixel{
		X:     x,
		Y:     y,
		Color: uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a),
	}
}

// RGBA unpacks the color channels.
func (p Pixel) RGBA() (r, g, b, a uint8) {
	return uint8(p.Color >> 24), uint8(p.Color >> 16), uint8(p.Color >> 8), uint8(p.Color)
}

// RGBPixel is the three-byte color variant stored when the alpha flag is
// unset. It never appears in the public API of Encode/Decode; files without
// alpha decode to Pixels with the alpha byte forced to 0xFF.
type RGBPixel struct {
	X, Y  uint16
	Color [3]byte
}

// Pixel widens an RGBPixel to the packed form with full opacity.
func (p RGBPixel) Pixel() Pixel {
	return NewPixel(p.X, p.Y, p.Color[0], p.Color[1], p.Color[2], 0xFF)
}

// encodePixels serializes pixels in their given order into the raw
// (pre-compression) payload. When alpha is enabled, records with a zero
// alpha byte are elided entirely: absence at decode time means fully
// transparent. The payload carries no record count; its length is the
// only framing.
func encodePixels(pixels []Pixel, alpha, varint bool) []byte {
	recLen := 2 + 2 + 4
	if !alpha {
		recLen--
	}
	buf := make([]byte, 0, len(pixels)*recLen)
	for _, p := range pixels {
		if alpha && uint8(p.Color) == 0 {
			continue
		}
		if varint {
			buf = appendUvarint(buf, uint64(p.X))
			buf = appendUvarint(buf, uint64(p.Y))
		} else {
			buf = binary.LittleEndian.AppendUint16(buf, p.X)
			buf = binary.LittleEndian.AppendUint16(buf, p.Y)
		}
		r, g, b, a := p.RGBA()
		if alpha {
			buf = append(buf, r, g, b, a)
		} else {
			buf = append(buf, r, g, b)
		}
	}
	return buf
}

// decodePixels parses the decompressed payload back into pixels, consuming
// records until the buffer is exhausted. Coordinates are checked against
// the declared canvas; a coordinate at or past the bound means the payload
// does not belong to this header. Duplicate coordinates are passed through
// untouched; resolving them is the caller's policy.
func decodePixels(raw []byte, width, height uint16, alpha, varint bool) ([]Pixel, error) {
	colorLen := 4
	if !alpha {
		colorLen = 3
	}
	recLen := 2 + 2 + colorLen

	var pixels []Pixel
	if !varint {
		pixels = make([]Pixel, 0, len(raw)/recLen)
	}
	off := 0
	for off < len(raw) {
		var x, y uint64
		if varint {
			var n int
			var err error
			if x, n, err = readUvarint(raw[off:]); err != nil {
				return nil, fmt.Errorf("x at offset %d: %w", off, err)
			}
			off += n
			if y, n, err = readUvarint(raw[off:]); err != nil {
				return nil, fmt.Errorf("y at offset %d: %w", off, err)
			}
			off += n
		} else {
			if len(raw)-off < 4 {
				return nil, fmt.Errorf("%w: %d bytes left at offset %d, record needs %d", ErrTruncatedPixelRecord, len(raw)-off, off, recLen)
			}
			x = uint64(binary.LittleEndian.Uint16(raw[off:]))
			y = uint64(binary.LittleEndian.Uint16(raw[off+2:]))
			off += 4
		}
		if x >= uint64(width) || y >= uint64(height) {
			return nil, fmt.Errorf("%w: (%d, %d) on a %dx%d canvas", ErrCoordinateOutOfBounds, x, y, width, height)
		}
		if len(raw)-off < colorLen {
			return nil, fmt.Errorf("%w: %d color bytes left at offset %d, need %d", ErrTruncatedPixelRecord, len(raw)-off, off, colorLen)
		}
		var p Pixel
		if alpha {
			p = NewPixel(uint16(x), uint16(y), raw[off], raw[off+1], raw[off+2], raw[off+3])
		} else {
			p = RGBPixel{X: uint16(x), Y: uint16(y), Color: [3]byte{raw[off], raw[off+1], raw[off+2]}}.Pixel()
		}
		off += colorLen
		pixels = append(pixels, p)
	}
	return pixels, nil
}
