package npng

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// signature spells "NPNG" in UTF-16BE with a trailing NUL byte. A file that
// does not start with these nine bytes is not an NPNG file.
var signature = [9]byte{0x00, 0x4E, 0x00, 0x50, 0x00, 0x4E, 0x00, 0x47, 0x00}

var (
	headerDel = [4]byte{0x00, 0x00, 0x00, 0x00}
	headerEnd = [6]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
)

// Format version written by this encoder. A decoder refuses files whose
// major version is above its own; minor versions are layout-compatible.
const (
	VersionMajor uint8  = 1
	VersionMinor uint16 = 0
)

// Caps carried over from the reference encoder. Oversized metadata is
// trimmed on write rather than rejected; an oversized header is rejected
// on read.
const (
	maxCreatedIn  = 512
	maxExtraPairs = 512
	maxHeaderLen  = 8192
)

// Metadata is the user-visible annotation block embedded in the header.
type Metadata struct {
	// CreatedIn is a free-form tool/origin tag.
	CreatedIn string
	// Width and Height are the logical canvas bounds. Zero for both means
	// Encode derives them from the pixel set.
	Width, Height uint16
	// Extra holds arbitrary key/value annotations, keys unique per image.
	Extra map[string]string
}

// EncoderVersion identifies the format version a file was written with.
type EncoderVersion struct {
	Major uint8
	Minor uint16
}

// header is the fixed-layout file prefix. It is built once per Encode call
// and never mutated afterwards.
type header struct {
	version  EncoderVersion
	alpha    bool
	varint   bool
	reserved [8]byte
	encoding Encoding
	meta     Metadata
}

func writeString(b *bytes.Buffer, s string) {
	var le [2]byte
	binary.LittleEndian.PutUint16(le[:], uint16(len(s)))
	b.Write(le[:])
	b.WriteString(s)
}

func writeBool(b *bytes.Buffer, v bool) {
	if v {
		b.WriteByte(1)
	} else {
		b.WriteByte(0)
	}
}

// writeHeader serializes h. Extra keys are written in ascending byte order
// so that encoding the same image twice yields identical bytes.
func writeHeader(b *bytes.Buffer, h header) error {
	tag := h.encoding.String()
	if _, err := ParseEncoding(tag); err != nil {
		return err
	}
	createdIn := h.meta.CreatedIn
	if len(createdIn) > maxCreatedIn {
		createdIn = createdIn[:maxCreatedIn]
	}
	keys := make([]string, 0, len(h.meta.Extra))
	for k := range h.meta.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > maxExtraPairs {
		keys = keys[:maxExtraPairs]
	}

	b.Write(signature[:])
	b.WriteByte(h.version.Major)
	var le [2]byte
	binary.LittleEndian.PutUint16(le[:], h.version.Minor)
	b.Write(le[:])
	b.Write(headerDel[:])
	writeBool(b, h.alpha)
	writeBool(b, h.varint)
	b.Write(h.reserved[:])
	writeString(b, tag)

	writeString(b, createdIn)
	binary.LittleEndian.PutUint16(le[:], h.meta.Width)
	b.Write(le[:])
	binary.LittleEndian.PutUint16(le[:], h.meta.Height)
	b.Write(le[:])
	binary.LittleEndian.PutUint16(le[:], uint16(len(keys)))
	b.Write(le[:])
	for _, k := range keys {
		writeString(b, k)
		writeString(b, h.meta.Extra[k])
	}

	b.Write(headerEnd[:])
	if b.Len() > maxHeaderLen {
		return fmt.Errorf("npng: header is %d bytes, cap is %d", b.Len(), maxHeaderLen)
	}
	return nil
}

// cursor is a bounds-checked reader over the raw file bytes.
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) take(n int) ([]byte, error) {
	if c.off+n > len(c.buf) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedHeader, n, c.off, len(c.buf)-c.off)
	}
	s := c.buf[c.off : c.off+n]
	c.off += n
	return s, nil
}

func (c *cursor) u16() (uint16, error) {
	s, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(s), nil
}

func (c *cursor) str() (string, error) {
	n, err := c.u16()
	if err != nil {
		return "", err
	}
	s, err := c.take(int(n))
	if err != nil {
		return "", err
	}
	return string(s), nil
}

func (c *cursor) flag(field string) (bool, error) {
	s, err := c.take(1)
	if err != nil {
		return false, err
	}
	switch s[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s flag is 0x%02X", ErrTruncatedHeader, field, s[0])
	}
}

// readHeader parses and validates the header at the front of buf, returning
// the parsed header and the number of bytes it occupied. Delimiters are
// compared, not skipped; a delimiter mismatch means the cursor lost sync.
func readHeader(buf []byte) (header, int, error) {
	var h header
	c := &cursor{buf: buf}

	sig, err := c.take(len(signature))
	if err != nil {
		return h, 0, fmt.Errorf("%w: no signature", ErrBadSignature)
	}
	if !bytes.Equal(sig, signature[:]) {
		return h, 0, fmt.Errorf("%w: % X", ErrBadSignature, sig)
	}

	major, err := c.take(1)
	if err != nil {
		return h, 0, err
	}
	h.version.Major = major[0]
	if h.version.Major > VersionMajor {
		return h, 0, fmt.Errorf("%w: file is v%d, decoder supports up to v%d", ErrUnsupportedVersion, h.version.Major, VersionMajor)
	}
	if h.version.Minor, err = c.u16(); err != nil {
		return h, 0, err
	}

	del, err := c.take(len(headerDel))
	if err != nil {
		return h, 0, err
	}
	if !bytes.Equal(del, headerDel[:]) {
		return h, 0, fmt.Errorf("%w: bad delimiter after version: % X", ErrTruncatedHeader, del)
	}

	if h.alpha, err = c.flag("alpha"); err != nil {
		return h, 0, err
	}
	if h.varint, err = c.flag("varint"); err != nil {
		return h, 0, err
	}
	reserved, err := c.take(len(h.reserved))
	if err != nil {
		return h, 0, err
	}
	copy(h.reserved[:], reserved) // opaque pass-through, not validated

	tag, err := c.str()
	if err != nil {
		return h, 0, err
	}
	if h.encoding, err = ParseEncoding(tag); err != nil {
		return h, 0, err
	}

	if h.meta.CreatedIn, err = c.str(); err != nil {
		return h, 0, err
	}
	if h.meta.Width, err = c.u16(); err != nil {
		return h, 0, err
	}
	if h.meta.Height, err = c.u16(); err != nil {
		return h, 0, err
	}
	pairs, err := c.u16()
	if err != nil {
		return h, 0, err
	}
	h.meta.Extra = make(map[string]string, pairs)
	for i := 0; i < int(pairs); i++ {
		k, err := c.str()
		if err != nil {
			return h, 0, err
		}
		v, err := c.str()
		if err != nil {
			return h, 0, err
		}
		h.meta.Extra[k] = v
	}

	end, err := c.take(len(headerEnd))
	if err != nil {
		return h, 0, err
	}
	if !bytes.Equal(end, headerEnd[:]) {
		return h, 0, fmt.Errorf("%w: bad trailing delimiter: % X", ErrTruncatedHeader, end)
	}
	if c.off > maxHeaderLen {
		return h, 0, fmt.Errorf("%w: header is %d bytes, cap is %d", ErrTruncatedHeader, c.off, maxHeaderLen)
	}
	return h, c.off, nil
}
