package npng

import (
	"encoding/binary"
	"fmt"
)

// Varint coordinates are a format-level option kept for files that set the
// varint header flag. Fixed-width u16 coordinates are the recommended path:
// for 16-bit values LEB128 saves a byte only below 128 and costs one above
// 16383, while making record boundaries data-dependent.

// appendUvarint appends v in LEB128 form (7 bits per byte, continuation bit
// in the high bit, least-significant group first).
func appendUvarint(dst []byte, v uint64) []byte {
	return binary.AppendUvarint(dst, v)
}

// readUvarint decodes a LEB128 value from the front of buf and reports how
// many bytes it consumed.
func readUvarint(buf []byte) (uint64, int, error) {
	v, n := binary.Uvarint(buf)
	if n == 0 {
		return 0, 0, fmt.Errorf("%w: %d bytes left", ErrTruncatedVarint, len(buf))
	}
	if n < 0 {
		return 0, 0, ErrVarintOverflow
	}
	return v, n, nil
}
