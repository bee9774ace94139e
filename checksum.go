package npng

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// checksumDel is the trailer sync anchor: four zero bytes, the ASCII text
// "CheckSum", four zero bytes.
var checksumDel = [16]byte{
	0x00, 0x00, 0x00, 0x00,
	0x43, 0x68, 0x65, 0x63, 0x6B, 0x53, 0x75, 0x6D,
	0x00, 0x00, 0x00, 0x00,
}

// checksumLen is the size of the serialized trailer record.
const checksumLen = len(checksumDel) + 4

// checksum computes CRC-32 (IEEE 802.3) over the payload exactly as stored
// in the file, i.e. after compression.
func checksum(payload []byte) uint32 {
	return crc32.ChecksumIEEE(payload)
}

func verifyChecksum(payload []byte, want uint32) bool {
	return checksum(payload) == want
}

func writeChecksum(b *bytes.Buffer, crc uint32) {
	b.Write(checksumDel[:])
	var le [4]byte
	binary.LittleEndian.PutUint32(le[:], crc)
	b.Write(le[:])
}

// readChecksum parses the trailer record from the final checksumLen bytes
// of a file.
func readChecksum(raw []byte) (uint32, error) {
	if len(raw) != checksumLen {
		return 0, fmt.Errorf("%w: checksum record is %d bytes, want %d", ErrTruncatedHeader, len(raw), checksumLen)
	}
	if !bytes.Equal(raw[:len(checksumDel)], checksumDel[:]) {
		return 0, fmt.Errorf("%w: bad checksum delimiter", ErrChecksumMismatch)
	}
	return binary.LittleEndian.Uint32(raw[len(checksumDel):]), nil
}
