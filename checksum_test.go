package npng

import (
	"bytes"
	"errors"
	"testing"
)

func TestChecksum_KnownValue(t *testing.T) {
	// Standard CRC-32 (IEEE) check value.
	if got := checksum([]byte("123456789")); got != 0xCBF43926 {
		t.Fatalf("checksum: got %08X want CBF43926", got)
	}
}

func TestChecksum_Verify(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	crc := checksum(payload)
	if !verifyChecksum(payload, crc) {
		t.Fatalf("verifyChecksum rejected a matching CRC")
	}
	if verifyChecksum(payload, crc^1) {
		t.Fatalf("verifyChecksum accepted a wrong CRC")
	}
}

func TestChecksum_RecordRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	writeChecksum(&buf, 0x0DDBA11)
	if buf.Len() != checksumLen {
		t.Fatalf("record length: got %d want %d", buf.Len(), checksumLen)
	}
	crc, err := readChecksum(buf.Bytes())
	if err != nil {
		t.Fatalf("readChecksum: %v", err)
	}
	if crc != 0x0DDBA11 {
		t.Fatalf("crc: got %08X want 0DDBA11", crc)
	}
}

func TestChecksum_BadDelimiter(t *testing.T) {
	var buf bytes.Buffer
	writeChecksum(&buf, 1)
	raw := buf.Bytes()
	raw[4] = 'X' // first byte of "CheckSum"
	if _, err := readChecksum(raw); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("got %v, want ErrChecksumMismatch", err)
	}
}
