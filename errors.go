package npng

import "errors"

// Every structural violation is terminal for the call that raised it.
// Lower layers return their own kind and the encode/decode pipeline
// propagates the first failure without recasting it, so callers can
// match with errors.Is.
var (
	ErrBadSignature          = errors.New("npng: bad signature")
	ErrUnsupportedVersion    = errors.New("npng: unsupported format version")
	ErrUnsupportedEncoding   = errors.New("npng: unsupported encoding format")
	ErrChecksumMismatch      = errors.New("npng: checksum mismatch")
	ErrPayloadCorrupt        = errors.New("npng: payload corrupt")
	ErrTruncatedHeader       = errors.New("npng: truncated header")
	ErrTruncatedVarint       = errors.New("npng: truncated varint")
	ErrVarintOverflow        = errors.New("npng: varint overflows 64 bits")
	ErrCoordinateOutOfBounds = errors.New("npng: pixel coordinate out of bounds")
	ErrTruncatedPixelRecord  = errors.New("npng: truncated pixel record")
)
