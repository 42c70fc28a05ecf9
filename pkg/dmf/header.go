package dmf

import (
	"bytes"
	"fmt"

	"github.com/ghostiam/binstruct"
)

// Signature is the magic at offset 0 of every DMF file.
var Signature = [4]byte{'D', 'M', 'F', 0}

// HeaderSize is the size of the fixed header. Track data follows it at an
// engine-specific location.
const HeaderSize = 12

// Header is the fixed DMF song header. All fields are big-endian.
type Header struct {
	Magic      [4]byte
	Param04    uint32 // engine-specific, opaque
	Param08    uint8  // engine-specific, opaque
	TrackCount uint8
	Timebase   uint16 // ticks per quarter note
}

// HasSignature reports whether data starts with the DMF magic.
func HasSignature(data []byte) bool {
	return len(data) >= len(Signature) && bytes.Equal(data[:len(Signature)], Signature[:])
}

// ParseHeader validates the signature and decodes the fixed header.
func ParseHeader(data []byte) (*Header, error) {
	if !HasSignature(data) {
		got := data
		if len(got) > len(Signature) {
			got = got[:len(Signature)]
		}
		return nil, signatureError(
			fmt.Errorf("%w: expected % X, got % X", ErrInvalidSignature, Signature[:], got),
			"signature check failed",
		)
	}
	if len(data) < HeaderSize {
		return nil, signatureError(
			fmt.Errorf("%w: header needs %d bytes, file has %d", ErrInvalidSignature, HeaderSize, len(data)),
			"header truncated",
		)
	}

	var h Header
	if err := binstruct.UnmarshalBE(data[:HeaderSize], &h); err != nil {
		return nil, signatureError(fmt.Errorf("%w: %v", ErrInvalidSignature, err), "header decode failed")
	}
	return &h, nil
}
