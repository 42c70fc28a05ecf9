package converter

import (
	"errors"
	"fmt"

	"github.com/james-see/dmf2midi/pkg/dmf"
)

// SysEx constants
const (
	SysExStart = 0xF0
	SysExEnd   = 0xF7

	rolandID = 0x41
)

// Reset messages written for each reset directive
var resetSysEx = map[dmf.ResetKind][]byte{
	// GM1 System On
	dmf.ResetGM1: {0xF0, 0x7E, 0x7F, 0x09, 0x01, 0xF7},
	// GM2 System On
	dmf.ResetGM2: {0xF0, 0x7E, 0x7F, 0x09, 0x03, 0xF7},
	// Roland GS Reset
	dmf.ResetGS: {0xF0, 0x41, 0x10, 0x42, 0x12, 0x40, 0x00, 0x7F, 0x00, 0x41, 0xF7},
	// Yamaha XG System On
	dmf.ResetXG: {0xF0, 0x43, 0x10, 0x4C, 0x00, 0x00, 0x7E, 0x00, 0xF7},
}

// ResetSysEx returns the complete SysEx message (F0 ... F7) for a reset
// directive.
func ResetSysEx(kind dmf.ResetKind) ([]byte, error) {
	msg, ok := resetSysEx[kind]
	if !ok {
		return nil, fmt.Errorf("no reset message for %q", kind)
	}
	if err := ValidateSyx(msg); err != nil {
		return nil, err
	}
	// Roland DT1: F0 41 dev model 12 <addr+data> sum F7
	if msg[1] == rolandID {
		if sum := rolandChecksum(msg[5 : len(msg)-2]); sum != msg[len(msg)-2] {
			return nil, fmt.Errorf("bad Roland checksum for %q: 0x%02X, want 0x%02X", kind, msg[len(msg)-2], sum)
		}
	}
	out := make([]byte, len(msg))
	copy(out, msg)
	return out, nil
}

// ValidateSyx validates SysEx data structure
func ValidateSyx(data []byte) error {
	if len(data) < 2 {
		return errors.New("syx data too short")
	}

	if data[0] != SysExStart {
		return fmt.Errorf("invalid SysEx: expected start byte 0x%02X, got 0x%02X", SysExStart, data[0])
	}

	if data[len(data)-1] != SysExEnd {
		return fmt.Errorf("invalid SysEx: expected end byte 0x%02X, got 0x%02X", SysExEnd, data[len(data)-1])
	}

	// Check all data bytes are 7-bit (valid MIDI data)
	for i := 1; i < len(data)-1; i++ {
		if data[i] > 127 {
			return fmt.Errorf("invalid SysEx: byte at position %d is > 127 (0x%02X)", i, data[i])
		}
	}

	return nil
}

// rolandChecksum returns the checksum byte of a Roland DT1 message body
// (address and data).
func rolandChecksum(body []byte) byte {
	var sum int
	for _, b := range body {
		sum += int(b)
	}
	return byte((128 - sum%128) % 128)
}
