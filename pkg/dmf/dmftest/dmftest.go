// Package dmftest builds DMF buffers for tests.
package dmftest

import (
	"encoding/binary"

	"github.com/james-see/dmf2midi/pkg/dmf"
)

// Hokuto opcodes, duplicated here so tests read like the byte streams they
// describe.
const (
	Rest      = 0x80
	Wait      = 0x81
	Duration  = 0x82
	Tempo     = 0x83
	Program   = 0x84
	Volume    = 0x85
	Pan       = 0x86
	Transpose = 0x87
	Jump      = 0x88
	Call      = 0x89
	Return    = 0x8A
	Marker    = 0x8B
	Nop       = 0x8F
	End       = 0xFF
)

// Header returns a 12 byte DMF header.
func Header(tracks int, timebase uint16) []byte {
	h := make([]byte, dmf.HeaderSize)
	copy(h, dmf.Signature[:])
	h[9] = byte(tracks)
	binary.BigEndian.PutUint16(h[10:], timebase)
	return h
}

// TrackBase returns the offset the first track stream starts at for a song
// with n tracks.
func TrackBase(n int) int {
	return dmf.HeaderSize + 4*n
}

// Offsets returns the start offset of every track stream as laid out by
// Build. Nil streams get offset 0.
func Offsets(tracks ...[]byte) []int {
	offs := make([]int, len(tracks))
	off := TrackBase(len(tracks))
	for i, t := range tracks {
		if t == nil {
			continue
		}
		offs[i] = off
		off += len(t)
	}
	return offs
}

// Build lays out a Hokuto song: header, track pointer table, then the
// streams back to back. A nil stream gets a null pointer.
func Build(timebase uint16, tracks ...[]byte) []byte {
	buf := Header(len(tracks), timebase)
	offs := Offsets(tracks...)
	for _, off := range offs {
		buf = binary.BigEndian.AppendUint32(buf, uint32(off))
	}
	for _, t := range tracks {
		buf = append(buf, t...)
	}
	return buf
}

// U16 encodes v big-endian.
func U16(v uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, v)
}

// U32 encodes v big-endian.
func U32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

// Concat joins byte groups into one stream.
func Concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Scenario returns the reference single-track song: duration 12, note 60
// at velocity 100, wait, end of track, timebase 48.
func Scenario() []byte {
	return Build(48, []byte{Duration, 12, 60, 100, Wait, End})
}
