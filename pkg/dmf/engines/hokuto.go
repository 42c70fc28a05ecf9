// Package engines provides the per-title DMF opcode dialects
package engines

import (
	"fmt"

	"github.com/james-see/dmf2midi/pkg/dmf"
)

// Hokuto dialect layout
const (
	HokutoID         = "hokuto"
	HokutoTrackTable = dmf.HeaderSize // track pointer table offset
	HokutoCallDepth  = 4
)

// Hokuto opcodes. Bytes below OpRest are notes (the byte is the key).
const (
	OpRest       = 0x80
	OpWait       = 0x81
	OpDuration   = 0x82
	OpTempo      = 0x83
	OpProgram    = 0x84
	OpVolume     = 0x85
	OpPan        = 0x86
	OpTranspose  = 0x87
	OpJump       = 0x88
	OpCall       = 0x89
	OpReturn     = 0x8A
	OpMarker     = 0x8B
	OpNop        = 0x8F
	OpEndOfTrack = 0xFF
)

const (
	ccVolume   = 7
	ccPan      = 10
	maxMIDIKey = 127
)

// hokutoTrack holds the dialect registers the generic track state does not
// know about.
type hokutoTrack struct {
	duration  int
	transpose int
	loops     int
	stack     []int
}

// Hokuto implements dmf.Engine for Hokuto no Ken - Seikimatsu Kyuuseishu
// Densetsu.
type Hokuto struct {
	tracks []hokutoTrack
}

// NewHokuto creates a new Hokuto engine. An engine holds per-song state and
// must not be shared between conversions.
func NewHokuto() *Hokuto {
	return &Hokuto{}
}

// Name returns the engine name
func (h *Hokuto) Name() string {
	return "Hokuto no Ken"
}

// Initialize reads the track pointer table that follows the header.
// Tracks with a null pointer are completed right away.
func (h *Hokuto) Initialize(song *dmf.Song) (bool, error) {
	n := song.NumTracks()
	h.tracks = make([]hokutoTrack, n)

	table, err := song.CursorAt(HokutoTrackTable)
	if err != nil {
		return false, err
	}

	playable := false
	for i := 0; i < n; i++ {
		ptr, err := table.ReadU32()
		if err != nil {
			return false, fmt.Errorf("track pointer %d: %w", i, err)
		}
		t := song.Track(i)
		if ptr == 0 {
			t.Complete()
			continue
		}
		if int64(ptr) >= int64(len(song.Data())) {
			return false, fmt.Errorf("%w: track %d starts at 0x%X beyond end of data (0x%X)",
				dmf.ErrMalformedSequence, i, ptr, len(song.Data()))
		}
		if err := t.Cursor.Seek(int(ptr)); err != nil {
			return false, err
		}
		playable = true
		song.Logger().Debug("track located", "track", i, "offset", fmt.Sprintf("0x%X", ptr))
	}
	return playable, nil
}

// ProcessEvent executes one opcode of track i
func (h *Hokuto) ProcessEvent(song *dmf.Song, i int) error {
	t := song.Track(i)
	ht := &h.tracks[i]
	c := &t.Cursor

	at := c.Pos()
	op, err := c.ReadU8()
	if err != nil {
		return err
	}

	switch {
	case op < OpRest:
		vel, err := c.ReadU8()
		if err != nil {
			return err
		}
		return song.StartNote(i, transposeKey(op, ht.transpose), vel)

	case op == OpRest:
		return song.StopNote(i)

	case op == OpWait:
		t.WaitCounter = ht.duration

	case op == OpDuration:
		d, err := c.ReadU8()
		if err != nil {
			return err
		}
		ht.duration = int(d)

	case op == OpTempo:
		bpm, err := c.ReadU16()
		if err != nil {
			return err
		}
		if bpm == 0 {
			return fmt.Errorf("%w: zero tempo at 0x%X", dmf.ErrMalformedSequence, at)
		}
		return song.Emit(0, dmf.Tempo{BPM: float64(bpm)})

	case op == OpProgram:
		p, err := c.ReadU8()
		if err != nil {
			return err
		}
		return song.Emit(i, dmf.ProgramChange{Channel: t.Channel(), Program: p & 0x7F})

	case op == OpVolume:
		v, err := c.ReadU8()
		if err != nil {
			return err
		}
		return song.Emit(i, dmf.ControlChange{Channel: t.Channel(), Controller: ccVolume, Value: song.Options().Level(v)})

	case op == OpPan:
		p, err := c.ReadU8()
		if err != nil {
			return err
		}
		return song.Emit(i, dmf.ControlChange{Channel: t.Channel(), Controller: ccPan, Value: p & 0x7F})

	case op == OpTranspose:
		s, err := c.ReadI8()
		if err != nil {
			return err
		}
		ht.transpose = int(s)

	case op == OpJump:
		return h.jump(song, i, at)

	case op == OpCall:
		dest, err := c.ReadU32()
		if err != nil {
			return err
		}
		if len(ht.stack) >= HokutoCallDepth {
			return fmt.Errorf("%w: call stack overflow at 0x%X", dmf.ErrMalformedSequence, at)
		}
		ht.stack = append(ht.stack, c.Pos())
		return c.Seek(int(dest))

	case op == OpReturn:
		if len(ht.stack) == 0 {
			return fmt.Errorf("%w: return without call at 0x%X", dmf.ErrMalformedSequence, at)
		}
		ret := ht.stack[len(ht.stack)-1]
		ht.stack = ht.stack[:len(ht.stack)-1]
		return c.Seek(ret)

	case op == OpMarker:
		n, err := c.ReadU8()
		if err != nil {
			return err
		}
		text, err := c.ReadBytes(int(n))
		if err != nil {
			return err
		}
		return song.Emit(i, dmf.MetaText{Kind: dmf.MetaMarker, Text: string(text)})

	case op == OpNop:

	case op == OpEndOfTrack:
		t.Complete()

	default:
		return fmt.Errorf("%w: unknown opcode 0x%02X at 0x%X", dmf.ErrMalformedSequence, op, at)
	}
	return nil
}

// jump follows a jump opcode. A backward jump closes a loop; once the track
// has looped LoopCount times it is complete.
func (h *Hokuto) jump(song *dmf.Song, i, at int) error {
	t := song.Track(i)
	ht := &h.tracks[i]

	dest, err := t.Cursor.ReadU32()
	if err != nil {
		return err
	}
	if int64(dest) <= int64(at) {
		ht.loops++
		limit := song.Options().LoopCount
		if limit > 0 && ht.loops >= limit {
			song.Logger().Debug("track looped", "track", i, "loops", ht.loops, "tick", song.Tick())
			t.Complete()
			return nil
		}
	}
	return t.Cursor.Seek(int(dest))
}

func transposeKey(key uint8, transpose int) uint8 {
	k := int(key) + transpose
	if k < 0 {
		return 0
	}
	if k > maxMIDIKey {
		return maxMIDIKey
	}
	return uint8(k)
}
