package dmf

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// DefaultMaxTicks bounds the scheduler so garbage input cannot hang a
// conversion.
const DefaultMaxTicks = 100000

// MaxTickLimit is the largest accepted MaxTicks. SMF delta times are 32 bit.
const MaxTickLimit = math.MaxUint32

// SequenceName is written as the sequence name of every converted song.
const SequenceName = "Converted by dmf2midi"

// Options tunes a conversion.
type Options struct {
	// MaxTicks is the scheduler iteration bound. Zero selects DefaultMaxTicks.
	MaxTicks int
	// LoopCount is how many times a track may loop before it is considered
	// complete. Zero follows loops forever (until MaxTicks).
	LoopCount int
	// LinearVolume maps volumes and velocities through a curve so the result
	// sounds closer to the source hardware, at the cost of byte-exact values.
	LinearVolume bool
	// Reset selects the reset messages written at the start of the song.
	// Empty selects ResetGS.
	Reset ResetKind
	// Logger receives diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the options used by the command line tool.
func DefaultOptions() Options {
	return Options{
		MaxTicks:  DefaultMaxTicks,
		LoopCount: 1,
		Reset:     ResetGS,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxTicks <= 0 {
		o.MaxTicks = DefaultMaxTicks
	}
	if o.Reset == "" {
		o.Reset = ResetGS
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Level converts a raw volume or velocity byte into a MIDI data value.
func (o Options) Level(raw uint8) uint8 {
	if raw > 127 {
		raw = 127
	}
	if !o.LinearVolume {
		return raw
	}
	return uint8(math.Floor(math.Sqrt(float64(raw)/127)*127 + 0.5))
}

// ParseResetKind parses a reset name as accepted on the command line.
func ParseResetKind(s string) (ResetKind, error) {
	switch k := ResetKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ResetGM1, ResetGM2, ResetGS, ResetXG:
		return k, nil
	case "":
		return ResetGS, nil
	}
	return "", fmt.Errorf("unknown reset type %q (want gm1, gm2, gs or xg)", s)
}

// resetSequence lists the directives written for a reset kind.
func resetSequence(k ResetKind) []ResetKind {
	switch k {
	case ResetGM1:
		return []ResetKind{ResetGM1}
	case ResetGM2:
		return []ResetKind{ResetGM2}
	case ResetXG:
		return []ResetKind{ResetGM1, ResetXG}
	default:
		return []ResetKind{ResetGM1, ResetGS}
	}
}
