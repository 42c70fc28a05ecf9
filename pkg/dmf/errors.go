package dmf

import (
	"errors"
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Error taxonomy. Every error returned by this package wraps one of these
// so callers can branch with errors.Is.
var (
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrOutOfBounds       = errors.New("read out of bounds")
	ErrMalformedSequence = errors.New("malformed sequence")
	ErrTimeout           = errors.New("tick limit exceeded")
	ErrIO                = errors.New("i/o failure")
	ErrNoEngine          = errors.New("unknown engine")
)

// Stages a failure can be attributed to.
const (
	StageSignature ftag.Kind = "signature check"
	StageDecode    ftag.Kind = "opcode decode"
	StageIO        ftag.Kind = "file i/o"
)

// Stage returns the processing stage err was tagged with, or "" when err
// carries no stage.
func Stage(err error) string {
	if err == nil {
		return ""
	}
	switch k := ftag.Get(err); k {
	case StageSignature, StageDecode, StageIO:
		return string(k)
	}
	return ""
}

// IsSongError reports whether err only affects the current song, as opposed
// to the whole input file.
func IsSongError(err error) bool {
	return errors.Is(err, ErrMalformedSequence)
}

func signatureError(err error, msg string) error {
	return fault.Wrap(err, ftag.With(StageSignature), fmsg.With(msg))
}

func decodeError(err error, msg string) error {
	return fault.Wrap(err, ftag.With(StageDecode), fmsg.With(msg))
}

// IOError tags err as a file-level i/o failure.
func IOError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrIO) {
		err = fmt.Errorf("%w: %w", ErrIO, err)
	}
	return fault.Wrap(err, ftag.With(StageIO), fmsg.With(msg))
}
