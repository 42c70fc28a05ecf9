package dmf

import (
	"fmt"
)

// Result is the outcome of decoding one song.
type Result struct {
	Header *Header
	// Playable is false when the engine found nothing to convert. The other
	// fields are then empty.
	Playable bool
	Sink     *Sink
	Status   Status
	// EndTick is the tick every output track ends at.
	EndTick  uint64
	Warnings []string
}

// TimedOut reports whether the scheduler hit its tick bound.
func (r *Result) TimedOut() bool {
	return r.Status == StatusTimedOut
}

// Decode parses data and runs engine over it until every track completes or
// the tick bound is reached.
//
// An invalid header yields ErrInvalidSignature. A decoding failure yields
// ErrMalformedSequence and no result, since a partial song must not be
// written. A timeout is reported through Result.Status and Result.Warnings.
func Decode(data []byte, engine Engine, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	log.Debug("header",
		"param04", h.Param04,
		"param08", h.Param08,
		"tracks", h.TrackCount,
		"timebase", h.Timebase,
	)

	res := &Result{Header: h}
	if h.TrackCount == 0 {
		log.Info("no tracks, nothing to convert")
		return res, nil
	}

	song := newSong(data, h, opts)
	if err := song.prelude(); err != nil {
		return nil, decodeError(fmt.Errorf("%w: %w", ErrMalformedSequence, err), "writing song prelude")
	}

	ok, err := engine.Initialize(song)
	if err != nil {
		return nil, decodeError(asMalformed(err), fmt.Sprintf("%s: locating tracks", engine.Name()))
	}
	if !ok {
		log.Info("no playable song", "engine", engine.Name())
		return res, nil
	}

	status, err := NewScheduler(song, engine, opts.MaxTicks).Run()
	if err != nil {
		return nil, err
	}

	res.Playable = true
	res.Sink = song.sink
	res.Status = status
	res.EndTick = song.tick
	if status == StatusTimedOut {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%v after %d ticks; output is truncated", ErrTimeout, opts.MaxTicks))
	}
	return res, nil
}

func asMalformed(err error) error {
	if err == nil {
		return nil
	}
	if IsSongError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrMalformedSequence, err)
}
