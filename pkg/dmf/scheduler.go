package dmf

import (
	"fmt"
)

// maxStepsPerTick catches tracks that loop without ever waiting.
const maxStepsPerTick = 0x10000

// Status tells how a scheduler run ended.
type Status int

const (
	StatusCompleted Status = iota
	StatusTimedOut
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusTimedOut:
		return "timed out"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Scheduler drives the global tick loop of one song.
type Scheduler struct {
	song     *Song
	engine   Engine
	maxTicks int
}

// NewScheduler returns a scheduler that runs at most maxTicks iterations.
func NewScheduler(song *Song, engine Engine, maxTicks int) *Scheduler {
	if maxTicks <= 0 {
		maxTicks = DefaultMaxTicks
	}
	return &Scheduler{song: song, engine: engine, maxTicks: maxTicks}
}

// Step runs one tick: counters are decremented, every track executes
// opcodes until it blocks or completes, then the pending note-ons are
// emitted. It returns false once every track is complete.
func (s *Scheduler) Step() (bool, error) {
	tracks := s.song.tracks

	for i := range tracks {
		t := &tracks[i]
		if !t.completed && t.WaitCounter > 0 {
			t.WaitCounter--
		}
	}

	for i := range tracks {
		t := &tracks[i]
		for steps := 0; !t.completed && t.WaitCounter <= 0; steps++ {
			if steps >= maxStepsPerTick {
				return false, s.failure(i, fmt.Errorf("%w: %d opcodes at tick %d without waiting",
					ErrMalformedSequence, steps, s.song.tick))
			}
			if err := s.engine.ProcessEvent(s.song, i); err != nil {
				return false, s.failure(i, err)
			}
		}
	}

	if err := s.song.flushPending(); err != nil {
		return false, s.failure(-1, err)
	}

	if s.song.allCompleted() {
		return false, nil
	}
	s.song.tick++
	return true, nil
}

// Run steps until every track completes or the tick bound is hit. Hitting
// the bound is not an error: the caller gets StatusTimedOut and keeps the
// events decoded so far.
func (s *Scheduler) Run() (Status, error) {
	log := s.song.Logger()
	for {
		if s.song.tick >= uint64(s.maxTicks) {
			log.Warn("scheduler timed out", "max_ticks", s.maxTicks, "engine", s.engine.Name())
			return StatusTimedOut, nil
		}
		more, err := s.Step()
		if err != nil {
			return StatusCompleted, err
		}
		if !more {
			log.Debug("all tracks completed", "tick", s.song.tick)
			return StatusCompleted, nil
		}
	}
}

func (s *Scheduler) failure(track int, err error) error {
	err = asMalformed(err)
	where := fmt.Sprintf("decoding failed at tick %d", s.song.tick)
	if track >= 0 {
		where = fmt.Sprintf("decoding track %d failed at tick %d (offset 0x%X)",
			track, s.song.tick, s.song.tracks[track].Cursor.Pos())
	}
	return decodeError(err, where)
}
