package dmf

import (
	"fmt"
	"log/slog"
)

// Song is the conversion state of one song: the sequence buffer, the
// per-track registers, the pending note-on queue and the event sink. Engines
// receive it on every call and mutate it only through the track they are
// processing.
type Song struct {
	Header *Header

	data    []byte
	tracks  []TrackState
	pending NoteQueue
	sink    *Sink
	tick    uint64
	opts    Options
}

func newSong(data []byte, h *Header, opts Options) *Song {
	n := int(h.TrackCount)
	s := &Song{
		Header: h,
		data:   data,
		tracks: make([]TrackState, n),
		sink:   NewSink(n),
		opts:   opts,
	}
	for i := range s.tracks {
		s.tracks[i] = TrackState{Index: i, Cursor: NewCursor(data)}
		// cannot fail, i is in range
		_ = s.sink.CreateTrack(i)
	}
	return s
}

// Data returns the raw sequence buffer. It must not be modified.
func (s *Song) Data() []byte {
	return s.data
}

// NumTracks returns the track count from the header.
func (s *Song) NumTracks() int {
	return len(s.tracks)
}

// Track returns the registers of track i.
func (s *Song) Track(i int) *TrackState {
	return &s.tracks[i]
}

// Tick returns the current scheduler tick.
func (s *Song) Tick() uint64 {
	return s.tick
}

// Options returns the conversion options.
func (s *Song) Options() Options {
	return s.opts
}

// Logger returns the conversion logger.
func (s *Song) Logger() *slog.Logger {
	return s.opts.Logger
}

// Sink returns the event log.
func (s *Song) Sink() *Sink {
	return s.sink
}

// CursorAt returns a new cursor positioned at offset.
func (s *Song) CursorAt(offset int) (Cursor, error) {
	c := NewCursor(s.data)
	if err := c.Seek(offset); err != nil {
		return Cursor{}, err
	}
	return c, nil
}

// Emit records p on output track at the current tick. It is not deferred.
func (s *Song) Emit(track int, p Payload) error {
	return s.sink.Append(track, s.tick, p)
}

// StartNote releases the note sounding on track, if any, and queues a
// note-on for key that is emitted once the whole tick has been processed.
func (s *Song) StartNote(track int, key, velocity uint8) error {
	if err := s.StopNote(track); err != nil {
		return err
	}
	t := &s.tracks[track]
	t.NoteFlag = true
	t.CurrentKey = key
	s.pending.Push(PendingNote{
		Track:    track,
		Channel:  t.Channel(),
		Key:      key,
		Velocity: velocity,
	})
	return nil
}

// StopNote emits a note-off for the note sounding on track.
func (s *Song) StopNote(track int) error {
	t := &s.tracks[track]
	if !t.NoteFlag {
		return nil
	}
	t.NoteFlag = false
	return s.Emit(track, NoteOff{Channel: t.Channel(), Key: t.CurrentKey})
}

// flushPending emits all queued note-ons at the current tick.
func (s *Song) flushPending() error {
	var err error
	s.pending.Drain(func(n PendingNote) {
		if err != nil {
			return
		}
		vel := s.opts.Level(n.Velocity)
		// velocity 0 would read as a note-off
		if vel == 0 {
			vel = 1
		}
		err = s.Emit(n.Track, NoteOn{
			Channel:  n.Channel,
			Key:      n.Key,
			Velocity: vel,
		})
	})
	return err
}

func (s *Song) allCompleted() bool {
	for i := range s.tracks {
		if !s.tracks[i].completed {
			return false
		}
	}
	return true
}

// prelude writes the sequence name and reset messages at tick 0.
func (s *Song) prelude() error {
	if len(s.tracks) == 0 {
		return nil
	}
	if err := s.Emit(0, MetaText{Kind: MetaSequenceName, Text: SequenceName}); err != nil {
		return err
	}
	for _, k := range resetSequence(s.opts.Reset) {
		if err := s.Emit(0, ResetDirective{Kind: k}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Song) String() string {
	return fmt.Sprintf("song(tracks=%d, timebase=%d, tick=%d)", len(s.tracks), s.Header.Timebase, s.tick)
}
