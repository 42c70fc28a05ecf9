package dmf

import (
	"fmt"
	"sort"
)

// Payload is the musical content of an emitted event.
type Payload interface {
	payload()
}

// NoteOn starts a note.
type NoteOn struct {
	Channel  uint8
	Key      uint8
	Velocity uint8
}

// NoteOff ends a note.
type NoteOff struct {
	Channel uint8
	Key     uint8
}

// MetaKind selects the SMF meta event a MetaText is written as.
type MetaKind uint8

const (
	MetaGeneric MetaKind = iota
	MetaSequenceName
	MetaMarker
)

// MetaText is a text meta event.
type MetaText struct {
	Kind MetaKind
	Text string
}

// ResetKind names a synthesizer reset message.
type ResetKind string

const (
	ResetGM1 ResetKind = "gm1"
	ResetGM2 ResetKind = "gm2"
	ResetGS  ResetKind = "gs"
	ResetXG  ResetKind = "xg"
)

// ResetDirective asks the receiver to reset into a known mode.
type ResetDirective struct {
	Kind ResetKind
}

// Tempo changes the playback tempo.
type Tempo struct {
	BPM float64
}

// ControlChange sets a channel controller.
type ControlChange struct {
	Channel    uint8
	Controller uint8
	Value      uint8
}

// ProgramChange selects an instrument.
type ProgramChange struct {
	Channel uint8
	Program uint8
}

func (NoteOn) payload()         {}
func (NoteOff) payload()        {}
func (MetaText) payload()       {}
func (ResetDirective) payload() {}
func (Tempo) payload()          {}
func (ControlChange) payload()  {}
func (ProgramChange) payload()  {}

// Event is one entry of the emitted event log.
type Event struct {
	Tick    uint64
	Track   int
	Payload Payload
}

// Sink accumulates emitted events per output track. Events carry absolute
// ticks, so the order of Append calls across tracks does not matter.
type Sink struct {
	tracks  [][]Event
	created []bool
	all     []Event
}

// NewSink returns a sink able to hold n tracks. Tracks still have to be
// created before use.
func NewSink(n int) *Sink {
	return &Sink{
		tracks:  make([][]Event, n),
		created: make([]bool, n),
	}
}

// CreateTrack makes track index usable.
func (s *Sink) CreateTrack(index int) error {
	if index < 0 || index >= len(s.tracks) {
		return fmt.Errorf("track %d out of range (0-%d)", index, len(s.tracks)-1)
	}
	s.created[index] = true
	return nil
}

// Append records an event on a created track.
func (s *Sink) Append(track int, tick uint64, p Payload) error {
	if track < 0 || track >= len(s.tracks) || !s.created[track] {
		return fmt.Errorf("append to track %d which was not created", track)
	}
	ev := Event{Tick: tick, Track: track, Payload: p}
	s.tracks[track] = append(s.tracks[track], ev)
	s.all = append(s.all, ev)
	return nil
}

// NumTracks returns the number of tracks the sink was sized for.
func (s *Sink) NumTracks() int {
	return len(s.tracks)
}

// Track returns the events of one track ordered by tick. Events sharing a
// tick keep their emission order.
func (s *Sink) Track(index int) []Event {
	if index < 0 || index >= len(s.tracks) {
		return nil
	}
	evs := make([]Event, len(s.tracks[index]))
	copy(evs, s.tracks[index])
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].Tick < evs[j].Tick })
	return evs
}

// Events returns every recorded event in emission order.
func (s *Sink) Events() []Event {
	evs := make([]Event, len(s.all))
	copy(evs, s.all)
	return evs
}

// Len returns the total number of recorded events.
func (s *Sink) Len() int {
	return len(s.all)
}
