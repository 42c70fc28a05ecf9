package converter

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/dmf2midi/pkg/dmf"
	"github.com/james-see/dmf2midi/pkg/mml"
)

// MIDIConverter handles MIDI file parsing and generation
type MIDIConverter struct {
	ticksPerQuarter uint16
	tempo           float64
}

// NewMIDIConverter creates a new MIDI converter
func NewMIDIConverter() *MIDIConverter {
	return &MIDIConverter{
		ticksPerQuarter: 480,
		tempo:           120.0,
	}
}

// GenerateMIDI writes a decoded song as a format 1 SMF. SMF track i holds
// the events of sequence track i; every track ends at the song's end tick.
func (m *MIDIConverter) GenerateMIDI(res *dmf.Result) ([]byte, error) {
	if res == nil || res.Sink == nil {
		return nil, errors.New("nothing to write: song was not decoded")
	}
	if res.EndTick > dmf.MaxTickLimit {
		return nil, fmt.Errorf("song ends at tick %d, beyond the SMF range", res.EndTick)
	}

	tb := m.ticksPerQuarter
	if res.Header != nil && res.Header.Timebase > 0 {
		tb = res.Header.Timebase
	}

	s := smf.NewSMF1()
	s.TimeFormat = smf.MetricTicks(tb)

	for i := 0; i < res.Sink.NumTracks(); i++ {
		var track smf.Track
		var currentTick uint64

		for _, ev := range res.Sink.Track(i) {
			msg, err := eventMessage(ev.Payload)
			if err != nil {
				return nil, fmt.Errorf("track %d tick %d: %w", i, ev.Tick, err)
			}
			track.Add(uint32(ev.Tick-currentTick), msg)
			currentTick = ev.Tick
		}

		end := res.EndTick
		if end < currentTick {
			end = currentTick
		}
		track.Close(uint32(end - currentTick))

		if err := s.Add(track); err != nil {
			return nil, fmt.Errorf("failed to add track: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

// eventMessage converts a sink payload into the raw SMF message bytes
func eventMessage(p dmf.Payload) ([]byte, error) {
	switch p := p.(type) {
	case dmf.NoteOn:
		return midi.NoteOn(p.Channel, p.Key, p.Velocity), nil
	case dmf.NoteOff:
		return midi.NoteOff(p.Channel, p.Key), nil
	case dmf.ControlChange:
		return midi.ControlChange(p.Channel, p.Controller, p.Value), nil
	case dmf.ProgramChange:
		return midi.ProgramChange(p.Channel, p.Program), nil
	case dmf.Tempo:
		return smf.MetaTempo(p.BPM), nil
	case dmf.ResetDirective:
		return ResetSysEx(p.Kind)
	case dmf.MetaText:
		switch p.Kind {
		case dmf.MetaSequenceName:
			return smf.MetaTrackSequenceName(p.Text), nil
		case dmf.MetaMarker:
			return smf.MetaMarker(p.Text), nil
		default:
			return smf.MetaText(p.Text), nil
		}
	}
	return nil, fmt.Errorf("unsupported event %T", p)
}

// ParseMIDI parses MIDI data into note lists for MML output
func (m *MIDIConverter) ParseMIDI(data []byte) (*mml.Song, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	// Get ticks per quarter note from time format
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		m.ticksPerQuarter = mt.Resolution()
	}

	song := &mml.Song{
		Resolution: m.ticksPerQuarter,
		Tempo:      m.tempo,
	}
	tempoSeen := false

	type sounding struct {
		start    uint32
		velocity uint8
	}

	for ti, track := range s.Tracks {
		var currentTick uint32
		active := make(map[uint8]sounding)
		out := mml.Track{Name: fmt.Sprintf("Track %d", ti)}

		closeNote := func(key uint8, tick uint32) {
			n, ok := active[key]
			if !ok {
				return
			}
			delete(active, key)
			out.Notes = append(out.Notes, mml.Note{
				Start:    n.start,
				Length:   tick - n.start,
				Key:      key,
				Velocity: n.velocity,
			})
		}

		for _, ev := range track {
			currentTick += ev.Delta
			msg := ev.Message

			// First tempo meta message (FF 51 03 ...) wins
			if len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
				microsecondsPerBeat := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
				if microsecondsPerBeat > 0 && !tempoSeen {
					song.Tempo = 60000000.0 / float64(microsecondsPerBeat)
					tempoSeen = true
				}
				continue
			}

			// Note On: 0x9n nn vv, Note Off: 0x8n nn vv
			if len(msg) >= 3 {
				status := msg[0]
				noteNum := msg[1]
				velocity := msg[2]

				switch {
				case status >= 0x90 && status <= 0x9F && velocity > 0:
					closeNote(noteNum, currentTick)
					active[noteNum] = sounding{start: currentTick, velocity: velocity}
				case status >= 0x80 && status <= 0x8F, status >= 0x90 && status <= 0x9F:
					closeNote(noteNum, currentTick)
				}
			}
		}

		// Hanging notes end with the track
		keys := make([]int, 0, len(active))
		for k := range active {
			keys = append(keys, int(k))
		}
		sort.Ints(keys)
		for _, k := range keys {
			closeNote(uint8(k), currentTick)
		}

		sort.SliceStable(out.Notes, func(i, j int) bool { return out.Notes[i].Start < out.Notes[j].Start })
		song.Tracks = append(song.Tracks, out)
	}

	return song, nil
}
