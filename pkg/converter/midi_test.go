package converter

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/dmf2midi/pkg/dmf"
	"github.com/james-see/dmf2midi/pkg/dmf/dmftest"
	"github.com/james-see/dmf2midi/pkg/dmf/engines"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeSong(t *testing.T, data []byte) *dmf.Result {
	t.Helper()
	opts := dmf.DefaultOptions()
	opts.Logger = quietLogger()
	res, err := dmf.Decode(data, engines.NewHokuto(), opts)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return res
}

func TestGenerateMIDITrackLayout(t *testing.T) {
	res := decodeSong(t, dmftest.Build(96,
		[]byte{dmftest.Duration, 24, dmftest.Tempo, 0, 150, 60, 100, dmftest.Wait, dmftest.End},
		nil,
		[]byte{dmftest.Duration, 48, 40, 90, dmftest.Wait, dmftest.Rest, dmftest.End},
	))

	data, err := NewMIDIConverter().GenerateMIDI(res)
	if err != nil {
		t.Fatalf("GenerateMIDI() error = %v", err)
	}
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("smf.ReadFrom() error = %v", err)
	}
	if len(s.Tracks) != 3 {
		t.Fatalf("%d tracks, want 3", len(s.Tracks))
	}

	var tempo float64
	for _, ev := range s.Tracks[0] {
		var bpm float64
		if ev.Message.GetMetaTempo(&bpm) {
			tempo = bpm
		}
	}
	if tempo < 149.9 || tempo > 150.1 {
		t.Errorf("tempo = %v, want 150", tempo)
	}

	// the null-pointer track is empty but present
	for _, ev := range s.Tracks[1] {
		if msg := []byte(ev.Message); len(msg) > 0 && msg[0] < 0xF0 {
			t.Errorf("track 1 has channel message % X", msg)
		}
	}

	var ch uint8 = 0xFF
	for _, ev := range s.Tracks[2] {
		if msg := []byte(ev.Message); len(msg) == 3 && msg[0]&0xF0 == 0x90 {
			ch = msg[0] & 0x0F
		}
	}
	if ch != 2 {
		t.Errorf("track 2 notes on channel %d, want 2", ch)
	}
}

func TestGenerateMIDIRequiresDecodedSong(t *testing.T) {
	if _, err := NewMIDIConverter().GenerateMIDI(nil); err == nil {
		t.Error("GenerateMIDI(nil) should fail")
	}
	if _, err := NewMIDIConverter().GenerateMIDI(&dmf.Result{}); err == nil {
		t.Error("GenerateMIDI() of an unplayable song should fail")
	}
	if _, err := NewMIDIConverter().GenerateMIDI(&dmf.Result{Sink: dmf.NewSink(1), EndTick: dmf.MaxTickLimit + 1}); err == nil {
		t.Error("GenerateMIDI() accepted an end tick beyond 32 bit")
	}
}

func TestEventMessage(t *testing.T) {
	tests := []struct {
		name    string
		payload dmf.Payload
		want    []byte
	}{
		{"note on", dmf.NoteOn{Channel: 1, Key: 60, Velocity: 100}, []byte{0x91, 60, 100}},
		{"note off", dmf.NoteOff{Channel: 2, Key: 61}, []byte{0x82, 61, 0}},
		{"volume", dmf.ControlChange{Channel: 0, Controller: 7, Value: 90}, []byte{0xB0, 7, 90}},
		{"program", dmf.ProgramChange{Channel: 3, Program: 12}, []byte{0xC3, 12}},
		{"gs reset", dmf.ResetDirective{Kind: dmf.ResetGS}, []byte{0xF0, 0x41, 0x10, 0x42, 0x12, 0x40, 0x00, 0x7F, 0x00, 0x41, 0xF7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eventMessage(tt.payload)
			if err != nil {
				t.Fatalf("eventMessage() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("eventMessage() = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestResetSysEx(t *testing.T) {
	for _, k := range []dmf.ResetKind{dmf.ResetGM1, dmf.ResetGM2, dmf.ResetGS, dmf.ResetXG} {
		msg, err := ResetSysEx(k)
		if err != nil {
			t.Errorf("ResetSysEx(%s) error = %v", k, err)
			continue
		}
		if err := ValidateSyx(msg); err != nil {
			t.Errorf("ResetSysEx(%s) invalid: %v", k, err)
		}
	}
	if _, err := ResetSysEx("mt32"); err == nil {
		t.Error("ResetSysEx(mt32) should fail")
	}

	// callers get a copy
	a, _ := ResetSysEx(dmf.ResetGM1)
	a[1] = 0
	b, _ := ResetSysEx(dmf.ResetGM1)
	if b[1] != 0x7E {
		t.Error("ResetSysEx() returned shared storage")
	}
}

func TestValidateSyx(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{"valid", []byte{0xF0, 0x7E, 0x7F, 0x09, 0x01, 0xF7}, false},
		{"too short", []byte{0xF0}, true},
		{"no start", []byte{0x00, 0x01, 0xF7}, true},
		{"no end", []byte{0xF0, 0x01, 0x02}, true},
		{"8-bit data", []byte{0xF0, 0x80, 0xF7}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSyx(tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSyx() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRolandChecksum(t *testing.T) {
	if got := rolandChecksum([]byte{0x40, 0x00, 0x7F, 0x00}); got != 0x41 {
		t.Errorf("rolandChecksum(GS reset) = 0x%02X, want 0x41", got)
	}
}

func TestDMFLoader(t *testing.T) {
	l := NewDMFLoader()
	desc, err := l.Describe(dmftest.Scenario())
	if err != nil {
		t.Fatal(err)
	}
	if desc != "1 tracks, timebase 48" {
		t.Errorf("Describe() = %q", desc)
	}
	if err := l.ValidateDMF([]byte("MThd")); err == nil {
		t.Error("ValidateDMF() accepted a MIDI header")
	}
}
