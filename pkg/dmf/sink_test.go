package dmf

import (
	"testing"
)

func TestSinkRequiresCreatedTrack(t *testing.T) {
	s := NewSink(2)
	if err := s.Append(0, 0, NoteOff{}); err == nil {
		t.Error("Append() to uncreated track should fail")
	}
	if err := s.CreateTrack(2); err == nil {
		t.Error("CreateTrack() out of range should fail")
	}
	if err := s.CreateTrack(1); err != nil {
		t.Fatalf("CreateTrack(1) error = %v", err)
	}
	if err := s.Append(1, 0, NoteOff{}); err != nil {
		t.Errorf("Append() error = %v", err)
	}
}

func TestSinkTrackOrdering(t *testing.T) {
	s := NewSink(2)
	_ = s.CreateTrack(0)
	_ = s.CreateTrack(1)

	_ = s.Append(0, 5, NoteOn{Key: 1})
	_ = s.Append(1, 0, NoteOn{Key: 2})
	_ = s.Append(0, 2, NoteOn{Key: 3})
	_ = s.Append(0, 5, NoteOff{Key: 4})

	evs := s.Track(0)
	if len(evs) != 3 {
		t.Fatalf("Track(0) has %d events, want 3", len(evs))
	}
	wantTicks := []uint64{2, 5, 5}
	for i, ev := range evs {
		if ev.Tick != wantTicks[i] {
			t.Errorf("event %d tick = %d, want %d", i, ev.Tick, wantTicks[i])
		}
	}
	// same tick keeps emission order
	if _, ok := evs[1].Payload.(NoteOn); !ok {
		t.Errorf("event 1 = %T, want NoteOn", evs[1].Payload)
	}
	if _, ok := evs[2].Payload.(NoteOff); !ok {
		t.Errorf("event 2 = %T, want NoteOff", evs[2].Payload)
	}

	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
	all := s.Events()
	if all[1].Track != 1 {
		t.Errorf("Events()[1].Track = %d, want 1 (emission order)", all[1].Track)
	}
}

func TestNoteQueueFIFO(t *testing.T) {
	var q NoteQueue
	for k := uint8(60); k < 64; k++ {
		q.Push(PendingNote{Key: k})
	}

	var got []uint8
	q.Drain(func(n PendingNote) { got = append(got, n.Key) })

	want := []uint8{60, 61, 62, 63}
	if len(got) != len(want) {
		t.Fatalf("drained %d notes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("note %d = %d, want %d", i, got[i], want[i])
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len() after Drain = %d, want 0", q.Len())
	}
}

func TestOptionsLevel(t *testing.T) {
	tests := []struct {
		name   string
		linear bool
		raw    uint8
		want   uint8
	}{
		{"exact", false, 100, 100},
		{"exact clamps", false, 200, 127},
		{"linear zero", true, 0, 0},
		{"linear full", true, 127, 127},
		{"linear mid", true, 100, 113},
		{"linear clamps", true, 255, 127},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Options{LinearVolume: tt.linear}
			if got := o.Level(tt.raw); got != tt.want {
				t.Errorf("Level(%d) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseResetKind(t *testing.T) {
	for _, in := range []string{"gs", "GM1", " xg ", "gm2", ""} {
		if _, err := ParseResetKind(in); err != nil {
			t.Errorf("ParseResetKind(%q) error = %v", in, err)
		}
	}
	if _, err := ParseResetKind("mt32"); err == nil {
		t.Error("ParseResetKind(mt32) should fail")
	}
}
