package dmf

// TrackState holds the interpreter registers of one track. It is owned by the
// scheduler and only mutated by the engine while that track is processed.
type TrackState struct {
	Index       int
	Cursor      Cursor
	WaitCounter int
	NoteFlag    bool  // a note is sounding
	CurrentKey  uint8 // key of the sounding note
	completed   bool
}

// Completed reports whether the track reached its end.
func (t *TrackState) Completed() bool {
	return t.completed
}

// Complete marks the track finished. It cannot be undone.
func (t *TrackState) Complete() {
	t.completed = true
}

// Waiting reports whether the track is blocked on its wait counter.
func (t *TrackState) Waiting() bool {
	return !t.completed && t.WaitCounter > 0
}

// Channel returns the MIDI channel the track plays on.
func (t *TrackState) Channel() uint8 {
	return uint8(t.Index & 0x0F)
}
