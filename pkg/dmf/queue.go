package dmf

// PendingNote is a note-on computed during a tick whose emission is deferred
// until every track has been processed for that tick.
type PendingNote struct {
	Track    int
	Channel  uint8
	Key      uint8
	Velocity uint8 // raw, transformed when emitted
}

// NoteQueue is a FIFO of pending note-ons.
type NoteQueue struct {
	items []PendingNote
}

// Push appends a note at the back of the queue.
func (q *NoteQueue) Push(n PendingNote) {
	q.items = append(q.items, n)
}

// Len returns the number of queued notes.
func (q *NoteQueue) Len() int {
	return len(q.items)
}

// Drain calls fn for every queued note in insertion order and empties the
// queue.
func (q *NoteQueue) Drain(fn func(PendingNote)) {
	for _, n := range q.items {
		fn(n)
	}
	q.items = q.items[:0]
}
