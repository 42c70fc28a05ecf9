// Package dmf decodes DMF sequence data into a timed event log.
//
// A DMF file holds one opcode stream per track. An Engine interprets the
// opcode dialect of one game; the Scheduler drives all tracks tick by tick
// and the resulting events end up in a Sink, ready to be written as a
// Standard MIDI File.
package dmf

// Engine interprets the opcode dialect of one title.
type Engine interface {
	// Name returns a human readable engine name.
	Name() string
	// Initialize locates the track streams and positions every track's
	// cursor. It returns false when there is nothing to convert.
	Initialize(song *Song) (bool, error)
	// ProcessEvent executes exactly one opcode of the given track.
	ProcessEvent(song *Song, track int) error
}
