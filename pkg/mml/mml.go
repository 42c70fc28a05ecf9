// Package mml renders note lists as Music Macro Language text
package mml

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Note is a single note in MIDI ticks.
type Note struct {
	Start    uint32
	Length   uint32
	Key      uint8
	Velocity uint8
}

// Track is one MML voice. Overlapping notes are cut so the voice stays
// monophonic.
type Track struct {
	Name  string
	Notes []Note
}

// Song is the input of Encode.
type Song struct {
	Resolution uint16 // ticks per quarter note
	Tempo      float64
	Tracks     []Track
}

// Options controls how lengths and octaves are written.
type Options struct {
	// MaxDots is the largest number of dots a length may carry.
	MaxDots int
	// OctaveReverse swaps the meaning of '<' and '>'.
	OctaveReverse bool
	// UseTriplet allows triplet lengths (3, 6, 12, ...).
	UseTriplet bool
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{MaxDots: 1}
}

var noteNames = [12]string{"c", "c+", "d", "d+", "e", "f", "f+", "g", "g+", "a", "a+", "b"}

// length is one writable MML length in grid units.
type length struct {
	units int
	text  string
}

// grid returns the number of units in a whole note and the lengths that can
// be written, longest first.
func (o Options) grid() (int, []length) {
	whole := 64
	divisors := []int{1, 2, 4, 8, 16, 32, 64}
	if o.UseTriplet {
		whole = 192
		divisors = []int{1, 2, 3, 4, 6, 8, 12, 16, 24, 32, 48, 64, 96, 192}
	}

	seen := make(map[int]bool)
	var table []length
	for _, d := range divisors {
		base := whole / d
		add := func(units int, text string) {
			if seen[units] {
				return
			}
			seen[units] = true
			table = append(table, length{units: units, text: text})
		}
		add(base, fmt.Sprint(d))
		units, part := base, base
		for dots := 1; dots <= o.MaxDots; dots++ {
			if part%2 != 0 {
				break
			}
			part /= 2
			units += part
			add(units, fmt.Sprint(d)+strings.Repeat(".", dots))
		}
	}
	sort.SliceStable(table, func(i, j int) bool { return table[i].units > table[j].units })
	return whole, table
}

// split writes units as tied lengths, longest first.
func split(units int, table []length) []string {
	var out []string
	for units > 0 {
		for _, l := range table {
			if l.units <= units {
				out = append(out, l.text)
				units -= l.units
				break
			}
		}
	}
	return out
}

// Lengths returns the MML lengths that add up to ticks at the given
// resolution. Ticks are rounded to the finest writable length.
func Lengths(ticks uint32, resolution uint16, opts Options) []string {
	whole, table := opts.grid()
	return split(toUnits(ticks, resolution, whole), table)
}

func toUnits(ticks uint32, resolution uint16, whole int) int {
	return int(math.Round(float64(ticks) * float64(whole) / (4 * float64(resolution))))
}

// Encode renders song as MML text, one block per track that has notes.
func Encode(song *Song, opts Options) ([]byte, error) {
	if song == nil {
		return nil, errors.New("nil song")
	}
	if song.Resolution == 0 {
		return nil, errors.New("zero resolution")
	}
	if opts.MaxDots < 0 {
		opts.MaxDots = 0
	}
	whole, table := opts.grid()

	var b strings.Builder
	b.WriteString("; converted by dmf2midi\n")
	tempoWritten := false
	for i, tr := range song.Tracks {
		if len(tr.Notes) == 0 {
			continue
		}
		b.WriteString("\n")
		if tr.Name != "" {
			fmt.Fprintf(&b, "; %s\n", tr.Name)
		}
		fmt.Fprintf(&b, "#%d ", i)
		if !tempoWritten && song.Tempo > 0 {
			fmt.Fprintf(&b, "t%d ", int(math.Round(song.Tempo)))
			tempoWritten = true
		}
		w := voiceWriter{b: &b, opts: opts, table: table, octave: -1, velocity: -1}
		w.write(tr.Notes, song.Resolution, whole)
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}

type voiceWriter struct {
	b        *strings.Builder
	opts     Options
	table    []length
	octave   int
	velocity int
	tokens   int
}

func (w *voiceWriter) token(s string) {
	if w.tokens > 0 {
		w.b.WriteByte(' ')
	}
	w.b.WriteString(s)
	w.tokens++
}

func (w *voiceWriter) write(notes []Note, resolution uint16, whole int) {
	notes = append([]Note(nil), notes...)
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].Start < notes[j].Start })

	pos := 0
	for i, n := range notes {
		start := toUnits(n.Start, resolution, whole)
		end := toUnits(n.Start+n.Length, resolution, whole)
		if i+1 < len(notes) {
			if next := toUnits(notes[i+1].Start, resolution, whole); next < end {
				end = next
			}
		}
		if start < pos {
			start = pos
		}
		if end <= start {
			continue
		}
		if start > pos {
			w.lengths("r", start-pos)
		}
		w.note(n)
		w.lengths(noteNames[n.Key%12], end-start)
		pos = end
	}
}

func (w *voiceWriter) note(n Note) {
	octave := int(n.Key)/12 - 1
	up, down := ">", "<"
	if w.opts.OctaveReverse {
		up, down = down, up
	}
	switch {
	case w.octave < 0 || abs(octave-w.octave) > 1:
		w.token(fmt.Sprintf("o%d", octave))
	case octave == w.octave+1:
		w.token(up)
	case octave == w.octave-1:
		w.token(down)
	}
	w.octave = octave

	if int(n.Velocity) != w.velocity {
		w.token(fmt.Sprintf("v%d", n.Velocity))
		w.velocity = int(n.Velocity)
	}
}

func (w *voiceWriter) lengths(name string, units int) {
	parts := split(units, w.table)
	w.token(name + strings.Join(parts, "&"))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
