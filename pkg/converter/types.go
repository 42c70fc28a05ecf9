// Package converter provides conversion from DMF sequences to Standard MIDI
// Files and from MIDI to MML text
package converter

import (
	"github.com/james-see/dmf2midi/pkg/dmf"
	"github.com/james-see/dmf2midi/pkg/dmf/engines"
	"github.com/james-see/dmf2midi/pkg/mml"
)

// ConversionResult holds the result of a conversion
type ConversionResult struct {
	Data     []byte
	Filename string
	Format   Format
	// Written is false when there was nothing to convert or the song was
	// malformed. No output file exists in that case.
	Written  bool
	Warnings []string
}

// Converter handles format conversions
type Converter struct {
	engineID string
	opts     dmf.Options
	mmlOpts  mml.Options
}

// New creates a new Converter for the given title engine
func New(engineID string, opts dmf.Options) *Converter {
	if engineID == "" {
		engineID = engines.HokutoID
	}
	return &Converter{
		engineID: engineID,
		opts:     opts,
		mmlOpts:  mml.DefaultOptions(),
	}
}

// GetEngine returns the current engine id
func (c *Converter) GetEngine() string {
	return c.engineID
}

// SetEngine sets the engine used for DMF input
func (c *Converter) SetEngine(id string) {
	c.engineID = id
}

// Options returns the DMF decoding options
func (c *Converter) Options() dmf.Options {
	return c.opts
}

// SetMMLOptions sets the options used for MML output
func (c *Converter) SetMMLOptions(opts mml.Options) {
	c.mmlOpts = opts
}
