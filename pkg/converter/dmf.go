package converter

import (
	"fmt"
	"os"

	"github.com/james-see/dmf2midi/pkg/dmf"
)

// DMFLoader reads DMF sequence files
type DMFLoader struct{}

// NewDMFLoader creates a new DMF loader
func NewDMFLoader() *DMFLoader {
	return &DMFLoader{}
}

// LoadDMFFile reads a whole DMF file into memory and checks its signature
func (l *DMFLoader) LoadDMFFile(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, dmf.IOError(err, fmt.Sprintf("failed to read %s", filename))
	}
	if err := l.ValidateDMF(data); err != nil {
		return nil, err
	}
	return data, nil
}

// ValidateDMF validates the DMF header
func (l *DMFLoader) ValidateDMF(data []byte) error {
	_, err := dmf.ParseHeader(data)
	return err
}

// Describe returns a one line summary of a DMF header
func (l *DMFLoader) Describe(data []byte) (string, error) {
	h, err := dmf.ParseHeader(data)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d tracks, timebase %d", h.TrackCount, h.Timebase), nil
}
