package converter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/james-see/dmf2midi/pkg/dmf"
	"github.com/james-see/dmf2midi/pkg/dmf/engines"
	"github.com/james-see/dmf2midi/pkg/mml"
)

// Format represents a file format
type Format string

const (
	FormatDMF     Format = "dmf"
	FormatMIDI    Format = "midi"
	FormatMML     Format = "mml"
	FormatUnknown Format = "unknown"
)

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".dmf":
		return FormatDMF
	case ".mid", ".midi":
		return FormatMIDI
	case ".txt", ".mml":
		return FormatMML
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}

	if dmf.HasSignature(data) {
		return FormatDMF
	}

	// Check for MIDI file signature "MThd"
	if string(data[:4]) == "MThd" {
		return FormatMIDI
	}

	return FormatUnknown
}

// OutputPath derives the output file name: the input without its extension
// plus the extension of the target format, next to the input.
func OutputPath(inputPath string, target Format) string {
	ext := ".mid"
	if target == FormatMML {
		ext = ".txt"
	}
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ext
}

// ConvertFile converts inputPath and writes the result to outputPath. An
// empty outputPath is derived with OutputPath.
//
// A malformed song or a song with nothing to convert is not an error: the
// result reports Written == false with a warning and no file is created.
func (c *Converter) ConvertFile(inputPath, outputPath string) (*ConversionResult, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, dmf.IOError(err, fmt.Sprintf("failed to read %s", inputPath))
	}

	inputFormat := DetectFormatFromContent(data)
	if inputFormat == FormatUnknown {
		inputFormat = DetectFormat(inputPath)
	}

	var res *ConversionResult
	switch inputFormat {
	case FormatDMF:
		res, err = c.DMFToMIDI(data)
	case FormatMIDI:
		res, err = c.MIDIToMML(data)
	default:
		// An unknown file is handed to the DMF loader so the user gets the
		// signature error.
		res, err = c.DMFToMIDI(data)
	}
	if err != nil {
		if dmf.IsSongError(err) {
			return &ConversionResult{
				Format:   inputFormat,
				Warnings: []string{err.Error()},
			}, nil
		}
		return nil, err
	}
	if res.Data == nil {
		return res, nil
	}

	if outputPath == "" {
		outputPath = OutputPath(inputPath, res.Format)
	}
	if err := WriteFileAtomic(outputPath, res.Data); err != nil {
		return nil, err
	}
	res.Filename = outputPath
	res.Written = true
	return res, nil
}

// DMFToMIDI decodes a DMF sequence and converts it into SMF data
func (c *Converter) DMFToMIDI(data []byte) (*ConversionResult, error) {
	engine, err := engines.New(c.engineID)
	if err != nil {
		return nil, err
	}

	decoded, err := dmf.Decode(data, engine, c.opts)
	if err != nil {
		return nil, err
	}

	res := &ConversionResult{Format: FormatMIDI, Warnings: decoded.Warnings}
	if !decoded.Playable {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: no playable song", engine.Name()))
		return res, nil
	}

	res.Data, err = NewMIDIConverter().GenerateMIDI(decoded)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// MIDIToMML converts SMF data into MML text
func (c *Converter) MIDIToMML(data []byte) (*ConversionResult, error) {
	song, err := NewMIDIConverter().ParseMIDI(data)
	if err != nil {
		return nil, err
	}
	text, err := mml.Encode(song, c.mmlOpts)
	if err != nil {
		return nil, err
	}
	return &ConversionResult{Data: text, Format: FormatMML}, nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so path never holds a partial file.
func WriteFileAtomic(path string, data []byte) error {
	if len(data) == 0 {
		return dmf.IOError(errors.New("refusing to write empty output"), path)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return dmf.IOError(err, fmt.Sprintf("failed to create output in %s", dir))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return dmf.IOError(err, fmt.Sprintf("failed to write %s", path))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return dmf.IOError(err, fmt.Sprintf("failed to write %s", path))
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return dmf.IOError(err, fmt.Sprintf("failed to write %s", path))
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return dmf.IOError(err, fmt.Sprintf("failed to write %s", path))
	}
	return nil
}

// GetSupportedConversions returns a list of supported conversion paths
func GetSupportedConversions() []string {
	return []string{
		"dmf -> midi",
		"midi -> mml",
	}
}
