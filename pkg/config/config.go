// Package config loads the user's conversion defaults
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/james-see/dmf2midi/pkg/dmf"
	"github.com/james-see/dmf2midi/pkg/dmf/engines"
	"github.com/james-see/dmf2midi/pkg/mml"
)

// MMLConfig stores MIDI to MML preferences
type MMLConfig struct {
	Dots          int  `json:"dots"`
	OctaveReverse bool `json:"octaveReverse,omitempty"`
	UseTriplet    bool `json:"useTriplet,omitempty"`
}

// ServerConfig stores API server preferences
type ServerConfig struct {
	Port int `json:"port,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Game         string       `json:"game"`
	MaxTicks     int          `json:"maxTicks"`
	Loop         int          `json:"loop"`
	Reset        string       `json:"reset"`
	LinearVolume bool         `json:"linearVolume,omitempty"`
	MML          MMLConfig    `json:"mml"`
	Server       ServerConfig `json:"server,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Game:     engines.HokutoID,
		MaxTicks: dmf.DefaultMaxTicks,
		Loop:     1,
		Reset:    string(dmf.ResetGS),
		MML:      MMLConfig{Dots: 1},
		Server:   ServerConfig{Port: 8080},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "dmf2midi"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default location, or returns defaults if
// not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. A missing file yields the defaults;
// fields absent from the file keep their default values.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the default location
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the values a user may have edited by hand
func (c *Config) Validate() error {
	if _, err := engines.New(c.Game); err != nil {
		return err
	}
	if _, err := dmf.ParseResetKind(c.Reset); err != nil {
		return err
	}
	if c.MaxTicks < 0 || int64(c.MaxTicks) > dmf.MaxTickLimit {
		return fmt.Errorf("maxTicks must be between 0 and %d, got %d", uint32(dmf.MaxTickLimit), c.MaxTicks)
	}
	if c.Loop < 0 {
		return fmt.Errorf("loop must not be negative, got %d", c.Loop)
	}
	if c.MML.Dots < 0 {
		return fmt.Errorf("mml.dots must not be negative, got %d", c.MML.Dots)
	}
	return nil
}

// DMFOptions returns the decoding options described by the config
func (c *Config) DMFOptions() dmf.Options {
	reset, err := dmf.ParseResetKind(c.Reset)
	if err != nil {
		reset = dmf.ResetGS
	}
	return dmf.Options{
		MaxTicks:     c.MaxTicks,
		LoopCount:    c.Loop,
		LinearVolume: c.LinearVolume,
		Reset:        reset,
	}
}

// MMLOptions returns the MML options described by the config
func (c *Config) MMLOptions() mml.Options {
	return mml.Options{
		MaxDots:       c.MML.Dots,
		OctaveReverse: c.MML.OctaveReverse,
		UseTriplet:    c.MML.UseTriplet,
	}
}
