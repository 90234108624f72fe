// Package cmd contains the parts shared by the wavebank commands:
// configuration, logging and the MIDI driver selection.
package cmd

import (
	"bytes"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type (
	// Config holds the settings of the commands. The defaults are embedded;
	// a config.yml in the user config directory overrides them and command
	// line flags override both.
	Config struct {
		Bank    BankConfig
		History HistoryConfig
		Audio   AudioConfig
		Preview PreviewConfig
		MIDI    MIDIConfig `yaml:"midi"`
		Log     LogConfig

		// YmlError is the error encountered while reading the user config
		// file, if any. The defaults are used in that case.
		YmlError error `yaml:"-"`
	}

	BankConfig struct {
		Width  int
		Height int
	}

	HistoryConfig struct {
		MaxUndo  int
		Recovery bool
	}

	AudioConfig struct {
		SampleRate int
	}

	PreviewConfig struct {
		Frequency float64
		Volume    float64
	}

	MIDIConfig struct {
		Input string // prefix of the name of the MIDI input to open; empty for none
	}

	LogConfig struct {
		Level       string
		Development bool
	}
)

//go:embed config.yml
var defaultConfigYaml []byte

func loadDefaultConfig() Config {
	var config Config
	if err := unmarshalStrict(defaultConfigYaml, &config); err != nil {
		panic(fmt.Errorf("failed to unmarshal default config: %w", err))
	}
	return config
}

func unmarshalStrict(data []byte, target any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(target)
}

// ReadCustomConfigYml modifies the target argument, i.e. needs a pointer
func ReadCustomConfigYml(filename string, target any) (exists bool, err error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return false, err
	}
	path := filepath.Join(configDir, "wavebank", filename)
	bytes, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return true, unmarshalStrict(bytes, target)
}

// MakeConfig returns the default config, overridden by the user config file
// if it exists.
func MakeConfig() Config {
	config := loadDefaultConfig()
	exists, err := ReadCustomConfigYml("config.yml", &config)
	if exists && err != nil {
		config = loadDefaultConfig()
		config.YmlError = fmt.Errorf("could not read user config: %w", err)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		config.YmlError = err
	}
	return config
}

// RegisterFlags binds command line flags to the config, with the current
// values as the defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Bank.Width, "width", c.Bank.Width, "Width of new banks, in waves.")
	fs.IntVar(&c.Bank.Height, "height", c.Bank.Height, "Height of new banks, in waves.")
	fs.IntVar(&c.History.MaxUndo, "undo", c.History.MaxUndo, "Maximum number of undo steps.")
	fs.IntVar(&c.Audio.SampleRate, "rate", c.Audio.SampleRate, "Audio sample rate.")
	fs.Float64Var(&c.Preview.Frequency, "freq", c.Preview.Frequency, "Preview frequency in Hz.")
	fs.Float64Var(&c.Preview.Volume, "vol", c.Preview.Volume, "Preview volume in dB.")
	fs.StringVar(&c.MIDI.Input, "midi", c.MIDI.Input, "Open the first MIDI input whose name starts with this prefix.")
	fs.StringVar(&c.Log.Level, "log", c.Log.Level, "Log level: debug, info, warn or error.")
	fs.BoolVar(&c.Log.Development, "dev", c.Log.Development, "Use the human readable development logger.")
}

// Validate checks the values that the commands cannot clamp themselves.
func (c *Config) Validate() error {
	if c.Bank.Width < 1 || c.Bank.Height < 1 {
		return fmt.Errorf("invalid bank size %dx%d", c.Bank.Width, c.Bank.Height)
	}
	if c.Audio.SampleRate < 1 {
		return fmt.Errorf("invalid sample rate %d", c.Audio.SampleRate)
	}
	if c.History.MaxUndo < 1 {
		return fmt.Errorf("invalid undo depth %d", c.History.MaxUndo)
	}
	return nil
}

// RecoveryFilePath returns the path of the recovery file in the user config
// directory, or an empty string if recovery is disabled or the directory is
// not known.
func (c *Config) RecoveryFilePath() string {
	if !c.History.Recovery {
		return ""
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "wavebank", "recovery.yml")
}
