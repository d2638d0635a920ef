// Package config defines the runtime settings of the calculator keypad.
// Settings are stored as YAML on the flash filesystem; anything missing from
// the file keeps its default.
package config

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the settings format version.
// Bump this when making breaking changes to the settings layout.
// When firmware boots and finds a different version in flash, the settings file is discarded.
const CurrentVersion = 1

var (
	ErrVersionMismatch = errors.New("settings version mismatch")
	ErrInvalid         = errors.New("invalid settings")
)

// Duration is a time.Duration written in YAML as a string such as "10s".
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(v)
	return nil
}

// Settings is the whole settings file.
type Settings struct {
	Version   int               `yaml:"version"`
	History   HistorySettings   `yaml:"history"`
	Keypad    KeypadSettings    `yaml:"keypad"`
	Scheduler SchedulerSettings `yaml:"scheduler"`
	Display   DisplaySettings   `yaml:"display"`
}

type HistorySettings struct {
	Capacity   int      `yaml:"capacity"`
	Path       string   `yaml:"path"`
	FlushDelay Duration `yaml:"flush_delay"`
}

type KeypadSettings struct {
	LongPress    Duration `yaml:"long_press"`
	ScanInterval Duration `yaml:"scan_interval"`
	Tick         Duration `yaml:"tick"`
	StartLocked  bool     `yaml:"start_locked"`
}

type SchedulerSettings struct {
	Slots int `yaml:"slots"`
}

type DisplaySettings struct {
	MessageTimeout Duration `yaml:"message_timeout"`
	ErrorTimeout   Duration `yaml:"error_timeout"`
	Width          int16    `yaml:"width"`
	Height         int16    `yaml:"height"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Version: CurrentVersion,
		History: HistorySettings{
			Capacity:   10,
			Path:       "/data/history.txt",
			FlushDelay: Duration(10 * time.Second),
		},
		Keypad: KeypadSettings{
			LongPress:    Duration(time.Second),
			ScanInterval: Duration(5 * time.Millisecond),
			Tick:         Duration(time.Second),
			StartLocked:  true,
		},
		Scheduler: SchedulerSettings{
			Slots: 4,
		},
		Display: DisplaySettings{
			MessageTimeout: Duration(5 * time.Second),
			ErrorTimeout:   Duration(8 * time.Second),
			Width:          284,
			Height:         76,
		},
	}
}

// Parse decodes YAML over the defaults and validates the result.
// A missing version is taken as the current one.
func Parse(data []byte) (Settings, error) {
	s := Default()
	s.Version = 0
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if s.Version == 0 {
		s.Version = CurrentVersion
	}
	if s.Version != CurrentVersion {
		return Settings{}, fmt.Errorf("%w: file has %d, firmware has %d", ErrVersionMismatch, s.Version, CurrentVersion)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Load reads and parses settings from r.
func Load(r io.Reader) (Settings, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Settings{}, err
	}
	return Parse(data)
}

// Marshal encodes s as YAML with the current version.
func (s Settings) Marshal() ([]byte, error) {
	s.Version = CurrentVersion
	return yaml.Marshal(s)
}

// Validate checks value ranges. It does not modify s.
func (s *Settings) Validate() error {
	if s.History.Capacity < 1 || s.History.Capacity > 1000 {
		return fmt.Errorf("%w: history.capacity %d out of range 1..1000", ErrInvalid, s.History.Capacity)
	}
	if s.History.Path == "" || s.History.Path[0] != '/' {
		return fmt.Errorf("%w: history.path %q must be absolute", ErrInvalid, s.History.Path)
	}
	if s.History.FlushDelay < 0 {
		return fmt.Errorf("%w: history.flush_delay must not be negative", ErrInvalid)
	}
	if s.Keypad.LongPress <= 0 {
		return fmt.Errorf("%w: keypad.long_press must be positive", ErrInvalid)
	}
	if s.Keypad.ScanInterval <= 0 {
		return fmt.Errorf("%w: keypad.scan_interval must be positive", ErrInvalid)
	}
	if s.Keypad.Tick <= 0 {
		return fmt.Errorf("%w: keypad.tick must be positive", ErrInvalid)
	}
	if s.Scheduler.Slots < 1 {
		return fmt.Errorf("%w: scheduler.slots must be at least 1", ErrInvalid)
	}
	if s.Display.MessageTimeout <= 0 || s.Display.ErrorTimeout <= 0 {
		return fmt.Errorf("%w: display timeouts must be positive", ErrInvalid)
	}
	if s.Display.Width <= 0 || s.Display.Height <= 0 {
		return fmt.Errorf("%w: display size %dx%d", ErrInvalid, s.Display.Width, s.Display.Height)
	}
	return nil
}
