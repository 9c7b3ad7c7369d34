// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all addrbook configuration.
type Config struct {
	Book      Book      `yaml:"book"`
	Birthdays Birthdays `yaml:"birthdays"`
	UI        UI        `yaml:"ui"`
	Log       Log       `yaml:"log"`
}

// Book holds contact file settings.
type Book struct {
	Path     string `yaml:"path"`     // JSON file holding the contacts
	Autosave bool   `yaml:"autosave"` // Save after every successful mutation
}

// Birthdays holds upcoming-birthday window settings.
type Birthdays struct {
	Days     int  `yaml:"days"`      // Default window length in days
	WrapYear bool `yaml:"wrap_year"` // Roll passed birthdays over to next year
}

// UI holds interactive shell settings.
type UI struct {
	Plain bool `yaml:"plain"` // Line-based menu even on a TTY
}

// Log holds logger settings.
type Log struct {
	Level string `yaml:"level"` // "debug" | "info" | "warn" | "error"
	File  string `yaml:"file"`  // Empty means stderr
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Book: Book{
			Path:     "usersbook.json",
			Autosave: true,
		},
		Birthdays: Birthdays{
			Days: 7,
		},
		Log: Log{
			Level: "warn",
		},
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return &cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Book.Path == "" {
		return errors.New("config: book.path cannot be empty")
	}
	if c.Birthdays.Days < 0 {
		return fmt.Errorf("config: birthdays.days must be non-negative, got %d", c.Birthdays.Days)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("config: log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: ADDRBOOK_PATH, ADDRBOOK_BIRTHDAY_DAYS, ADDRBOOK_LOG_LEVEL.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("ADDRBOOK_PATH"); v != "" {
		c.Book.Path = v
	}
	if v := os.Getenv("ADDRBOOK_BIRTHDAY_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid ADDRBOOK_BIRTHDAY_DAYS %q: %w", v, err)
		}
		c.Birthdays.Days = n
	}
	if v := os.Getenv("ADDRBOOK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Book      *rawBook      `yaml:"book"`
	Birthdays *rawBirthdays `yaml:"birthdays"`
	UI        *rawUI        `yaml:"ui"`
	Log       *rawLog       `yaml:"log"`
}

type rawBook struct {
	Path     *string `yaml:"path"`
	Autosave *bool   `yaml:"autosave"`
}

type rawBirthdays struct {
	Days     *int  `yaml:"days"`
	WrapYear *bool `yaml:"wrap_year"`
}

type rawUI struct {
	Plain *bool `yaml:"plain"`
}

type rawLog struct {
	Level *string `yaml:"level"`
	File  *string `yaml:"file"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if layer.Book != nil {
		if layer.Book.Path != nil {
			c.Book.Path = *layer.Book.Path
		}
		if layer.Book.Autosave != nil {
			c.Book.Autosave = *layer.Book.Autosave
		}
	}
	if layer.Birthdays != nil {
		if layer.Birthdays.Days != nil {
			c.Birthdays.Days = *layer.Birthdays.Days
		}
		if layer.Birthdays.WrapYear != nil {
			c.Birthdays.WrapYear = *layer.Birthdays.WrapYear
		}
	}
	if layer.UI != nil {
		if layer.UI.Plain != nil {
			c.UI.Plain = *layer.UI.Plain
		}
	}
	if layer.Log != nil {
		if layer.Log.Level != nil {
			c.Log.Level = *layer.Log.Level
		}
		if layer.Log.File != nil {
			c.Log.File = *layer.Log.File
		}
	}
}
