// Package config loads the YAML service configuration.
package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// WindowConfig holds the forward generation windows, in days, per entity kind.
type WindowConfig struct {
	MedicationDays int `yaml:"medication_days" json:"medication_days"`
	SupplementDays int `yaml:"supplement_days" json:"supplement_days"`
	ReminderDays   int `yaml:"reminder_days" json:"reminder_days"`
}

// Config is the top-level service configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// DataDir is the directory for the SQLite database.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// Windows controls how far forward each entity kind generates events.
	Windows WindowConfig `yaml:"windows" json:"windows"`

	// GraceMinutes is how long a pending dose may run late before the
	// sweep marks it missed.
	GraceMinutes int `yaml:"grace_minutes" json:"grace_minutes"`

	// PostponeMinutes is the default reschedule offset for postponed doses.
	PostponeMinutes int `yaml:"postpone_minutes" json:"postpone_minutes"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:  ":8091",
		DataDir: "/data",
		Windows: WindowConfig{
			MedicationDays: 90,
			SupplementDays: 90,
			ReminderDays:   7,
		},
		GraceMinutes:    60,
		PostponeMinutes: 30,
	}
}

// Normalize fills in missing/zero values with defaults so partially-filled
// configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.Windows.MedicationDays <= 0 {
		c.Windows.MedicationDays = def.Windows.MedicationDays
	}
	if c.Windows.SupplementDays <= 0 {
		c.Windows.SupplementDays = def.Windows.SupplementDays
	}
	if c.Windows.ReminderDays <= 0 {
		c.Windows.ReminderDays = def.Windows.ReminderDays
	}
	if c.GraceMinutes <= 0 {
		c.GraceMinutes = def.GraceMinutes
	}
	if c.PostponeMinutes <= 0 {
		c.PostponeMinutes = def.PostponeMinutes
	}
}

// Load loads configuration from the given YAML path. A missing file yields
// the defaults; a malformed file is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}
