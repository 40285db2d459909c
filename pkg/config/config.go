package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	xdgAppName = "taskboard"
	configFile = "config.json"

	DefaultCalendar        = "Tasks"
	DefaultStorage         = "file"
	DefaultPomodoroMinutes = 25
)

// Config is read from ~/.config/taskboard/config.json. Every field can be
// overridden by its TASKBOARD_* environment variable.
type Config struct {
	Calendar        string `json:"calendar" env:"TASKBOARD_CALENDAR"`
	Storage         string `json:"storage,omitempty" env:"TASKBOARD_STORAGE"`
	DSN             string `json:"dsn,omitempty" env:"TASKBOARD_DSN"`
	PomodoroMinutes int    `json:"pomodoro_minutes,omitempty" env:"TASKBOARD_POMODORO_MINUTES"`
}

// GetDir returns the directory holding config, tokens and local task data.
func GetDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := GetDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config file, applies environment overrides and fills in
// defaults. A missing file is not an error.
func Load() (*Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.fillDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile returns only what the config file holds, so it can be edited and
// saved back without baking in overrides or defaults.
func LoadFile() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any TASKBOARD_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) fillDefaults() error {
	if c.Calendar == "" {
		c.Calendar = DefaultCalendar
	}
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	if c.Storage == "" {
		c.Storage = DefaultStorage
	}
	if c.PomodoroMinutes <= 0 {
		c.PomodoroMinutes = DefaultPomodoroMinutes
	}
	if c.DSN != "" {
		return nil
	}
	switch c.Storage {
	case "file", "sqlite":
		dir, err := GetDir()
		if err != nil {
			return err
		}
		name := "tasks.json"
		if c.Storage == "sqlite" {
			name = "tasks.db"
		}
		c.DSN = filepath.Join(dir, name)
	case "mysql":
		return fmt.Errorf("storage %q needs TASKBOARD_DSN", c.Storage)
	}
	return nil
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
