package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// TimeoutConfig overrides the engine's wait deadlines, in milliseconds.
// Zero means "use the built-in default".
type TimeoutConfig struct {
	HandshakeMs int `json:"handshakeMs,omitempty"`
	ReadMs      int `json:"readMs,omitempty"`
	Page0AckMs  int `json:"page0AckMs,omitempty"`
	Page3AckMs  int `json:"page3AckMs,omitempty"`
	EchoMs      int `json:"echoMs,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	// MIDIPortName and DAWPortName override port discovery; empty means
	// scan for the usual LCXL3 names.
	MIDIPortName string        `json:"midiPortName,omitempty"`
	DAWPortName  string        `json:"dawPortName,omitempty"`
	Timeouts     TimeoutConfig `json:"timeouts,omitempty"`
	Debug        bool          `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{}
}

// Duration converts a millisecond override into a time.Duration, zero when
// unset.
func Duration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "lcxl3"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
