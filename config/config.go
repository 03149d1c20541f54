// Package config persists host-side settings for the sequencer core: which
// MIDI ports to open by default and the debug-log toggle. The project
// itself (tempo, tracks, patterns) is never stored here — it lives in the
// versioned binary stream handled by package serialize.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// PortConfig names a MIDI port this host should auto-connect on startup.
type PortConfig struct {
	Name        string `json:"name"`
	AutoConnect bool   `json:"autoConnect"`
}

// Config is the main host configuration structure.
type Config struct {
	InputPorts  []PortConfig `json:"inputPorts,omitempty"`
	OutputPorts []PortConfig `json:"outputPorts,omitempty"`

	// OutputDivisor and SwingPercent seed a fresh clock.Clock's output
	// stage (see clock.Clock.OutputConfigure and OutputConfigureSwing)
	// before a project is loaded.
	OutputDivisor int `json:"outputDivisor,omitempty"`
	SwingPercent  int `json:"swingPercent,omitempty"`

	DebugLog bool `json:"debugLog,omitempty"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		OutputDivisor: 24,
		SwingPercent:  50,
	}
}

// ConfigDir returns the config directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "seqcore"), nil
}

// ConfigPath returns the full path to config.json.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found.
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

// Save writes the config to disk.
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

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

// AutoConnectInputs returns input ports flagged for auto-connect.
func (c *Config) AutoConnectInputs() []string {
	var names []string
	for _, p := range c.InputPorts {
		if p.AutoConnect {
			names = append(names, p.Name)
		}
	}
	return names
}

// AutoConnectOutputs returns output ports flagged for auto-connect.
func (c *Config) AutoConnectOutputs() []string {
	var names []string
	for _, p := range c.OutputPorts {
		if p.AutoConnect {
			names = append(names, p.Name)
		}
	}
	return names
}
