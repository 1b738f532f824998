// Package config loads binding setup documents: which endpoints feed the
// page, how often to refresh, and any form action overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes one page's binding setup.
type Config struct {
	// BaseURL roots every endpoint fetch.
	BaseURL string `yaml:"base_url"`

	// RefreshInterval drives the auto-refresh timer. Zero disables it.
	RefreshInterval Duration `yaml:"refresh_interval"`

	// Endpoints maps data keys to backend paths; fetched payloads appear
	// under these keys in the combined data object.
	Endpoints map[string]string `yaml:"endpoints"`

	// Actions overrides form action routing.
	Actions map[string]Action `yaml:"actions"`
}

// Action routes one form action to an HTTP endpoint.
type Action struct {
	Method string `yaml:"method"`
	Path   string `yaml:"path"`
}

// Duration wraps time.Duration with YAML support for "30s" style values.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML config document and applies validation.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("config: base_url is required")
	}
	for key, path := range c.Endpoints {
		if key == "" || path == "" {
			return fmt.Errorf("config: endpoint entries need both key and path")
		}
	}
	for action, endpoint := range c.Actions {
		if action == "" || endpoint.Path == "" {
			return fmt.Errorf("config: action entries need both name and path")
		}
	}
	return nil
}
