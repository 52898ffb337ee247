package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultServer is the board API boardctl talks to when nothing else is configured.
	DefaultServer = "http://localhost:8081"
	// DefaultTimeout bounds every request to the board API.
	DefaultTimeout = 10 * time.Second
)

// Config represents the boardctl config.yml
type Config struct {
	Server  string        `yaml:"server"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
	NoColor bool          `yaml:"no_color,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server:  DefaultServer,
		Timeout: DefaultTimeout,
	}
}

// DefaultPath returns ~/.config/boardctl/config.yml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "boardctl", "config.yml")
	}
	return filepath.Join(home, ".config", "boardctl", "config.yml")
}

// Validate performs strict validation on the configuration
func (c *Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server is required")
	}

	u, err := url.Parse(c.Server)
	if err != nil {
		return fmt.Errorf("invalid server url %q: %w", c.Server, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server url %q: scheme must be http or https", c.Server)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid server url %q: missing host", c.Server)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %s", c.Timeout)
	}

	return nil
}

// Load reads the config at path. A missing file yields the defaults; unset
// fields in an existing file fall back to their defaults.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if config.Server == "" {
		config.Server = DefaultServer
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}
