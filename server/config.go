// File: server/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all server-side configuration parameters.
type Config struct {
	ListenAddr    string        `yaml:"listen_addr"`     // TCP bind address, e.g. ":9000"
	MaxMessageLen int           `yaml:"max_message_len"` // input buffer capacity per connection
	AllowUnmasked bool          `yaml:"allow_unmasked"`  // accept unmasked client frames
	PollTimeout   time.Duration `yaml:"poll_timeout"`    // upper bound of a single reactor wait
	MaxEvents     int           `yaml:"max_events"`      // readiness events handled per wait
	Backlog       int           `yaml:"backlog"`         // listen(2) backlog
	Debug         bool          `yaml:"debug"`           // log connect/close of every session
	PinCPU        int           `yaml:"pin_cpu"`         // pin the event loop thread; -1 disables
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:    ":9000",
		MaxMessageLen: 64 * 1024,
		PollTimeout:   100 * time.Millisecond,
		MaxEvents:     128,
		Backlog:       128,
		PinCPU:        -1,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.ListenAddr == "":
		return fmt.Errorf("config: listen_addr is empty")
	case c.MaxMessageLen <= 0:
		return fmt.Errorf("config: max_message_len must be positive, got %d", c.MaxMessageLen)
	case c.PollTimeout <= 0:
		return fmt.Errorf("config: poll_timeout must be positive, got %v", c.PollTimeout)
	case c.MaxEvents <= 0:
		return fmt.Errorf("config: max_events must be positive, got %d", c.MaxEvents)
	case c.Backlog <= 0:
		return fmt.Errorf("config: backlog must be positive, got %d", c.Backlog)
	case c.PinCPU < -1:
		return fmt.Errorf("config: pin_cpu must be -1 or a CPU index, got %d", c.PinCPU)
	}
	return nil
}

// ParseConfig decodes YAML on top of DefaultConfig.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}
