package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds commandctl configuration.
type Config struct {
	TickRate  time.Duration `yaml:"tick_rate"`  // Scheduler tick period (default 20ms)
	Ticks     int           `yaml:"ticks"`      // Ticks to run before exiting, 0 runs until interrupted
	LogLevel  string        `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string        `yaml:"log_format"` // text, json
	Trace     bool          `yaml:"trace"`      // Emit OpenTelemetry spans for scheduler steps
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		TickRate:  20 * time.Millisecond,
		Ticks:     250,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	config, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return config, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, err
	}
	config.normalize()
	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (config *Config) normalize() {
	config.LogLevel = strings.ToLower(strings.TrimSpace(config.LogLevel))
	config.LogFormat = strings.ToLower(strings.TrimSpace(config.LogFormat))
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
}

func (config Config) validate() error {
	if config.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive, got %s", config.TickRate)
	}
	if config.Ticks < 0 {
		return fmt.Errorf("ticks must not be negative, got %d", config.Ticks)
	}
	switch config.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", config.LogFormat)
	}
	return nil
}
