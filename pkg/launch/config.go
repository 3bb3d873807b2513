package launch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds launcher settings, typically loaded from a YAML file.
type Config struct {
	// Name labels the control system in logs and the console prompt.
	Name string `yaml:"name"`

	// LogFile is the path of the binary event log. Empty disables it.
	LogFile string `yaml:"log_file"`

	// LogLevel selects the slog mirror level: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Interactive enables the operator console on stdin.
	Interactive bool `yaml:"interactive"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		Name:     "strand",
		LogLevel: "info",
	}
}

// LoadConfig reads a YAML config file, applying defaults for absent keys.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
}
