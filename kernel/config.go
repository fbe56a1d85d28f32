package kernel

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lifecycle-kit/kernel/observability"
)

const defaultIntervalMillis = 100

// Config holds initialization parameters for the runtime loop.
type Config struct {
	// IntervalMillis is the pause between handle cycles.
	IntervalMillis int `json:"interval_millis,omitempty"`
	// MaxCycles bounds a Run; 0 runs until the context is cancelled.
	MaxCycles int `json:"max_cycles,omitempty"`
	// CheckEnabled is passed to every dispatcher's RunCycle.
	CheckEnabled bool `json:"check_enabled"`
	// Observer names an observer registered with the observability package.
	// Empty defaults to slog against the default logger.
	Observer string `json:"observer,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults: ten cycles a second,
// unbounded, enablement-checking, logging through slog.
func DefaultConfig() Config {
	return Config{
		IntervalMillis: defaultIntervalMillis,
		CheckEnabled:   true,
	}
}

// Merge applies non-zero values from source into c. CheckEnabled defaults to
// true, so it is merged only when source disables it.
func (c *Config) Merge(source *Config) {
	if source.IntervalMillis > 0 {
		c.IntervalMillis = source.IntervalMillis
	}
	if source.MaxCycles > 0 {
		c.MaxCycles = source.MaxCycles
	}
	if !source.CheckEnabled {
		c.CheckEnabled = false
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	loaded := DefaultConfig()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

func (c Config) interval() time.Duration {
	millis := c.IntervalMillis
	if millis <= 0 {
		millis = defaultIntervalMillis
	}
	return time.Duration(millis) * time.Millisecond
}

func (c Config) resolveObserver() (observability.Observer, error) {
	if c.Observer == "" {
		return nil, fmt.Errorf("no observer configured")
	}
	return observability.GetObserver(c.Observer)
}
