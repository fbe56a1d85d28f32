package handling

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lifecycle-kit/kernel/observability"
)

// Config makes a dispatcher's default-mutability conventions explicit
// instead of baking them into the type.
type Config struct {
	// Enabled is the initial value of the dispatcher's own handling cell,
	// the one an outer dispatcher consults when this one is nested.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// EnabledMutable controls whether SetActive may change that cell.
	EnabledMutable bool `json:"enabled_mutable" yaml:"enabled_mutable"`

	// FallbackEnabled decides how members that expose no cell map at all
	// are treated when a cycle checks enablement.
	FallbackEnabled bool `json:"fallback_enabled" yaml:"fallback_enabled"`

	// Observer names an observer registered with the observability
	// package. Empty and unknown names fall back to "noop".
	Observer string `json:"observer,omitempty" yaml:"observer,omitempty"`
}

// DefaultConfig returns the conventions the dispatcher family was designed
// around: enabled, toggleable, fallback enabled, no observation.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		EnabledMutable:  true,
		FallbackEnabled: true,
		Observer:        "noop",
	}
}

// LoadConfig reads a JSON or YAML config file over the defaults; fields the
// file omits keep their default values. The format is chosen by file
// extension, defaulting to JSON.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return &cfg, nil
}

// observer resolves the named observer, falling back to noop.
func (c Config) observer() observability.Observer {
	name := c.Observer
	if name == "" {
		name = "noop"
	}
	obs, err := observability.GetObserver(name)
	if err != nil {
		return observability.NoOpObserver{}
	}
	return obs
}
