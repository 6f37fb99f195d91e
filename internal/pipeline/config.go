package pipeline

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"

	"sable/internal/borrow"
	"sable/internal/opt"
)

// Config drives a pipeline run. It is the deserialized form of the
// optional sable.toml next to the input.
type Config struct {
	Check CheckConfig `toml:"check"`
	Opt   OptConfig   `toml:"opt"`

	// Jobs caps concurrent per-function workers; 0 means one worker
	// per CPU.
	Jobs int `toml:"jobs"`
}

// CheckConfig selects the borrow checker's strictness.
type CheckConfig struct {
	Mode string `toml:"mode"` // "strict" or "permissive"
}

// OptConfig controls the optimizer.
type OptConfig struct {
	Enabled   bool `toml:"enabled"`
	MaxRounds int  `toml:"max-rounds"`
}

// DefaultConfig returns the configuration used when no file is given:
// strict checking, optimizations on.
func DefaultConfig() *Config {
	return &Config{
		Check: CheckConfig{Mode: "strict"},
		Opt:   OptConfig{Enabled: true, MaxRounds: opt.DefaultMaxRounds},
	}
}

// LoadConfig reads and validates a TOML configuration file. Absent
// keys keep their defaults.
func LoadConfig(path string) (*Config, error) {
	buff, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(buff, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Check.Mode {
	case "strict", "permissive":
	default:
		return fmt.Errorf("unknown check mode %q", c.Check.Mode)
	}
	if c.Opt.MaxRounds < 0 {
		return fmt.Errorf("opt.max-rounds must not be negative")
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative")
	}
	return nil
}

// Mode maps the configured mode string onto the checker's type.
func (c *Config) Mode() borrow.Mode {
	if c.Check.Mode == "permissive" {
		return borrow.ModePermissive
	}
	return borrow.ModeStrict
}
