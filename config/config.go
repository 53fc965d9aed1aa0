package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mfroeh/redoscheck/detector"
	"github.com/mfroeh/redoscheck/regex"
)

// DefaultMaxBacktracks reports a pattern unsafe as soon as a single trail is found.
const DefaultMaxBacktracks = 0

var ErrInvalidConfig = errors.New("invalid config")

// Budget bounds the work spent on a single pattern.
type Budget struct {
	MaxSteps int           `yaml:"max_steps"`
	Timeout  time.Duration `yaml:"timeout"`
	MaxStack int           `yaml:"max_stack"`
	// MaxBacktracks is the largest score a pattern may have and still be reported safe.
	MaxBacktracks int `yaml:"max_backtracks"`
}

type Config struct {
	Flags  regex.Flags `yaml:"flags"`
	Budget Budget      `yaml:"budget"`
	// Downgrade rewrites backreferences the detector can't follow before checking.
	Downgrade bool       `yaml:"downgrade"`
	LogLevel  slog.Level `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Budget: Budget{
			MaxSteps:      detector.DefaultMaxSteps,
			Timeout:       detector.DefaultTimeout,
			MaxStack:      detector.DefaultMaxStack,
			MaxBacktracks: DefaultMaxBacktracks,
		},
		Downgrade: true,
		LogLevel:  slog.LevelInfo,
	}
}

// Load reads a YAML file on top of the defaults. Keys missing from the file keep their default.
func Load(path string) (Config, error) {
	cfg := Default()
	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Budget.MaxSteps <= 0:
		return fmt.Errorf("%w: max_steps must be positive, got %d", ErrInvalidConfig, c.Budget.MaxSteps)
	case c.Budget.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidConfig, c.Budget.Timeout)
	case c.Budget.MaxStack <= 0:
		return fmt.Errorf("%w: max_stack must be positive, got %d", ErrInvalidConfig, c.Budget.MaxStack)
	case c.Budget.MaxBacktracks < 0:
		return fmt.Errorf("%w: max_backtracks can't be negative, got %d", ErrInvalidConfig, c.Budget.MaxBacktracks)
	}
	return nil
}

// Options turns the budget into detector options.
func (c Config) Options(logger *slog.Logger) detector.Options {
	return detector.Options{
		MaxSteps: c.Budget.MaxSteps,
		Timeout:  c.Budget.Timeout,
		MaxStack: c.Budget.MaxStack,
		Logger:   logger,
	}
}
