// Package config loads runtime settings from the environment, with command
// line flags taking precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the settings shared by the viewer and the command line tools.
type Config struct {
	Workers    int     `env:"ANIMGRAPH_WORKERS"`
	TickRate   float64 `env:"ANIMGRAPH_TICK_RATE"   envDefault:"60"`
	PrefabDir  string  `env:"ANIMGRAPH_PREFAB_DIR"  envDefault:"prefabs"`
	HotReload  bool    `env:"ANIMGRAPH_HOT_RELOAD"`
	Instances  int     `env:"ANIMGRAPH_INSTANCES"   envDefault:"1000"`
	Controller string  `env:"ANIMGRAPH_CONTROLLER"  envDefault:"hero"`
	Clips      string  `env:"ANIMGRAPH_CLIPS"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// ParseConfig reads the environment, then lets flags in args override it.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "animator worker goroutines (0 = GOMAXPROCS)")
	fs.Float64Var(&cfg.TickRate, "tick-rate", cfg.TickRate, "simulation ticks per second")
	fs.StringVar(&cfg.PrefabDir, "prefabs", cfg.PrefabDir, "directory checked for controllers before the embedded copies")
	fs.BoolVar(&cfg.HotReload, "hot-reload", cfg.HotReload, "watch the prefab directory and reload edited controllers")
	fs.IntVar(&cfg.Instances, "instances", cfg.Instances, "number of animated instances")
	fs.StringVar(&cfg.Controller, "controller", cfg.Controller, "controller prefab to instantiate")
	fs.StringVar(&cfg.Clips, "clips", cfg.Clips, "clip set under <prefabs>/clips overriding authored clip lengths")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings no tool can run with.
func (c Config) Validate() error {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tick rate must be positive, got %v", c.TickRate))
	}
	if c.Instances < 0 {
		errs = append(errs, fmt.Errorf("instances must not be negative, got %d", c.Instances))
	}
	if c.Controller == "" {
		errs = append(errs, errors.New("controller is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// DeltaTime is the fixed step, in seconds, of one tick.
func (c Config) DeltaTime() float64 {
	return 1 / c.TickRate
}

// TickInterval is DeltaTime as a duration.
func (c Config) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.TickRate)
}
