// Package config loads and persists NAR configuration from TOML files,
// environment variables, and defaults, with live reload on file change.
package config

import (
	"github.com/noeta/NAR/nal/effect"
	"github.com/noeta/NAR/nal/engine"
)

// Config is the root NAR configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Effects  EffectsConfig  `mapstructure:"effects"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig configures belief snapshot persistence.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// EngineConfig tunes the reasoning loop. Zero values take engine defaults.
type EngineConfig struct {
	MaxConcepts     int     `mapstructure:"max_concepts"`     // concept store bound (default: 1000)
	BeliefCapacity  int     `mapstructure:"belief_capacity"`  // beliefs per concept (default: 16)
	ConceptsPerStep int     `mapstructure:"concepts_per_step"` // concepts selected per cycle (default: 3)
	DecayRate       float64 `mapstructure:"decay_rate"`       // per-cycle budget retention (default: 0.99)
	ForgetThreshold float64 `mapstructure:"forget_threshold"` // durability below which a concept is swept
	ForgetInterval  int     `mapstructure:"forget_interval"`  // cycles between forgetting sweeps
	Seed            int64   `mapstructure:"seed"`             // rng seed for reproducible runs
}

// EffectsConfig sizes the external-effect worker pool.
type EffectsConfig struct {
	Workers       int     `mapstructure:"workers"`
	QueueSize     int     `mapstructure:"queue_size"`
	RatePerSecond float64 `mapstructure:"rate_per_second"` // 0 = unlimited
}

// LogConfig configures logger initialization.
type LogConfig struct {
	JSON      bool `mapstructure:"json"`
	Verbosity int  `mapstructure:"verbosity"`
}

// EngineParams maps the config onto engine parameters.
func (c *Config) EngineParams() engine.Params {
	return engine.Params{
		MaxConcepts:     c.Engine.MaxConcepts,
		BeliefCapacity:  c.Engine.BeliefCapacity,
		ConceptsPerStep: c.Engine.ConceptsPerStep,
		DecayRate:       c.Engine.DecayRate,
		ForgetThreshold: c.Engine.ForgetThreshold,
		ForgetInterval:  uint64(c.Engine.ForgetInterval),
		Seed:            c.Engine.Seed,
	}
}

// EffectOptions maps the config onto dispatcher options.
func (c *Config) EffectOptions() effect.Options {
	return effect.Options{
		Workers:       c.Effects.Workers,
		QueueSize:     c.Effects.QueueSize,
		RatePerSecond: c.Effects.RatePerSecond,
	}
}
