package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for every option.
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "nar.db")

	// Engine defaults mirror the engine package constants
	v.SetDefault("engine.max_concepts", 1000)
	v.SetDefault("engine.belief_capacity", 16)
	v.SetDefault("engine.concepts_per_step", 3)
	v.SetDefault("engine.decay_rate", 0.99)
	v.SetDefault("engine.forget_threshold", 0.05)
	v.SetDefault("engine.forget_interval", 50)
	v.SetDefault("engine.seed", 0)

	// Effect pool defaults
	v.SetDefault("effects.workers", 2)
	v.SetDefault("effects.queue_size", 64)
	v.SetDefault("effects.rate_per_second", 0.0)

	// Logging defaults
	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)
}
