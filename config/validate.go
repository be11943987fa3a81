package config

import "github.com/noeta/NAR/errors"

// Validate checks that the configuration is usable. Zero values mean "use
// the default" and pass; negatives and out-of-range rates fail.
func (c *Config) Validate() error {
	if c.Engine.MaxConcepts < 0 {
		return errors.Newf("engine.max_concepts must be >= 0, got %d", c.Engine.MaxConcepts)
	}
	if c.Engine.BeliefCapacity < 0 {
		return errors.Newf("engine.belief_capacity must be >= 0, got %d", c.Engine.BeliefCapacity)
	}
	if c.Engine.ConceptsPerStep < 0 {
		return errors.Newf("engine.concepts_per_step must be >= 0, got %d", c.Engine.ConceptsPerStep)
	}
	if c.Engine.DecayRate < 0 || c.Engine.DecayRate >= 1 {
		return errors.Newf("engine.decay_rate must be in [0,1), got %f", c.Engine.DecayRate)
	}
	if c.Engine.ForgetThreshold < 0 || c.Engine.ForgetThreshold > 1 {
		return errors.Newf("engine.forget_threshold must be in [0,1], got %f", c.Engine.ForgetThreshold)
	}
	if c.Engine.ForgetInterval < 0 {
		return errors.Newf("engine.forget_interval must be >= 0, got %d", c.Engine.ForgetInterval)
	}

	if c.Effects.Workers < 0 {
		return errors.Newf("effects.workers must be >= 0, got %d", c.Effects.Workers)
	}
	if c.Effects.QueueSize < 0 {
		return errors.Newf("effects.queue_size must be >= 0, got %d", c.Effects.QueueSize)
	}
	if c.Effects.RatePerSecond < 0 {
		return errors.Newf("effects.rate_per_second must be >= 0, got %f", c.Effects.RatePerSecond)
	}

	if c.Log.Verbosity < 0 {
		return errors.Newf("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}
	return nil
}
