package config

import (
	"fmt"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Importer.validate(); err != nil {
		return fmt.Errorf("importer: %w", err)
	}
	if err := c.RewriteMemory.validate(); err != nil {
		return fmt.Errorf("rewrite_memory: %w", err)
	}
	return nil
}

func (c *ImporterConfig) validate() error {
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be > 0 (got %d)", c.MaxBatchSize)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush_interval must be > 0 (got %v)", c.FlushInterval)
	}
	return nil
}

func (c *RewriteMemoryConfig) validate() error {
	if c.IndexPath == "" {
		return fmt.Errorf("index_path must not be empty")
	}
	if c.Take <= 0 || c.Take > 5000 {
		return fmt.Errorf("take must be in (0, 5000] (got %d)", c.Take)
	}
	if c.MaxSuggestions <= 0 || c.MaxSuggestions > 10 {
		return fmt.Errorf("max_suggestions must be in (0, 10] (got %d)", c.MaxSuggestions)
	}
	if c.CandidateMinConfidence < 0 || c.CandidateMinConfidence > 1 {
		return fmt.Errorf("candidate_min_confidence must be in [0, 1] (got %v)", c.CandidateMinConfidence)
	}
	if c.MaxCandidatesPerRun <= 0 || c.MaxCandidatesPerRun > 5000 {
		return fmt.Errorf("max_candidates_per_run must be in (0, 5000] (got %d)", c.MaxCandidatesPerRun)
	}
	return nil
}
