package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost:5432/testdb")
}

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
database:
  dsn: "postgres://u:p@localhost:5432/testdb"
  max_conns: 10
  min_conns: 2

log:
  level: "debug"
  format: "text"

importer:
  source_code: "GCIDE"
  max_batch_size: 80
  flush_interval: "1s"

rewrite_memory:
  index_path: "tmp/test-index"
  take: 1000
  max_suggestions: 5
  min_score: 1.5
  write_candidates_to_sql: true
  candidate_min_confidence: 0.8
  max_candidates_per_run: 400
  promoted_by: "ops"
`

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Database
	if cfg.Database.DSN != "postgres://u:p@localhost:5432/testdb" {
		t.Errorf("database.dsn = %q", cfg.Database.DSN)
	}
	if cfg.Database.MaxConns != 10 {
		t.Errorf("database.max_conns = %d, want 10", cfg.Database.MaxConns)
	}

	// Log
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("log.format = %q, want %q", cfg.Log.Format, "text")
	}

	// Importer
	if cfg.Importer.SourceCode != "GCIDE" {
		t.Errorf("importer.source_code = %q, want GCIDE", cfg.Importer.SourceCode)
	}
	if cfg.Importer.MaxBatchSize != 80 {
		t.Errorf("importer.max_batch_size = %d, want 80", cfg.Importer.MaxBatchSize)
	}
	if cfg.Importer.FlushInterval != time.Second {
		t.Errorf("importer.flush_interval = %v, want 1s", cfg.Importer.FlushInterval)
	}

	// Rewrite memory
	if cfg.RewriteMemory.IndexPath != "tmp/test-index" {
		t.Errorf("rewrite_memory.index_path = %q", cfg.RewriteMemory.IndexPath)
	}
	if cfg.RewriteMemory.Take != 1000 {
		t.Errorf("rewrite_memory.take = %d, want 1000", cfg.RewriteMemory.Take)
	}
	if !cfg.RewriteMemory.WriteCandidatesToSQL {
		t.Error("rewrite_memory.write_candidates_to_sql should be true")
	}
	if cfg.RewriteMemory.CandidateMinConfidence != 0.8 {
		t.Errorf("rewrite_memory.candidate_min_confidence = %v, want 0.8", cfg.RewriteMemory.CandidateMinConfidence)
	}
	if cfg.RewriteMemory.PromotedBy != "ops" {
		t.Errorf("rewrite_memory.promoted_by = %q, want ops", cfg.RewriteMemory.PromotedBy)
	}
}

func TestLoad_ENVOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("IMPORTER_SOURCE_CODE", "OPTED")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Importer.SourceCode != "OPTED" {
		t.Errorf("importer.source_code = %q, want OPTED (ENV override)", cfg.Importer.SourceCode)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want %q (ENV override)", cfg.Log.Level, "warn")
	}
}

func TestLoad_NoFile_ENVOnly(t *testing.T) {
	validEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Importer.MaxBatchSize != 100 {
		t.Errorf("importer.max_batch_size default = %d, want 100", cfg.Importer.MaxBatchSize)
	}
	if cfg.Importer.FlushInterval != 2*time.Second {
		t.Errorf("importer.flush_interval default = %v, want 2s", cfg.Importer.FlushInterval)
	}
	if cfg.RewriteMemory.IndexPath != "indexes/lucene/dictionary-rewrite-memory" {
		t.Errorf("rewrite_memory.index_path default = %q", cfg.RewriteMemory.IndexPath)
	}
	if cfg.RewriteMemory.MaxSuggestions != 3 {
		t.Errorf("rewrite_memory.max_suggestions default = %d, want 3", cfg.RewriteMemory.MaxSuggestions)
	}
	if cfg.RewriteMemory.MinScore != 1.2 {
		t.Errorf("rewrite_memory.min_score default = %v, want 1.2", cfg.RewriteMemory.MinScore)
	}
}

func TestLoad_MissingDSN(t *testing.T) {
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_DSN is unset")
	}
}

func TestValidate_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero_batch_size", func(c *Config) { c.Importer.MaxBatchSize = 0 }},
		{"zero_flush_interval", func(c *Config) { c.Importer.FlushInterval = 0 }},
		{"empty_index_path", func(c *Config) { c.RewriteMemory.IndexPath = "" }},
		{"take_over_cap", func(c *Config) { c.RewriteMemory.Take = 5001 }},
		{"suggestions_over_cap", func(c *Config) { c.RewriteMemory.MaxSuggestions = 11 }},
		{"confidence_over_one", func(c *Config) { c.RewriteMemory.CandidateMinConfidence = 1.5 }},
		{"candidates_over_cap", func(c *Config) { c.RewriteMemory.MaxCandidatesPerRun = 5001 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Importer: ImporterConfig{MaxBatchSize: 100, FlushInterval: 2 * time.Second},
				RewriteMemory: RewriteMemoryConfig{
					IndexPath:              "indexes/test",
					Take:                   500,
					MaxSuggestions:         3,
					CandidateMinConfidence: 0.75,
					MaxCandidatesPerRun:    300,
				},
			}
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
