package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Database      DatabaseConfig      `yaml:"database"`
	Log           LogConfig           `yaml:"log"`
	Importer      ImporterConfig      `yaml:"importer"`
	RewriteMemory RewriteMemoryConfig `yaml:"rewrite_memory"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// ImporterConfig holds import pipeline settings.
type ImporterConfig struct {
	SourceCode       string        `yaml:"source_code"         env:"IMPORTER_SOURCE_CODE"        env-default:"UNKNOWN"`
	MaxBatchSize     int           `yaml:"max_batch_size"      env:"IMPORTER_MAX_BATCH_SIZE"     env-default:"100"`
	FlushInterval    time.Duration `yaml:"flush_interval"      env:"IMPORTER_FLUSH_INTERVAL"     env-default:"2s"`
	TitleCaseBaseDir string        `yaml:"title_case_base_dir" env:"IMPORTER_TITLECASE_BASE_DIR"`
}

// RewriteMemoryConfig holds rewrite-memory index, mining, and promotion
// settings.
type RewriteMemoryConfig struct {
	IndexPath              string  `yaml:"index_path"               env:"REWRITE_INDEX_PATH"               env-default:"indexes/lucene/dictionary-rewrite-memory"`
	Take                   int     `yaml:"take"                     env:"REWRITE_TAKE"                     env-default:"500"`
	MaxSuggestions         int     `yaml:"max_suggestions"          env:"REWRITE_MAX_SUGGESTIONS"          env-default:"3"`
	MinScore               float64 `yaml:"min_score"                env:"REWRITE_MIN_SCORE"                env-default:"1.2"`
	WriteCandidatesToSQL   bool    `yaml:"write_candidates_to_sql"  env:"REWRITE_WRITE_CANDIDATES"`
	CandidateMinConfidence float64 `yaml:"candidate_min_confidence" env:"REWRITE_CANDIDATE_MIN_CONFIDENCE" env-default:"0.75"`
	MaxCandidatesPerRun    int     `yaml:"max_candidates_per_run"   env:"REWRITE_MAX_CANDIDATES_PER_RUN"   env-default:"300"`
	PromotedBy             string  `yaml:"promoted_by"              env:"REWRITE_PROMOTED_BY"              env-default:"system"`
}
