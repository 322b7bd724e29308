// Package staging bulk-loads sanitized raw entries into the staging
// table and finalizes completed sources into the canonical tables.
package staging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres"
	"github.com/heartmarshall/dictionary-importer/internal/domain"
	"github.com/heartmarshall/dictionary-importer/internal/text"
)

// bulkLoadTimeout bounds one Load call end to end, bulk copy included.
const bulkLoadTimeout = 120 * time.Second

const sha256Len = 32

type Loader struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewLoader(pool *pgxpool.Pool, log *slog.Logger) *Loader {
	return &Loader{pool: pool, log: log}
}

// LoadResult describes one logical batch load. Err carries an absorbed
// persistence failure; Load itself returns an error only on
// cancellation.
type LoadResult struct {
	Attempted  int
	Dropped    int
	Duplicates int
	Inserted   int64
	Duration   time.Duration
	Err        error
}

const createLoadTableSQL = `
CREATE TEMP TABLE staging_load (
    row_order       int,
    word            varchar(200) NOT NULL,
    normalized_word varchar(200) NOT NULL,
    part_of_speech  varchar(50),
    definition      varchar(2000) NOT NULL,
    etymology       varchar(4000),
    sense_number    int,
    raw_fragment    varchar(8000),
    source_code     varchar(30) NOT NULL,
    word_hash       bytea NOT NULL,
    definition_hash bytea NOT NULL,
    created_utc     timestamptz NOT NULL
) ON COMMIT DROP`

const indexLoadTableSQL = `
CREATE INDEX ON staging_load (source_code, word_hash, definition_hash, sense_number)`

const insertFromLoadTableSQL = `
INSERT INTO dictionary_entry_staging
    (word, normalized_word, part_of_speech, definition, etymology,
     sense_number, raw_fragment, source_code, word_hash, definition_hash, created_utc)
SELECT t.word, t.normalized_word, t.part_of_speech, t.definition, t.etymology,
       t.sense_number, t.raw_fragment, t.source_code, t.word_hash, t.definition_hash, t.created_utc
FROM staging_load t
WHERE NOT EXISTS (
    SELECT 1
    FROM dictionary_entry_staging s
    WHERE s.source_code = t.source_code
      AND s.word_hash = t.word_hash
      AND s.definition_hash = t.definition_hash
      AND COALESCE(s.sense_number, -1) = COALESCE(t.sense_number, -1)
)`

// Load performs one logical batch load: sanitize, dedupe within the
// batch, bulk-copy into a temp table, then a single set-based insert
// guarded by WHERE NOT EXISTS on the hash dedup key.
//
// Persistence failures are rolled back, logged, and absorbed into
// LoadResult.Err; only cancellation is returned to the caller.
func (l *Loader) Load(ctx context.Context, entries []domain.RawEntry) (LoadResult, error) {
	start := time.Now()
	res := LoadResult{Attempted: len(entries)}

	rows := make([]domain.StagingRow, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		row, ok := sanitize(e)
		if !ok {
			res.Dropped++
			continue
		}
		key := domain.StagingDedupKey(row.SourceCode, row.SenseNumber, row.NormalizedWord, row.Definition)
		if _, dup := seen[key]; dup {
			res.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		res.Duration = time.Since(start)
		return res, nil
	}

	ctx, cancel := context.WithTimeout(ctx, bulkLoadTimeout)
	defer cancel()

	inserted, err := l.persist(ctx, rows)
	res.Inserted = inserted
	res.Duration = time.Since(start)

	if err != nil {
		if postgres.IsCancellation(err) {
			return res, fmt.Errorf("staging load: %w", err)
		}
		l.log.Error("staging load failed",
			slog.Int("attempted", res.Attempted),
			slog.String("error", err.Error()),
		)
		res.Err = err
		return res, nil
	}

	l.log.Info("staging batch loaded",
		slog.Int64("inserted", res.Inserted),
		slog.Int("attempted", res.Attempted),
		slog.Int("duplicates", res.Duplicates),
		slog.Int("dropped", res.Dropped),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

func (l *Loader) persist(ctx context.Context, rows []domain.StagingRow) (int64, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, createLoadTableSQL); err != nil {
		return 0, fmt.Errorf("create temp table: %w", err)
	}
	if _, err := tx.Exec(ctx, indexLoadTableSQL); err != nil {
		return 0, fmt.Errorf("index temp table: %w", err)
	}

	copyRows := make([][]any, len(rows))
	for i, r := range rows {
		copyRows[i] = []any{
			i, r.Word, r.NormalizedWord, r.PartOfSpeech, r.Definition, r.Etymology,
			r.SenseNumber, r.RawFragment, r.SourceCode, r.WordHash, r.DefinitionHash, r.CreatedUtc,
		}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"staging_load"},
		[]string{
			"row_order", "word", "normalized_word", "part_of_speech", "definition", "etymology",
			"sense_number", "raw_fragment", "source_code", "word_hash", "definition_hash", "created_utc",
		},
		pgx.CopyFromRows(copyRows),
	)
	if err != nil {
		return 0, fmt.Errorf("copy into temp table: %w", err)
	}

	ct, err := tx.Exec(ctx, insertFromLoadTableSQL)
	if err != nil {
		return 0, fmt.Errorf("insert from temp table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return ct.RowsAffected(), nil
}

// sanitize validates and bounds one raw entry. Returns false when the
// row must be dropped.
func sanitize(e domain.RawEntry) (domain.StagingRow, bool) {
	word := domain.CollapseWhitespace(e.Word)
	definition := domain.CollapseWhitespace(e.Definition)
	if word == "" || definition == "" {
		return domain.StagingRow{}, false
	}

	word = domain.Truncate(word, domain.MaxWordLen)
	definition = domain.Truncate(definition, domain.MaxDefinitionLen)

	normalized := e.NormalizedWord
	if normalized == "" {
		normalized = word
	}
	normalized = domain.Truncate(domain.NormalizeText(normalized), domain.MaxWordLen)

	wordHash := text.Sha256Bytes(word)
	defHash := text.Sha256Bytes(definition)
	if len(wordHash) != sha256Len || len(defHash) != sha256Len {
		return domain.StagingRow{}, false
	}

	createdUtc := e.CreatedUtc.UTC()
	if createdUtc.Before(domain.MinCreatedUtc) {
		createdUtc = time.Now().UTC()
	}

	return domain.StagingRow{
		Word:           word,
		NormalizedWord: normalized,
		PartOfSpeech:   truncatePtr(e.PartOfSpeech, domain.MaxPOSLen),
		Definition:     definition,
		Etymology:      truncatePtr(e.Etymology, domain.MaxEtymologyLen),
		SenseNumber:    e.SenseNumber,
		RawFragment:    truncatePtr(e.RawFragment, domain.MaxRawFragmentLen),
		SourceCode:     domain.NormalizeSourceCode(e.SourceCode),
		WordHash:       wordHash,
		DefinitionHash: defHash,
		CreatedUtc:     createdUtc,
	}, true
}

func truncatePtr(s *string, max int) *string {
	if s == nil {
		return nil
	}
	v := domain.Truncate(domain.CollapseWhitespace(*s), max)
	if v == "" {
		return nil
	}
	return &v
}
