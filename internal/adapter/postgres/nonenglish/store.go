// Package nonenglish is the append-only side-store for original
// non-English payloads whose parent column was replaced with the
// [NON_ENGLISH] sentinel.
package nonenglish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres"
	"github.com/heartmarshall/dictionary-importer/internal/domain"
	"github.com/heartmarshall/dictionary-importer/internal/text"
)

// Store writes and reads non-English side-store rows. Reads go through a
// dataloader: per-id requests within a dispatch window collapse into one
// id-list query, and resolved ids stay in the loader cache for the life
// of the Store (the same id always maps to the same text).
//
// No method propagates database failures except on cancellation: store
// returns nil, reads return nil/empty and log at debug level.
type Store struct {
	pool   *pgxpool.Pool
	log    *slog.Logger
	loader *dataloader.Loader[int64, string]
}

func NewStore(pool *pgxpool.Pool, log *slog.Logger) *Store {
	s := &Store{pool: pool, log: log}
	s.loader = dataloader.NewBatchedLoader(
		s.fetchBatch,
		dataloader.WithCache[int64, string](dataloader.NewCache[int64, string]()),
		dataloader.WithWait[int64, string](2*time.Millisecond),
		dataloader.WithBatchCapacity[int64, string](200),
	)
	return s
}

// Save inserts the text when it classifies as non-English and returns
// the assigned id; English text returns nil without touching the
// database. The side-store is append-only; dedup is the caller's
// concern.
func (s *Store) Save(ctx context.Context, originalText, sourceCode string, fieldType domain.FieldType) *int64 {
	if !text.ContainsNonEnglish(originalText) {
		return nil
	}

	row := domain.NonEnglishText{
		OriginalText:     originalText,
		DetectedLanguage: text.DetectLanguageCode(originalText),
		CharacterCount:   len([]rune(originalText)),
		SourceCode:       domain.NormalizeSourceCode(sourceCode),
		FieldType:        fieldType,
	}

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO dictionary_non_english_text
		     (original_text, detected_language, character_count, source_code, field_type, created_utc)
		 VALUES ($1, $2, $3, $4, $5, now())
		 RETURNING id`,
		row.OriginalText, row.DetectedLanguage, row.CharacterCount, row.SourceCode, string(row.FieldType),
	).Scan(&id)
	if err != nil {
		if postgres.IsCancellation(err) {
			return nil
		}
		s.log.Debug("non-english store insert failed",
			slog.String("source_code", row.SourceCode),
			slog.String("field_type", string(row.FieldType)),
			slog.String("error", err.Error()),
		)
		return nil
	}

	s.loader.Prime(ctx, id, originalText)
	return &id
}

// Get returns the original text for an id, cache-first. Unknown ids and
// database failures return nil.
func (s *Store) Get(ctx context.Context, id int64) *string {
	v, err := s.loader.Load(ctx, id)()
	if err != nil {
		return nil
	}
	return &v
}

// GetBatch resolves many ids in one dispatch. Ids that fail to resolve
// are simply absent from the result.
func (s *Store) GetBatch(ctx context.Context, ids []int64) map[int64]string {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out
	}

	thunks := s.loader.LoadMany(ctx, ids)
	values, errs := thunks()
	for i, id := range ids {
		if i < len(errs) && errs[i] != nil {
			continue
		}
		if i < len(values) {
			out[id] = values[i]
		}
	}
	return out
}

// fetchBatch is the dataloader batch function: one id-list query per
// dispatch window.
func (s *Store) fetchBatch(ctx context.Context, ids []int64) []*dataloader.Result[string] {
	results := make([]*dataloader.Result[string], len(ids))

	rows, err := s.pool.Query(ctx,
		`SELECT id, original_text FROM dictionary_non_english_text WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		if !postgres.IsCancellation(err) {
			s.log.Debug("non-english batch fetch failed",
				slog.Int("ids", len(ids)),
				slog.String("error", err.Error()),
			)
		}
		for i := range results {
			results[i] = &dataloader.Result[string]{Error: err}
		}
		return results
	}
	defer rows.Close()

	found := make(map[int64]string, len(ids))
	for rows.Next() {
		var id int64
		var txt string
		if err := rows.Scan(&id, &txt); err != nil {
			s.log.Debug("non-english batch scan failed", slog.String("error", err.Error()))
			continue
		}
		found[id] = txt
	}

	for i, id := range ids {
		if txt, ok := found[id]; ok {
			results[i] = &dataloader.Result[string]{Data: txt}
		} else {
			results[i] = &dataloader.Result[string]{Error: fmt.Errorf("non_english_text %d: %w", id, domain.ErrNotFound)}
		}
	}
	return results
}
