// Package parsed writes parsed senses of dictionary entries.
package parsed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres"
	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/nonenglish"
	"github.com/heartmarshall/dictionary-importer/internal/domain"
	"github.com/heartmarshall/dictionary-importer/internal/text"
)

type Repo struct {
	pool       *pgxpool.Pool
	log        *slog.Logger
	nonEnglish *nonenglish.Store
}

func NewRepo(pool *pgxpool.Pool, log *slog.Logger, nonEnglish *nonenglish.Store) *Repo {
	return &Repo{pool: pool, log: log, nonEnglish: nonEnglish}
}

const upsertParsedSQL = `
WITH ins AS (
    INSERT INTO dictionary_entry_parsed
        (entry_id, parent_parsed_id, meaning_title, sense_number, domain_code,
         usage_label, definition, raw_fragment, source_code,
         has_non_english_text, non_english_text_id, created_utc)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    ON CONFLICT (entry_id, COALESCE(parent_parsed_id, -1), meaning_title, COALESCE(sense_number, -1))
        DO NOTHING
    RETURNING id
)
SELECT id FROM ins
UNION ALL
SELECT p.id
FROM dictionary_entry_parsed p
WHERE p.entry_id = $1
  AND COALESCE(p.parent_parsed_id, -1) = COALESCE($2, -1)
  AND p.meaning_title = $3
  AND COALESCE(p.sense_number, -1) = COALESCE($4, -1)
LIMIT 1`

// Write performs an idempotent upsert keyed on the sense's natural key
// and returns the id of the inserted or pre-existing row. Non-English
// definitions are routed to the side-store and replaced with the
// sentinel. A column-size failure is retried once with aggressively
// shortened values.
func (r *Repo) Write(ctx context.Context, entryID int64, p domain.ParsedDefinition, parentParsedID *int64) (int64, error) {
	title := domain.CollapseWhitespace(p.MeaningTitle)
	if title == "" {
		title = domain.DefaultMeaningTitle
	}
	title = domain.Truncate(title, domain.MaxWordLen)

	definition := domain.CollapseWhitespace(p.Definition)
	if definition == "" {
		return 0, fmt.Errorf("parsed definition: %w: blank definition", domain.ErrValidation)
	}

	var domainCode, usageLabel *string
	if p.DomainCode != nil {
		if code := domain.Truncate(mapDomainCode(*p.DomainCode), domain.MaxDomainCodeLen); code != "" {
			domainCode = &code
		}
	}
	if p.UsageLabel != nil {
		if code := domain.Truncate(mapUsageLabel(*p.UsageLabel), domain.MaxUsageLabelLen); code != "" {
			usageLabel = &code
		}
	}

	storedDefinition := domain.Truncate(definition, domain.MaxDefinitionLen)
	var nonEnglishID *int64
	hasNonEnglish := false
	if text.ContainsNonEnglish(definition) {
		nonEnglishID = r.nonEnglish.Save(ctx, definition, p.SourceCode, domain.FieldDefinition)
		if nonEnglishID != nil {
			storedDefinition = domain.NonEnglishSentinel
			hasNonEnglish = true
		}
	}

	row := domain.ParsedDefinition{
		EntryID:        entryID,
		ParentParsedID: parentParsedID,
		MeaningTitle:   title,
		SenseNumber:    p.SenseNumber,
		DomainCode:     domainCode,
		UsageLabel:     usageLabel,
		Definition:     storedDefinition,
		RawFragment:    domain.Truncate(p.RawFragment, domain.MaxRawFragmentLen),
		SourceCode:     domain.NormalizeSourceCode(p.SourceCode),
		CreatedUtc:     p.CreatedUtc,
	}

	id, err := r.upsert(ctx, row, hasNonEnglish, nonEnglishID)
	if err != nil && postgres.IsTruncation(err) {
		id, err = r.upsert(ctx, shorten(row), hasNonEnglish, nonEnglishID)
	}
	if err != nil {
		return 0, fmt.Errorf("write parsed definition: %w", err)
	}
	return id, nil
}

func (r *Repo) upsert(ctx context.Context, row domain.ParsedDefinition, hasNonEnglish bool, nonEnglishID *int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, upsertParsedSQL,
		row.EntryID, row.ParentParsedID, row.MeaningTitle, row.SenseNumber,
		row.DomainCode, row.UsageLabel, row.Definition, row.RawFragment,
		row.SourceCode, hasNonEnglish, nonEnglishID, row.CreatedUtc,
	).Scan(&id)
	return id, err
}

// shorten halves the bounds used by the retry after a column-size error.
func shorten(row domain.ParsedDefinition) domain.ParsedDefinition {
	row.MeaningTitle = domain.Truncate(row.MeaningTitle, domain.MaxWordLen/2)
	row.Definition = domain.Truncate(row.Definition, domain.MaxDefinitionLen/2)
	row.RawFragment = domain.Truncate(row.RawFragment, domain.MaxRawFragmentLen/2)
	if row.DomainCode != nil {
		code := domain.Truncate(*row.DomainCode, domain.MaxDomainCodeLen/2)
		row.DomainCode = &code
	}
	if row.UsageLabel != nil {
		code := domain.Truncate(*row.UsageLabel, domain.MaxUsageLabelLen/2)
		row.UsageLabel = &code
	}
	return row
}
