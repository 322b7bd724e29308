package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/dictionary-importer/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedSource registers a source code in the import control table.
func SeedSource(t *testing.T, pool *pgxpool.Pool, sourceCode string) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO dictionary_import_source (source_code, registered_utc)
		 VALUES ($1, now())
		 ON CONFLICT (source_code) DO NOTHING`,
		domain.NormalizeSourceCode(sourceCode),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedSource: %v", err)
	}
}

// SeedEntry creates a canonical dictionary entry with a unique word.
// Returns the filled domain.DictionaryEntry.
func SeedEntry(t *testing.T, pool *pgxpool.Pool, sourceCode string) domain.DictionaryEntry {
	t.Helper()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	entry := domain.DictionaryEntry{
		SourceCode:     domain.NormalizeSourceCode(sourceCode),
		Word:           "word-" + suffix,
		NormalizedWord: "word-" + suffix,
		CreatedUtc:     now,
	}

	err := pool.QueryRow(context.Background(),
		`INSERT INTO dictionary_entry (source_code, word, normalized_word, created_utc)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		entry.SourceCode, entry.Word, entry.NormalizedWord, entry.CreatedUtc,
	).Scan(&entry.ID)
	if err != nil {
		t.Fatalf("testhelper: SeedEntry: %v", err)
	}
	return entry
}

// SeedParsedDefinition creates a parsed sense under the entry.
// Returns the filled domain.ParsedDefinition.
func SeedParsedDefinition(t *testing.T, pool *pgxpool.Pool, entry domain.DictionaryEntry) domain.ParsedDefinition {
	t.Helper()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	parsed := domain.ParsedDefinition{
		EntryID:      entry.ID,
		MeaningTitle: "sense-" + suffix,
		Definition:   "definition " + suffix,
		RawFragment:  "raw " + suffix,
		SourceCode:   entry.SourceCode,
		CreatedUtc:   now,
	}

	err := pool.QueryRow(context.Background(),
		`INSERT INTO dictionary_entry_parsed
		     (entry_id, meaning_title, definition, raw_fragment, source_code, created_utc)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		parsed.EntryID, parsed.MeaningTitle, parsed.Definition, parsed.RawFragment,
		parsed.SourceCode, parsed.CreatedUtc,
	).Scan(&parsed.ID)
	if err != nil {
		t.Fatalf("testhelper: SeedParsedDefinition: %v", err)
	}
	return parsed
}

// SeedAnnotation creates one AI annotation row for the parsed sense.
// Returns the filled domain.AiAnnotation.
func SeedAnnotation(t *testing.T, pool *pgxpool.Pool, parsed domain.ParsedDefinition, original, enhanced string) domain.AiAnnotation {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	ann := domain.AiAnnotation{
		SourceCode:           parsed.SourceCode,
		ParsedDefinitionID:   parsed.ID,
		OriginalDefinition:   original,
		AiEnhancedDefinition: enhanced,
		Provider:             "test-provider",
		Model:                "test-model",
		CreatedUtc:           now,
	}

	err := pool.QueryRow(context.Background(),
		`INSERT INTO dictionary_entry_ai_annotation
		     (parsed_id, source_code, original_definition, ai_enhanced_definition, provider, model, created_utc)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		ann.ParsedDefinitionID, ann.SourceCode, ann.OriginalDefinition, ann.AiEnhancedDefinition,
		ann.Provider, ann.Model, ann.CreatedUtc,
	).Scan(&ann.ID)
	if err != nil {
		t.Fatalf("testhelper: SeedAnnotation: %v", err)
	}
	return ann
}
