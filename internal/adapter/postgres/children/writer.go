// Package children writes the per-sense and per-entry child rows of a
// dictionary entry: aliases, synonyms, examples, variants,
// cross-references, etymologies, and part-of-speech observations.
//
// All writes flow through the shared SQL batcher as guarded inserts, so
// a single bad payload can never abort an import run.
package children

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/batcher"
	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/nonenglish"
	"github.com/heartmarshall/dictionary-importer/internal/domain"
	"github.com/heartmarshall/dictionary-importer/internal/text"
)

type Writer struct {
	batcher    *batcher.Batcher
	nonEnglish *nonenglish.Store
	log        *slog.Logger
}

func NewWriter(b *batcher.Batcher, nonEnglish *nonenglish.Store, log *slog.Logger) *Writer {
	return &Writer{batcher: b, nonEnglish: nonEnglish, log: log}
}

const (
	insertAliasSQL = `
INSERT INTO dictionary_entry_alias
    (parsed_id, alias_text, source_code, has_non_english_text, non_english_text_id, created_utc)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (parsed_id, alias_text) DO NOTHING`

	insertSynonymSQL = `
INSERT INTO dictionary_entry_synonym
    (parsed_id, synonym_text, source_code, has_non_english_text, non_english_text_id, created_utc)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (parsed_id, synonym_text) DO NOTHING`

	insertExampleSQL = `
INSERT INTO dictionary_entry_example
    (entry_id, parsed_id, example_text, source_code, has_non_english_text, non_english_text_id, created_utc)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (entry_id, md5(example_text)) DO NOTHING`

	insertCrossRefSQL = `
INSERT INTO dictionary_entry_cross_reference
    (parsed_id, reference_text, source_code, has_non_english_text, non_english_text_id, created_utc)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (parsed_id, reference_text) DO NOTHING`

	insertVariantSQL = `
INSERT INTO dictionary_entry_variant
    (entry_id, variant_text, source_code, has_non_english_text, non_english_text_id, created_utc)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (entry_id, variant_text) DO NOTHING`

	insertEtymologySQL = `
INSERT INTO dictionary_entry_etymology
    (entry_id, etymology_text, source_code, has_non_english_text, non_english_text_id, created_utc)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (entry_id, md5(etymology_text)) DO NOTHING`

	upsertPartOfSpeechSQL = `
INSERT INTO dictionary_entry_part_of_speech
    (entry_id, part_of_speech, confidence, source_code, created_utc, updated_utc)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (entry_id, part_of_speech) DO UPDATE SET
    confidence  = GREATEST(dictionary_entry_part_of_speech.confidence, EXCLUDED.confidence),
    updated_utc = now()`
)

// WriteAlias queues one alias row under the parsed sense. Blank or
// placeholder payloads are skipped silently.
func (w *Writer) WriteAlias(ctx context.Context, parsedID int64, alias, sourceCode string) {
	payload, ok := normalizeTarget(alias, domain.MaxWordLen)
	if !ok {
		return
	}
	stored, hasNonEnglish, id := w.route(ctx, payload, sourceCode, domain.FieldAlias)
	w.batcher.Queue(ctx, "alias", insertAliasSQL,
		parsedID, stored, domain.NormalizeSourceCode(sourceCode), hasNonEnglish, id)
}

// WriteExample queues one example sentence under the parsed sense.
// Case is preserved; bilingual-example sentinels are rejected. Dedup is
// scoped to the entry, so sibling senses cannot repeat the same example.
func (w *Writer) WriteExample(ctx context.Context, entryID, parsedID int64, example, sourceCode string) {
	payload, ok := normalizeProse(example, domain.MaxDefinitionLen)
	if !ok {
		return
	}
	stored, hasNonEnglish, id := w.route(ctx, payload, sourceCode, domain.FieldExample)
	w.batcher.Queue(ctx, "example", insertExampleSQL,
		entryID, parsedID, stored, domain.NormalizeSourceCode(sourceCode), hasNonEnglish, id)
}

// WriteCrossReference queues one cross-reference under the parsed
// sense, with wiki markup stripped from the payload first.
func (w *Writer) WriteCrossReference(ctx context.Context, parsedID int64, reference, sourceCode string) {
	payload, ok := normalizeTarget(stripWikiMarkup(reference), domain.MaxWordLen)
	if !ok {
		return
	}
	stored, hasNonEnglish, id := w.route(ctx, payload, sourceCode, domain.FieldCrossReference)
	w.batcher.Queue(ctx, "crossref", insertCrossRefSQL,
		parsedID, stored, domain.NormalizeSourceCode(sourceCode), hasNonEnglish, id)
}

// WriteVariant queues one spelling variant under the entry.
func (w *Writer) WriteVariant(ctx context.Context, entryID int64, variant, sourceCode string) {
	payload, ok := normalizeTarget(variant, domain.MaxWordLen)
	if !ok {
		return
	}
	stored, hasNonEnglish, id := w.route(ctx, payload, sourceCode, domain.FieldVariant)
	w.batcher.Queue(ctx, "variant", insertVariantSQL,
		entryID, stored, domain.NormalizeSourceCode(sourceCode), hasNonEnglish, id)
}

// WriteEtymology queues one etymology note under the entry.
func (w *Writer) WriteEtymology(ctx context.Context, entryID int64, etymology, sourceCode string) {
	payload, ok := normalizeProse(etymology, domain.MaxEtymologyLen)
	if !ok {
		return
	}
	stored, hasNonEnglish, id := w.route(ctx, payload, sourceCode, domain.FieldEtymology)
	w.batcher.Queue(ctx, "etymology", insertEtymologySQL,
		entryID, stored, domain.NormalizeSourceCode(sourceCode), hasNonEnglish, id)
}

// WritePartOfSpeech queues one part-of-speech observation under the
// entry. Confidence is a percentage; out-of-range values are clamped.
// Re-observation keeps the highest confidence seen.
func (w *Writer) WritePartOfSpeech(ctx context.Context, entryID int64, pos string, confidence int, sourceCode string) {
	payload, ok := normalizeTarget(pos, domain.MaxPOSLen)
	if !ok {
		return
	}
	w.batcher.Queue(ctx, "pos", upsertPartOfSpeechSQL,
		entryID, payload, clampPercent(confidence), domain.NormalizeSourceCode(sourceCode))
}

func clampPercent(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// route classifies a payload and stores non-English text in the
// side-store, returning the column text (sentinel when routed), the
// routing flag, and the side-store id.
func (w *Writer) route(ctx context.Context, payload, sourceCode string, fieldType domain.FieldType) (string, bool, *int64) {
	if !text.ContainsNonEnglish(payload) {
		return payload, false, nil
	}
	id := w.nonEnglish.Save(ctx, payload, sourceCode, fieldType)
	if id == nil {
		// Side-store write failed; keep the original text rather than
		// lose the row.
		return payload, false, nil
	}
	return domain.NonEnglishSentinel, true, id
}

// normalizeTarget prepares a target-word payload: lowercase, collapsed
// whitespace, bounded. Returns false for blank or placeholder payloads.
func normalizeTarget(s string, maxLen int) (string, bool) {
	s = domain.NormalizeText(domain.CollapseWhitespace(s))
	if s == "" || isPlaceholder(s) {
		return "", false
	}
	return domain.Truncate(s, maxLen), true
}

// normalizeProse prepares a sentence payload: whitespace collapsed,
// punctuation normalized, delimiters repaired, case preserved, bounded.
func normalizeProse(s string, maxLen int) (string, bool) {
	s = text.NormalizePunctuation(domain.CollapseWhitespace(s))
	if s == "" || isPlaceholder(s) {
		return "", false
	}
	s = text.Balance(s).Text
	return domain.Truncate(s, maxLen), true
}

func isPlaceholder(s string) bool {
	return strings.EqualFold(s, domain.NonEnglishSentinel) ||
		strings.EqualFold(s, domain.BilingualExampleSentinel)
}

var (
	wikiLinkRe     = regexp.MustCompile(`\[\[(?:[^|\]]*\|)?([^\]]*)\]\]`)
	wikiTemplateRe = regexp.MustCompile(`\{\{[^}]*\}\}`)
)

// stripWikiMarkup unwraps [[target|label]] links to their label and
// drops {{template}} fragments.
func stripWikiMarkup(s string) string {
	s = wikiLinkRe.ReplaceAllString(s, "$1")
	s = wikiTemplateRe.ReplaceAllString(s, "")
	return s
}
