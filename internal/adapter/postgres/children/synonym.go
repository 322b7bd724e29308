package children

import (
	"context"
	"strings"

	"github.com/heartmarshall/dictionary-importer/internal/domain"
	"github.com/heartmarshall/dictionary-importer/internal/text"
)

// SynonymInput is one synonym payload for the bulk path.
type SynonymInput struct {
	ParsedID   int64
	Text       string
	SourceCode string
}

// WriteSynonym queues one synonym row under the parsed sense.
func (w *Writer) WriteSynonym(ctx context.Context, parsedID int64, synonym, sourceCode string) {
	w.BulkWriteSynonyms(ctx, []SynonymInput{{ParsedID: parsedID, Text: synonym, SourceCode: sourceCode}})
}

// WriteSynonymsForParsedDefinition writes all synonyms of one sense:
// inputs are partitioned by language, English synonyms deduplicated
// case-insensitively, and everything queued through the bulk path.
func (w *Writer) WriteSynonymsForParsedDefinition(ctx context.Context, parsedID int64, synonyms []string, sourceCode string) {
	english, foreign := partitionSynonyms(synonyms)

	inputs := make([]SynonymInput, 0, len(english)+len(foreign))
	for _, s := range english {
		inputs = append(inputs, SynonymInput{ParsedID: parsedID, Text: s, SourceCode: sourceCode})
	}
	for _, s := range foreign {
		inputs = append(inputs, SynonymInput{ParsedID: parsedID, Text: s, SourceCode: sourceCode})
	}
	w.BulkWriteSynonyms(ctx, inputs)
}

// BulkWriteSynonyms queues many synonym rows, each as a guarded insert
// scoped by (parsedId, synonymText, sourceCode).
func (w *Writer) BulkWriteSynonyms(ctx context.Context, inputs []SynonymInput) {
	for _, in := range inputs {
		payload, ok := normalizeTarget(in.Text, domain.MaxWordLen)
		if !ok {
			continue
		}
		stored, hasNonEnglish, id := w.route(ctx, payload, in.SourceCode, domain.FieldSynonym)
		w.batcher.Queue(ctx, "synonym", insertSynonymSQL,
			in.ParsedID, stored, domain.NormalizeSourceCode(in.SourceCode), hasNonEnglish, id)
	}
}

// partitionSynonyms splits inputs into English and non-English groups,
// deduplicating the English group case-insensitively while preserving
// first-seen order.
func partitionSynonyms(synonyms []string) (english, foreign []string) {
	seen := make(map[string]struct{}, len(synonyms))
	for _, s := range synonyms {
		s = domain.CollapseWhitespace(s)
		if s == "" {
			continue
		}
		if text.ContainsNonEnglish(s) {
			foreign = append(foreign, s)
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		english = append(english, s)
	}
	return english, foreign
}
