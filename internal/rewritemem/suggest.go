package rewritemem

import (
	"context"
	"log/slog"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres"
	"github.com/heartmarshall/dictionary-importer/internal/domain"
)

const (
	// suggestionSource labels every suggestion served from this index.
	suggestionSource = "lucene-memory"

	maxPreviewLen = 120
)

// Suggest returns up to maxSuggestions enhanced candidates for the
// input, ranked by relevance. Ties are broken by document id so a fixed
// index always yields the same ordered list.
//
// Never raises: blank input, a missing index, or any search failure
// returns an empty slice (cancellation included).
func (m *Memory) Suggest(ctx context.Context, sourceCode string, mode domain.RewriteMode, input string, maxSuggestions int, minScore float64) []domain.Suggestion {
	input = domain.CollapseWhitespace(input)
	if input == "" || m.idx == nil {
		return nil
	}
	if maxSuggestions < 1 {
		maxSuggestions = 1
	}
	if maxSuggestions > 10 {
		maxSuggestions = 10
	}

	sourceQ := query.NewTermQuery(domain.NormalizeSourceCode(sourceCode))
	sourceQ.SetField("SourceCode")
	modeQ := query.NewTermQuery(string(mode))
	modeQ.SetField("Mode")
	textQ := query.NewMatchQuery(normalizeForIndex(input))
	textQ.SetField("OriginalText")
	textQ.SetOperator(query.MatchQueryOperatorAnd)

	boolQ := bleve.NewBooleanQuery()
	boolQ.AddMust(sourceQ, modeQ, textQ)

	size := maxSuggestions * 10
	if size < 50 {
		size = 50
	}
	req := bleve.NewSearchRequestOptions(boolQ, size, 0, false)
	req.Fields = []string{"OriginalText", "EnhancedText", "OriginalTextHash"}
	req.SortBy([]string{"-_score", "_id"})

	res, err := m.idx.SearchInContext(ctx, req)
	if err != nil {
		if !postgres.IsCancellation(err) {
			m.log.Debug("suggestion search failed",
				slog.String("mode", string(mode)),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	var out []domain.Suggestion
	for _, hit := range res.Hits {
		if len(out) >= maxSuggestions {
			break
		}
		if hit.Score < minScore {
			continue
		}
		enhanced, _ := hit.Fields["EnhancedText"].(string)
		if strings.TrimSpace(enhanced) == "" {
			continue
		}
		original, _ := hit.Fields["OriginalText"].(string)
		hash, _ := hit.Fields["OriginalTextHash"].(string)

		out = append(out, domain.Suggestion{
			Mode:                   mode,
			SuggestionText:         enhanced,
			Score:                  hit.Score,
			MatchedHash:            hash,
			MatchedOriginalPreview: preview(original),
			Source:                 suggestionSource,
		})
	}
	return out
}

// preview bounds the matched original to a short display string.
func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= maxPreviewLen {
		return s
	}
	return string(runes[:maxPreviewLen])
}
