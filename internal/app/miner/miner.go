// Package miner turns AI-annotation history into rewrite-map
// candidates: it queries the rewrite-memory index for each annotated
// sense, stores the best suggestions back into the notes blob, and
// upserts gated, high-confidence pairs for operator review.
package miner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/rewrite"
	"github.com/heartmarshall/dictionary-importer/internal/domain"
	"github.com/heartmarshall/dictionary-importer/internal/rewritemem"
)

// Config is one mining run. Zero values fall back to defaults; values
// beyond the caps are clamped.
type Config struct {
	SourceCode             string
	Take                   int     // default 500, cap 5000
	MaxSuggestions         int     // default 3, cap 10
	MinScore               float64 // default 1.2
	WriteCandidatesToSQL   bool
	CandidateMinConfidence float64 // default 0.75, cap 1.0
	MaxCandidatesPerRun    int     // default 300, cap 5000
}

func (c *Config) applyDefaults() {
	c.SourceCode = domain.NormalizeSourceCode(c.SourceCode)
	if c.Take <= 0 {
		c.Take = 500
	}
	if c.Take > 5000 {
		c.Take = 5000
	}
	if c.MaxSuggestions <= 0 {
		c.MaxSuggestions = 3
	}
	if c.MaxSuggestions > 10 {
		c.MaxSuggestions = 10
	}
	if c.MinScore <= 0 {
		c.MinScore = 1.2
	}
	if c.CandidateMinConfidence <= 0 {
		c.CandidateMinConfidence = 0.75
	}
	if c.CandidateMinConfidence > 1.0 {
		c.CandidateMinConfidence = 1.0
	}
	if c.MaxCandidatesPerRun <= 0 {
		c.MaxCandidatesPerRun = 300
	}
	if c.MaxCandidatesPerRun > 5000 {
		c.MaxCandidatesPerRun = 5000
	}
}

// maxExampleLookups bounds how many example originals are queried per
// annotation.
const maxExampleLookups = 10

type Result struct {
	PairsProcessed   int
	UpdatedNotes     int
	CandidateUpserts int
	Duration         time.Duration
}

type Service struct {
	memory      *rewritemem.Memory
	annotations *rewrite.AnnotationRepo
	candidates  *rewrite.CandidateRepo
	rules       *rewrite.RuleRepo
	log         *slog.Logger
}

func NewService(memory *rewritemem.Memory, annotations *rewrite.AnnotationRepo, candidates *rewrite.CandidateRepo, rules *rewrite.RuleRepo, log *slog.Logger) *Service {
	return &Service{
		memory:      memory,
		annotations: annotations,
		candidates:  candidates,
		rules:       rules,
		log:         log,
	}
}

// minedPair is one (fromText, suggestion) observation before gating.
type minedPair struct {
	mode       domain.RewriteMode
	fromText   string
	suggestion domain.Suggestion
}

// Run executes one mining pass.
func (s *Service) Run(ctx context.Context, cfg Config) (Result, error) {
	start := time.Now()
	cfg.applyDefaults()

	// Bring the index up to date first; mining reads through it.
	if _, err := s.memory.Build(ctx, cfg.SourceCode, cfg.Take); err != nil {
		return Result{}, fmt.Errorf("build rewrite-memory index: %w", err)
	}

	pairs, err := s.annotations.GetPairsAfterID(ctx, cfg.SourceCode, 0, cfg.Take)
	if err != nil {
		return Result{}, fmt.Errorf("load annotations for mining: %w", err)
	}

	existingKeys, err := s.rules.ExistingKeys(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load existing rule keys: %w", err)
	}

	res := Result{PairsProcessed: len(pairs)}
	var mined []minedPair

	for _, pair := range pairs {
		var notes domain.AiNotes
		if pair.AiNotesJson != "" {
			_ = json.Unmarshal([]byte(pair.AiNotesJson), &notes)
		}

		observed := s.mineOne(ctx, cfg, pair, notes)
		mined = append(mined, observed...)

		if updated := s.updateNotes(ctx, pair, notes, observed, cfg.MaxSuggestions); updated {
			res.UpdatedNotes++
		}
	}

	if cfg.WriteCandidatesToSQL {
		res.CandidateUpserts = s.upsertCandidates(ctx, cfg, mined, existingKeys)
	}

	res.Duration = time.Since(start)
	s.log.Info(fmt.Sprintf("UpdatedNotes=%d CandidateUpserts=%d", res.UpdatedNotes, res.CandidateUpserts),
		slog.String("source_code", cfg.SourceCode),
		slog.Int("pairs", res.PairsProcessed),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

// mineOne queries the suggestion engine for the three text roles of one
// annotation.
func (s *Service) mineOne(ctx context.Context, cfg Config, pair rewrite.AnnotationPair, notes domain.AiNotes) []minedPair {
	var out []minedPair

	collect := func(mode domain.RewriteMode, fromText string) {
		if domain.CollapseWhitespace(fromText) == "" {
			return
		}
		for _, sg := range s.memory.Suggest(ctx, cfg.SourceCode, mode, fromText, cfg.MaxSuggestions, cfg.MinScore) {
			out = append(out, minedPair{mode: mode, fromText: fromText, suggestion: sg})
		}
	}

	collect(domain.ModeDefinition, pair.OriginalDefinition)

	title := notes.OriginalTitle
	if title == "" {
		title = pair.MeaningTitle
	}
	collect(domain.ModeMeaningTitle, title)

	examples := notes.ExampleRewrites
	if len(examples) > maxExampleLookups {
		examples = examples[:maxExampleLookups]
	}
	for _, ex := range examples {
		collect(domain.ModeExample, ex.Original)
	}
	return out
}

// updateNotes writes the top suggestions back into the annotation's
// notes blob. Returns false when there is nothing to store or the write
// failed.
func (s *Service) updateNotes(ctx context.Context, pair rewrite.AnnotationPair, notes domain.AiNotes, observed []minedPair, maxSuggestions int) bool {
	if len(observed) == 0 {
		return false
	}

	sorted := make([]minedPair, len(observed))
	copy(sorted, observed)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].suggestion.Score != sorted[j].suggestion.Score {
			return sorted[i].suggestion.Score > sorted[j].suggestion.Score
		}
		return sorted[i].suggestion.MatchedHash < sorted[j].suggestion.MatchedHash
	})
	if len(sorted) > maxSuggestions {
		sorted = sorted[:maxSuggestions]
	}

	notes.Suggestions = notes.Suggestions[:0]
	for _, m := range sorted {
		notes.Suggestions = append(notes.Suggestions, domain.StoredSuggestion{
			Mode:        m.mode,
			Text:        m.suggestion.SuggestionText,
			Score:       m.suggestion.Score,
			MatchedHash: m.suggestion.MatchedHash,
			Source:      m.suggestion.Source,
		})
	}

	data, err := json.Marshal(notes)
	if err != nil {
		return false
	}
	if err := s.annotations.UpdateNotes(ctx, pair.ID, string(data)); err != nil {
		s.log.Debug("notes update failed",
			slog.Int64("annotation_id", pair.ID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// upsertCandidates gates, buckets, caps, filters, and persists the
// mined pairs. Candidates are sorted before execution so concurrent
// runs on the same source converge.
func (s *Service) upsertCandidates(ctx context.Context, cfg Config, mined []minedPair, existingKeys map[string]struct{}) int {
	type key struct {
		mode     domain.RewriteMode
		from, to string
	}
	seen := make(map[key]struct{})
	var candidates []domain.RewriteMapCandidate

	for _, m := range mined {
		if len(candidates) >= cfg.MaxCandidatesPerRun {
			break
		}
		from := domain.CollapseWhitespace(m.fromText)
		to := domain.CollapseWhitespace(m.suggestion.SuggestionText)
		if !passesGate(m.mode, from, to) {
			continue
		}

		confidence := domain.ConfidenceForScore(m.suggestion.Score)
		if confidence < cfg.CandidateMinConfidence {
			continue
		}

		if _, exists := existingKeys[rewrite.RuleKey(domain.NormalizeModeCode(string(m.mode)), from)]; exists {
			continue
		}

		k := key{mode: m.mode, from: from, to: to}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		candidates = append(candidates, domain.RewriteMapCandidate{
			SourceCode:         cfg.SourceCode,
			Mode:               string(m.mode),
			FromText:           from,
			ToText:             to,
			SuggestedCount:     1,
			AvgConfidenceScore: confidence,
			Status:             domain.CandidatePending,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Mode != b.Mode {
			return a.Mode < b.Mode
		}
		if a.FromText != b.FromText {
			return a.FromText < b.FromText
		}
		return a.ToText < b.ToText
	})

	upserts := 0
	for _, c := range candidates {
		if err := s.candidates.Upsert(ctx, c); err != nil {
			s.log.Debug("candidate upsert failed",
				slog.String("from", c.FromText),
				slog.String("error", err.Error()),
			)
			continue
		}
		upserts++
	}
	return upserts
}
