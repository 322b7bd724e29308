// Package rewritemem maintains the full-text memory of
// (original → enhanced) text pairs mined from AI annotations, and
// serves ranked rewrite suggestions from it.
package rewritemem

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/rewrite"
	"github.com/heartmarshall/dictionary-importer/internal/domain"
	"github.com/heartmarshall/dictionary-importer/internal/text"
)

const (
	// StateFileName sits alongside the index segments and records the
	// incremental-build watermark.
	StateFileName = "_index_state.json"

	// maxIndexedTextLen bounds any text stored in the index.
	maxIndexedTextLen = 800
)

// IndexState is the persisted incremental-build watermark.
type IndexState struct {
	SourceCode                    string    `json:"sourceCode"`
	LastIndexedParsedDefinitionID int64     `json:"lastIndexedParsedDefinitionId"`
	LastIndexedUtc                time.Time `json:"lastIndexedUtc"`
}

// PairSource supplies annotation/parsed pairs beyond a watermark.
// Satisfied by rewrite.AnnotationRepo.
type PairSource interface {
	GetPairsAfterID(ctx context.Context, sourceCode string, afterParsedID int64, take int) ([]rewrite.AnnotationPair, error)
}

// Memory is the rewrite-memory index: a bleve index of suggestion
// tuples plus its watermark state file.
type Memory struct {
	path  string
	log   *slog.Logger
	pairs PairSource
	idx   bleve.Index
}

// Open opens the index at path, creating it (and its directory) when
// absent.
func Open(path string, pairs PairSource, log *slog.Logger) (*Memory, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("create index parent dir: %w", mkErr)
		}
		idx, err = bleve.New(path, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open rewrite-memory index: %w", err)
	}
	return &Memory{path: path, log: log, pairs: pairs, idx: idx}, nil
}

func (m *Memory) Close() error {
	return m.idx.Close()
}

func buildIndexMapping() *mapping.IndexMappingImpl {
	keyword := bleve.NewKeywordFieldMapping()
	keyword.Store = true

	analyzed := bleve.NewTextFieldMapping()
	analyzed.Store = true

	storedOnly := bleve.NewTextFieldMapping()
	storedOnly.Store = true
	storedOnly.Index = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("SourceCode", keyword)
	doc.AddFieldMappingsAt("Mode", keyword)
	doc.AddFieldMappingsAt("OriginalText", analyzed)
	doc.AddFieldMappingsAt("OriginalTextHash", keyword)
	doc.AddFieldMappingsAt("EnhancedText", storedOnly)

	mapping := bleve.NewIndexMapping()
	mapping.DefaultMapping = doc
	return mapping
}

// BuildResult summarizes one incremental build pass.
type BuildResult struct {
	PairsRead   int
	TuplesAdded int
	Watermark   int64
	Duration    time.Duration
}

// Build advances the index incrementally: read annotation pairs beyond
// the persisted watermark, fan each out into up to three modes of
// tuples, write them in deterministic order, then persist the new
// watermark.
func (m *Memory) Build(ctx context.Context, sourceCode string, take int) (BuildResult, error) {
	start := time.Now()
	sourceCode = domain.NormalizeSourceCode(sourceCode)

	state, err := m.loadState()
	if err != nil {
		return BuildResult{}, err
	}
	if state.SourceCode != "" && state.SourceCode != sourceCode {
		return BuildResult{}, fmt.Errorf("index at %s belongs to source %s, not %s", m.path, state.SourceCode, sourceCode)
	}

	pairs, err := m.pairs.GetPairsAfterID(ctx, sourceCode, state.LastIndexedParsedDefinitionID, take)
	if err != nil {
		return BuildResult{}, fmt.Errorf("load annotation pairs: %w", err)
	}

	res := BuildResult{PairsRead: len(pairs), Watermark: state.LastIndexedParsedDefinitionID}
	if len(pairs) == 0 {
		res.Duration = time.Since(start)
		return res, nil
	}

	var tuples []domain.SuggestionIndexRow
	for _, p := range pairs {
		tuples = append(tuples, expandPair(p)...)
		if p.ParsedDefinitionID > res.Watermark {
			res.Watermark = p.ParsedDefinitionID
		}
	}
	sort.Slice(tuples, func(i, j int) bool {
		a, b := tuples[i], tuples[j]
		if a.SourceCode != b.SourceCode {
			return a.SourceCode < b.SourceCode
		}
		if a.Mode != b.Mode {
			return a.Mode < b.Mode
		}
		if a.OriginalText != b.OriginalText {
			return a.OriginalText < b.OriginalText
		}
		return a.EnhancedText < b.EnhancedText
	})

	batch := m.idx.NewBatch()
	for _, tuple := range tuples {
		docID := text.Sha256Hex(tuple.SourceCode + "\x1f" + string(tuple.Mode) + "\x1f" + tuple.OriginalTextHash + "\x1f" + tuple.EnhancedText)
		if err := batch.Index(docID, tuple); err != nil {
			return res, fmt.Errorf("index tuple: %w", err)
		}
	}
	if err := m.idx.Batch(batch); err != nil {
		return res, fmt.Errorf("write index batch: %w", err)
	}
	res.TuplesAdded = len(tuples)

	state.SourceCode = sourceCode
	state.LastIndexedParsedDefinitionID = res.Watermark
	state.LastIndexedUtc = time.Now().UTC()
	if err := m.saveState(state); err != nil {
		return res, err
	}

	res.Duration = time.Since(start)
	m.log.Info("rewrite-memory index advanced",
		slog.String("source_code", sourceCode),
		slog.Int("pairs", res.PairsRead),
		slog.Int("tuples", res.TuplesAdded),
		slog.Int64("watermark", res.Watermark),
	)
	return res, nil
}

// expandPair fans one annotation into definition, title, and example
// tuples.
func expandPair(p rewrite.AnnotationPair) []domain.SuggestionIndexRow {
	var notes domain.AiNotes
	if p.AiNotesJson != "" {
		_ = json.Unmarshal([]byte(p.AiNotesJson), &notes)
	}

	var rows []domain.SuggestionIndexRow
	add := func(mode domain.RewriteMode, original, enhanced string) {
		original = normalizeForIndex(original)
		enhanced = normalizeForIndex(enhanced)
		if original == "" || enhanced == "" || original == enhanced {
			return
		}
		if original == domain.BilingualExampleSentinel || enhanced == domain.BilingualExampleSentinel {
			return
		}
		rows = append(rows, domain.SuggestionIndexRow{
			SourceCode:       p.SourceCode,
			Mode:             mode,
			OriginalText:     original,
			EnhancedText:     enhanced,
			OriginalTextHash: text.Sha256Hex(original),
		})
	}

	add(domain.ModeDefinition, p.OriginalDefinition, p.AiEnhancedDefinition)

	originalTitle := notes.OriginalTitle
	if originalTitle == "" {
		originalTitle = p.MeaningTitle
	}
	add(domain.ModeMeaningTitle, originalTitle, notes.EnhancedTitle)

	examples := notes.ExampleRewrites
	if len(examples) > domain.MaxExampleRewritesPerAnnotation {
		examples = examples[:domain.MaxExampleRewritesPerAnnotation]
	}
	for _, ex := range examples {
		add(domain.ModeExample, ex.Original, ex.Enhanced)
	}
	return rows
}

func normalizeForIndex(s string) string {
	return domain.Truncate(domain.CollapseWhitespace(s), maxIndexedTextLen)
}

func (m *Memory) statePath() string {
	return filepath.Join(m.path, StateFileName)
}

func (m *Memory) loadState() (IndexState, error) {
	var state IndexState
	data, err := os.ReadFile(m.statePath())
	if os.IsNotExist(err) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("read index state: %w", err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("parse index state: %w", err)
	}
	return state, nil
}

func (m *Memory) saveState(state IndexState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index state: %w", err)
	}
	if err := os.WriteFile(m.statePath(), data, 0o644); err != nil {
		return fmt.Errorf("write index state: %w", err)
	}
	return nil
}
