// Package importer orchestrates the per-source import pipeline:
// staging load, source completion, and finalization into the canonical
// tables.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/staging"
	"github.com/heartmarshall/dictionary-importer/internal/domain"
)

// allPhases defines the canonical execution order per source.
var allPhases = []string{"staging", "completion", "finalize"}

// Adaptive batch-size bounds for the staging phase. The loader grows
// the batch after fast flushes and shrinks it after slow ones.
const (
	minStagingBatch  = 500
	maxStagingBatch  = 4000
	stagingBatchStep = 250
	growBelow        = 300 * time.Millisecond
	shrinkAbove      = 1200 * time.Millisecond
)

// EntryReader yields parsed raw entries for one source. Next returns at
// most max entries; an empty slice signals exhaustion.
type EntryReader interface {
	Next(ctx context.Context, max int) ([]domain.RawEntry, error)
}

// StagingStore is the staging surface the pipeline drives.
type StagingStore interface {
	EnsureSource(ctx context.Context, sourceCode string) error
	Load(ctx context.Context, entries []domain.RawEntry) (staging.LoadResult, error)
	MarkSourceCompleted(ctx context.Context, sourceCode string) (bool, error)
	TryFinalize(ctx context.Context, sourceCode string) error
}

// PhaseResult holds the outcome of a single pipeline phase.
type PhaseResult struct {
	Inserted int
	Skipped  int
	Errors   int
	Duration time.Duration
	Err      error
}

// Pipeline runs the three-phase import for one source. Multiple
// pipelines may run concurrently for different sources; finalize
// itself is serialized by the database advisory lock.
type Pipeline struct {
	log     *slog.Logger
	store   StagingStore
	results map[string]PhaseResult

	allComplete bool
}

func NewPipeline(log *slog.Logger, store StagingStore) *Pipeline {
	return &Pipeline{
		log:     log,
		store:   store,
		results: make(map[string]PhaseResult),
	}
}

// Results returns phase results after Run completes.
func (p *Pipeline) Results() map[string]PhaseResult {
	return p.results
}

// HasErrors returns true if any phase recorded errors.
func (p *Pipeline) HasErrors() bool {
	for _, r := range p.results {
		if r.Err != nil || r.Errors > 0 {
			return true
		}
	}
	return false
}

// Run executes the phases in order for one source. The staging phase
// absorbs per-batch persistence failures; completion and finalize
// failures stop the run.
func (p *Pipeline) Run(ctx context.Context, sourceCode string, reader EntryReader) error {
	runID := uuid.New().String()
	code := domain.NormalizeSourceCode(sourceCode)
	log := p.log.With(slog.String("run_id", runID), slog.String("source_code", code))

	for _, phase := range allPhases {
		start := time.Now()
		log.Info("starting phase", slog.String("phase", phase))

		var result PhaseResult
		switch phase {
		case "staging":
			result = p.runStaging(ctx, log, code, reader)
		case "completion":
			result = p.runCompletion(ctx, code)
		case "finalize":
			result = p.runFinalize(ctx, log, code)
		}
		result.Duration = time.Since(start)
		p.results[phase] = result

		if result.Err != nil {
			log.Warn("phase failed",
				slog.String("phase", phase),
				slog.String("error", result.Err.Error()),
				slog.Duration("duration", result.Duration),
			)
			return fmt.Errorf("phase %s: %w", phase, result.Err)
		}
		log.Info("phase completed",
			slog.String("phase", phase),
			slog.Int("inserted", result.Inserted),
			slog.Int("skipped", result.Skipped),
			slog.Int("errors", result.Errors),
			slog.Duration("duration", result.Duration),
		)
	}

	log.Info("import pipeline completed")
	return nil
}

// runStaging drains the reader into the staging table with an adaptive
// batch size.
func (p *Pipeline) runStaging(ctx context.Context, log *slog.Logger, code string, reader EntryReader) PhaseResult {
	if err := p.store.EnsureSource(ctx, code); err != nil {
		return PhaseResult{Err: err}
	}

	var result PhaseResult
	batchSize := minStagingBatch
	for {
		entries, err := reader.Next(ctx, batchSize)
		if err != nil {
			return PhaseResult{Err: fmt.Errorf("read entries: %w", err)}
		}
		if len(entries) == 0 {
			return result
		}

		res, err := p.store.Load(ctx, entries)
		if err != nil {
			// Only cancellation propagates out of Load.
			return PhaseResult{Err: err}
		}
		result.Inserted += int(res.Inserted)
		result.Skipped += res.Dropped + res.Duplicates
		if res.Err != nil {
			result.Errors++
		}

		log.Info(fmt.Sprintf("Inserted=%d Attempted=%d", res.Inserted, res.Attempted),
			slog.Int("batch_size", batchSize),
			slog.Duration("duration", res.Duration),
		)
		batchSize = nextBatchSize(batchSize, res.Duration)
	}
}

func (p *Pipeline) runCompletion(ctx context.Context, code string) PhaseResult {
	allComplete, err := p.store.MarkSourceCompleted(ctx, code)
	if err != nil {
		return PhaseResult{Err: err}
	}
	p.allComplete = allComplete
	return PhaseResult{}
}

// runFinalize promotes staged rows once every registered source has
// completed. When other sources are still loading the phase is a
// recorded skip, and the last source to complete performs the work.
func (p *Pipeline) runFinalize(ctx context.Context, log *slog.Logger, code string) PhaseResult {
	if !p.allComplete {
		log.Info("finalize deferred, sources still loading")
		return PhaseResult{Skipped: 1}
	}
	if err := p.store.TryFinalize(ctx, code); err != nil {
		return PhaseResult{Err: err}
	}
	return PhaseResult{}
}

// nextBatchSize adapts the staging batch size to the observed flush
// time, in fixed steps within [minStagingBatch, maxStagingBatch].
func nextBatchSize(current int, took time.Duration) int {
	size := current
	switch {
	case took < growBelow:
		size += stagingBatchStep
	case took > shrinkAbove:
		size -= stagingBatchStep
	}
	if size < minStagingBatch {
		size = minStagingBatch
	}
	if size > maxStagingBatch {
		size = maxStagingBatch
	}
	return size
}
