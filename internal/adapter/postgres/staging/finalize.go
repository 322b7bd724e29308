package staging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres"
	"github.com/heartmarshall/dictionary-importer/internal/domain"
)

const (
	finalizeTimeout      = 600 * time.Second
	finalizeLockRetries  = 20
	finalizeLockBackoff  = 1 * time.Second
	finalizeDeadlockWait = 500 * time.Millisecond
)

// EnsureSource registers a source code in the import control table so
// completion tracking can see it. Idempotent.
func (l *Loader) EnsureSource(ctx context.Context, sourceCode string) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO dictionary_import_source (source_code, registered_utc)
		 VALUES ($1, now())
		 ON CONFLICT (source_code) DO NOTHING`,
		domain.NormalizeSourceCode(sourceCode),
	)
	if err != nil {
		return fmt.Errorf("ensure import source: %w", err)
	}
	return nil
}

// MarkSourceCompleted records that a source finished staging and reports
// whether every registered source is now complete.
func (l *Loader) MarkSourceCompleted(ctx context.Context, sourceCode string) (bool, error) {
	code := domain.NormalizeSourceCode(sourceCode)

	_, err := l.pool.Exec(ctx,
		`UPDATE dictionary_import_source
		 SET completed_utc = now()
		 WHERE source_code = $1 AND completed_utc IS NULL`,
		code,
	)
	if err != nil {
		return false, fmt.Errorf("mark source completed: %w", err)
	}

	var allComplete bool
	err = l.pool.QueryRow(ctx,
		`SELECT NOT EXISTS (SELECT 1 FROM dictionary_import_source WHERE completed_utc IS NULL)`,
	).Scan(&allComplete)
	if err != nil {
		return false, fmt.Errorf("check source completion: %w", err)
	}

	l.log.Info("source completed",
		slog.String("source_code", code),
		slog.Bool("all_complete", allComplete),
	)
	return allComplete, nil
}

// TryFinalize moves staged rows into the canonical tables by calling
// dictionary_import_finalize(), which serializes finalization across
// processes with an advisory transaction lock. Lock-busy waits 1 s per
// attempt, deadlocks wait 500 ms times the attempt number; after 20
// attempts the failure is wrapped in domain.ErrFinalizeFailed.
//
// This is the only staging method whose database failures propagate.
func (l *Loader) TryFinalize(ctx context.Context, sourceCode string) error {
	code := domain.NormalizeSourceCode(sourceCode)

	ctx, cancel := context.WithTimeout(ctx, finalizeTimeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= finalizeLockRetries; attempt++ {
		start := time.Now()
		_, err := l.pool.Exec(ctx, `SELECT dictionary_import_finalize($1)`, code)
		if err == nil {
			l.log.Info("staging finalized",
				slog.String("source_code", code),
				slog.Duration("duration", time.Since(start)),
			)
			return nil
		}
		lastErr = err

		var wait time.Duration
		switch {
		case postgres.IsLockNotAvailable(err):
			lastErr = fmt.Errorf("%w: %s", domain.ErrLockBusy, err.Error())
			wait = finalizeLockBackoff
		case postgres.IsDeadlock(err):
			wait = finalizeDeadlockWait * time.Duration(attempt)
		case postgres.IsCancellation(err):
			return fmt.Errorf("finalize %s: %w", code, err)
		default:
			return fmt.Errorf("%w: source %s: %s", domain.ErrFinalizeFailed, code, err.Error())
		}

		l.log.Warn("finalize contended, retrying",
			slog.String("source_code", code),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("finalize %s: %w", code, ctx.Err())
		}
	}

	l.log.Error("finalize exhausted retries",
		slog.String("source_code", code),
		slog.Int("attempts", finalizeLockRetries),
		slog.String("error", lastErr.Error()),
	)
	return fmt.Errorf("%w: source %s after %d attempts: %s",
		domain.ErrFinalizeFailed, code, finalizeLockRetries, lastErr.Error())
}
