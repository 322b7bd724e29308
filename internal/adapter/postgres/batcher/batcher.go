// Package batcher provides a generic asynchronous SQL write batcher.
//
// Callers queue (template, args) operations under an operation key; the
// batcher groups operations per key, flushes them in a single pipelined
// round trip when the key fills up or a timer fires, retries deadlocks,
// splits oversized batches, and diverts irrecoverably failing batches to
// a recovery table instead of surfacing the error to the hot path.
package batcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres"
)

const (
	// flushInterval is how often the background ticker sweeps partially
	// filled keys.
	flushInterval = 2 * time.Second

	// closeFlushTimeout bounds the final flush performed by Close.
	closeFlushTimeout = 10 * time.Second

	deadlockRetries = 3
	deadlockBackoff = 100 * time.Millisecond
)

// Config tunes a Batcher. Zero values fall back to package defaults.
type Config struct {
	// MaxBatchSize caps operations per key before a synchronous flush.
	// The effective cap may be lower for parameter-heavy templates.
	MaxBatchSize int

	// FlushInterval overrides the background sweep period.
	FlushInterval time.Duration
}

type op struct {
	args []any
}

// keyBatch accumulates queued operations for one operation key. The
// inFlight channel is a single-flight gate: only one flush per key runs
// at a time, and queuers for a full key wait their turn.
type keyBatch struct {
	template string
	maxSafe  int

	mu       sync.Mutex
	ops      []op
	inFlight chan struct{}
}

// Batcher groups homogeneous INSERT/UPDATE statements and executes them
// in pipelined batches. All Queue failures are absorbed: a batch that
// cannot be written after retries goes to the recovery table and the
// caller never sees an error. Use ExecuteImmediate when the caller must
// observe failure.
type Batcher struct {
	pool     *pgxpool.Pool
	log      *slog.Logger
	cfg      Config
	recovery *recoverySink

	mu      sync.Mutex
	batches map[string]*keyBatch

	stopTicker chan struct{}
	tickerDone chan struct{}
	closeOnce  sync.Once
}

func New(pool *pgxpool.Pool, log *slog.Logger, cfg Config) *Batcher {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = flushInterval
	}
	b := &Batcher{
		pool:       pool,
		log:        log,
		cfg:        cfg,
		recovery:   &recoverySink{pool: pool, log: log},
		batches:    make(map[string]*keyBatch),
		stopTicker: make(chan struct{}),
		tickerDone: make(chan struct{}),
	}
	go b.runTicker()
	return b
}

func (b *Batcher) runTicker() {
	defer close(b.tickerDone)
	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stopTicker:
			return
		case <-ticker.C:
			b.FlushAll(context.Background())
		}
	}
}

func (b *Batcher) batchFor(key, template string) *keyBatch {
	b.mu.Lock()
	defer b.mu.Unlock()
	kb, ok := b.batches[key]
	if !ok {
		kb = &keyBatch{
			template: template,
			maxSafe:  maxSafeBatchSize(template, b.cfg.MaxBatchSize),
			inFlight: make(chan struct{}, 1),
		}
		b.batches[key] = kb
	}
	return kb
}

// Queue adds one operation under key. When the key reaches its safe
// batch size the accumulated batch is flushed synchronously on the
// calling goroutine. Queue never returns an error: failed batches are
// absorbed into the recovery table.
func (b *Batcher) Queue(ctx context.Context, key, template string, args ...any) {
	kb := b.batchFor(key, template)

	kb.mu.Lock()
	kb.ops = append(kb.ops, op{args: args})
	full := len(kb.ops) >= kb.maxSafe
	kb.mu.Unlock()

	if full {
		b.flushKey(ctx, key, kb)
	}
}

// FlushAll drains every key that has pending operations.
func (b *Batcher) FlushAll(ctx context.Context) {
	b.mu.Lock()
	keys := make(map[string]*keyBatch, len(b.batches))
	for k, kb := range b.batches {
		keys[k] = kb
	}
	b.mu.Unlock()

	for k, kb := range keys {
		b.flushKey(ctx, k, kb)
	}
}

// flushKey drains one key under its single-flight gate. Concurrent
// callers for the same key serialize here.
func (b *Batcher) flushKey(ctx context.Context, key string, kb *keyBatch) {
	select {
	case kb.inFlight <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-kb.inFlight }()

	kb.mu.Lock()
	ops := kb.ops
	kb.ops = nil
	kb.mu.Unlock()

	if len(ops) == 0 {
		return
	}
	b.execChunked(ctx, key, kb.template, ops, kb.maxSafe)
}

// execChunked writes ops in budget-sized chunks, halving chunks that
// still trip the engine's parameter limit.
func (b *Batcher) execChunked(ctx context.Context, key, template string, ops []op, chunkSize int) {
	if chunkSize < 1 {
		chunkSize = 1
	}
	for start := 0; start < len(ops); start += chunkSize {
		end := start + chunkSize
		if end > len(ops) {
			end = len(ops)
		}
		chunk := ops[start:end]

		err := b.execWithRetry(ctx, key, template, chunk)
		if err == nil {
			continue
		}
		if postgres.IsParamOverflow(err) && len(chunk) > 1 {
			b.log.Warn("batch exceeded parameter limit, splitting",
				slog.String("operation_key", key),
				slog.Int("operations", len(chunk)),
			)
			b.execChunked(ctx, key, template, chunk, len(chunk)/2)
			continue
		}
		if postgres.IsCancellation(err) {
			b.log.Debug("batch flush cancelled",
				slog.String("operation_key", key),
				slog.Int("operations", len(chunk)),
			)
			return
		}
		b.recovery.persist(context.WithoutCancel(ctx), key, template, chunk, err)
	}
}

// execWithRetry sends one chunk as a pipelined batch, retrying deadlocks
// with linear backoff.
func (b *Batcher) execWithRetry(ctx context.Context, key, template string, ops []op) error {
	var lastErr error
	for attempt := 1; attempt <= deadlockRetries; attempt++ {
		start := time.Now()
		affected, err := b.sendBatch(ctx, template, ops)
		if err == nil {
			b.log.Debug("batch flushed",
				slog.String("operation_key", key),
				slog.Int("operations", len(ops)),
				slog.Int64("rows_affected", affected),
				slog.Duration("duration", time.Since(start)),
			)
			return nil
		}
		lastErr = err
		if !postgres.IsDeadlock(err) {
			return err
		}
		b.log.Warn("batch deadlocked, retrying",
			slog.String("operation_key", key),
			slog.Int("attempt", attempt),
		)
		select {
		case <-time.After(deadlockBackoff * time.Duration(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func (b *Batcher) sendBatch(ctx context.Context, template string, ops []op) (int64, error) {
	batch := &pgx.Batch{}
	for _, o := range ops {
		batch.Queue(template, o.args...)
	}
	br := b.pool.SendBatch(ctx, batch)
	defer br.Close()

	var affected int64
	for range ops {
		ct, err := br.Exec()
		if err != nil {
			return affected, err
		}
		affected += ct.RowsAffected()
	}
	return affected, nil
}

// ExecuteImmediate bypasses queuing and runs a single statement now,
// with the same deadlock retry policy. Unlike Queue, errors propagate.
func (b *Batcher) ExecuteImmediate(ctx context.Context, template string, args ...any) (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= deadlockRetries; attempt++ {
		ct, err := b.pool.Exec(ctx, template, args...)
		if err == nil {
			return ct.RowsAffected(), nil
		}
		lastErr = err
		if !postgres.IsDeadlock(err) {
			return 0, err
		}
		select {
		case <-time.After(deadlockBackoff * time.Duration(attempt)):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return 0, lastErr
}

// PendingCount reports queued-but-unflushed operations across all keys.
func (b *Batcher) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, kb := range b.batches {
		kb.mu.Lock()
		total += len(kb.ops)
		kb.mu.Unlock()
	}
	return total
}

// Close stops the background ticker and performs a final bounded flush
// of everything still queued. Safe to call more than once.
func (b *Batcher) Close() {
	b.closeOnce.Do(func() {
		close(b.stopTicker)
		<-b.tickerDone

		ctx, cancel := context.WithTimeout(context.Background(), closeFlushTimeout)
		defer cancel()
		b.FlushAll(ctx)

		if n := b.PendingCount(); n > 0 {
			b.log.Warn("batcher closed with operations still pending", slog.Int("pending", n))
		}
	})
}
