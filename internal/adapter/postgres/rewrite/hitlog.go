package rewrite

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/batcher"
	"github.com/heartmarshall/dictionary-importer/internal/domain"
)

const upsertHitSQL = `
INSERT INTO rewrite_rule_hit_log
    (source_code, mode, rule_type, rule_key, hit_count, first_hit_utc, last_hit_utc)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (source_code, mode, rule_type, rule_key) DO UPDATE SET
    hit_count    = rewrite_rule_hit_log.hit_count + EXCLUDED.hit_count,
    last_hit_utc = GREATEST(rewrite_rule_hit_log.last_hit_utc, EXCLUDED.last_hit_utc)`

// HitBuffer accumulates rule applications in memory during a run and
// flushes them to rewrite_rule_hit_log through the batcher at run end.
// Purely telemetric; nothing here may fail the run.
type HitBuffer struct {
	batcher *batcher.Batcher
	log     *slog.Logger

	mu   sync.Mutex
	hits map[domain.RuleHitKey]*domain.RuleHit
}

func NewHitBuffer(b *batcher.Batcher, log *slog.Logger) *HitBuffer {
	return &HitBuffer{
		batcher: b,
		log:     log,
		hits:    make(map[domain.RuleHitKey]*domain.RuleHit),
	}
}

// Record counts one application of a rule.
func (h *HitBuffer) Record(sourceCode, mode, ruleType, ruleKey string) {
	key := domain.RuleHitKey{
		SourceCode: domain.NormalizeSourceCode(sourceCode),
		Mode:       mode,
		RuleType:   ruleType,
		RuleKey:    domain.Truncate(ruleKey, 400),
	}
	now := time.Now().UTC()

	h.mu.Lock()
	defer h.mu.Unlock()
	hit, ok := h.hits[key]
	if !ok {
		h.hits[key] = &domain.RuleHit{RuleHitKey: key, HitCount: 1, FirstHitUtc: now, LastHitUtc: now}
		return
	}
	hit.HitCount++
	hit.LastHitUtc = now
}

// Flush drains the buffer into the hit log. Hits are queued in sorted
// key order so concurrent runs upsert in the same sequence.
func (h *HitBuffer) Flush(ctx context.Context) {
	h.mu.Lock()
	drained := make([]*domain.RuleHit, 0, len(h.hits))
	for _, hit := range h.hits {
		drained = append(drained, hit)
	}
	h.hits = make(map[domain.RuleHitKey]*domain.RuleHit)
	h.mu.Unlock()

	if len(drained) == 0 {
		return
	}
	sort.Slice(drained, func(i, j int) bool {
		a, b := drained[i].RuleHitKey, drained[j].RuleHitKey
		if a.SourceCode != b.SourceCode {
			return a.SourceCode < b.SourceCode
		}
		if a.Mode != b.Mode {
			return a.Mode < b.Mode
		}
		if a.RuleType != b.RuleType {
			return a.RuleType < b.RuleType
		}
		return a.RuleKey < b.RuleKey
	})

	for _, hit := range drained {
		h.batcher.Queue(ctx, "rule_hit", upsertHitSQL,
			hit.SourceCode, hit.Mode, hit.RuleType, hit.RuleKey,
			hit.HitCount, hit.FirstHitUtc, hit.LastHitUtc)
	}
	h.batcher.FlushAll(ctx)

	h.log.Debug("rule hit log flushed", slog.Int("keys", len(drained)))
}
