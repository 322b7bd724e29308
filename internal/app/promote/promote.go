// Package promote converts approved rewrite-map candidates into
// authoritative rewrite rules.
package promote

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres"
	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/rewrite"
	"github.com/heartmarshall/dictionary-importer/internal/domain"
)

// maxRuleTextLen bounds from/to texts at promotion time.
const maxRuleTextLen = 400

type Config struct {
	SourceCode string
	Take       int // default 500, cap 5000
	PromotedBy string
}

type Result struct {
	Promoted int
	Skipped  int
	Duration time.Duration
}

type Service struct {
	txm        *postgres.TxManager
	candidates *rewrite.CandidateRepo
	rules      *rewrite.RuleRepo
	log        *slog.Logger
}

func NewService(txm *postgres.TxManager, candidates *rewrite.CandidateRepo, rules *rewrite.RuleRepo, log *slog.Logger) *Service {
	return &Service{txm: txm, candidates: candidates, rules: rules, log: log}
}

// Run promotes up to Take approved candidates into rewrite_rule within
// one transaction, then marks the promoted candidates after the commit.
// Not retried internally; the caller reinvokes on failure.
func (s *Service) Run(ctx context.Context, cfg Config) (Result, error) {
	start := time.Now()
	if cfg.Take <= 0 {
		cfg.Take = 500
	}
	if cfg.Take > 5000 {
		cfg.Take = 5000
	}
	if cfg.PromotedBy == "" {
		cfg.PromotedBy = "system"
	}

	approved, err := s.candidates.GetApproved(ctx, cfg.SourceCode, cfg.Take)
	if err != nil {
		return Result{}, fmt.Errorf("load approved candidates: %w", err)
	}

	src := "ALL"
	if cfg.SourceCode != "" {
		src = domain.NormalizeSourceCode(cfg.SourceCode)
	}
	now := time.Now().UTC()
	notes := domain.Truncate(
		fmt.Sprintf("PROMOTED_BY=%s;SRC=%s;UTC=%s", cfg.PromotedBy, src, now.Format("2006-01-02")),
		200)

	var res Result
	var toMark []int64

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		for _, c := range approved {
			rule, ok := ruleFromCandidate(c, notes)
			if !ok {
				res.Skipped++
				continue
			}
			if err := s.rules.Upsert(txCtx, rule); err != nil {
				return fmt.Errorf("promote candidate %d: %w", c.ID, err)
			}
			toMark = append(toMark, c.ID)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	// Marking happens outside the rule transaction: a crash here leaves
	// candidates Approved, and the next run re-upserts the same rules
	// idempotently.
	if err := s.candidates.MarkPromoted(ctx, toMark, cfg.PromotedBy, now); err != nil {
		return Result{}, err
	}

	res.Promoted = len(toMark)
	res.Duration = time.Since(start)
	s.log.Info(fmt.Sprintf("Promoted=%d", res.Promoted),
		slog.String("source_code", cfg.SourceCode),
		slog.Int("skipped", res.Skipped),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

// ruleFromCandidate maps one approved candidate onto a rule row.
// Returns false for blanks and identity rewrites.
func ruleFromCandidate(c domain.RewriteMapCandidate, notes string) (domain.RewriteRule, bool) {
	from := domain.Truncate(domain.CollapseWhitespace(c.FromText), maxRuleTextLen)
	to := domain.Truncate(domain.CollapseWhitespace(c.ToText), maxRuleTextLen)
	if from == "" || to == "" || from == to {
		return domain.RewriteRule{}, false
	}

	mode := domain.NormalizeModeCode(c.Mode)
	return domain.RewriteRule{
		FromText:    from,
		ToText:      to,
		ModeCode:    &mode,
		IsWholeWord: true,
		IsRegex:     false,
		Priority:    domain.RulePriority(c.SuggestedCount, c.AvgConfidenceScore),
		Enabled:     true,
		Notes:       notes,
	}, true
}
