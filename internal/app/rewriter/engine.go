// Package rewriter applies promoted rewrite rules to dictionary text at
// parse time.
package rewriter

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/rewrite"
	"github.com/heartmarshall/dictionary-importer/internal/domain"
	"github.com/heartmarshall/dictionary-importer/internal/text"
)

// Rule types recorded in the hit log.
const (
	ruleTypeWholeWord = "WholeWord"
	ruleTypeRegex     = "Regex"
)

type compiledRule struct {
	rule domain.RewriteRule
	re   *regexp.Regexp
}

// Engine holds the compiled rule sets for the modes seen during a run.
// Rules are loaded once per mode and applied to protected-token-masked
// text, so URLs, versions, and abbreviations never match a rule.
type Engine struct {
	rules *rewrite.RuleRepo
	hits  *rewrite.HitBuffer
	log   *slog.Logger

	mu       sync.RWMutex
	compiled map[string][]compiledRule
}

func NewEngine(rules *rewrite.RuleRepo, hits *rewrite.HitBuffer, log *slog.Logger) *Engine {
	return &Engine{
		rules:    rules,
		hits:     hits,
		log:      log,
		compiled: make(map[string][]compiledRule),
	}
}

// Apply rewrites input under the rules enabled for mode. Rules run
// sequentially in their load order (priority asc, longer fromText
// first); each application is counted in the hit buffer. Failures to
// load rules leave the input unchanged.
func (e *Engine) Apply(ctx context.Context, sourceCode string, mode domain.RewriteMode, input string) string {
	if domain.CollapseWhitespace(input) == "" {
		return input
	}

	modeCode := domain.NormalizeModeCode(string(mode))
	rules, err := e.rulesFor(ctx, modeCode)
	if err != nil {
		e.log.Warn("rewrite rules unavailable, text passed through",
			slog.String("mode_code", modeCode),
			slog.String("error", err.Error()),
		)
		return input
	}
	if len(rules) == 0 {
		return input
	}

	masked := text.Protect(input)
	out := masked.Text
	for _, cr := range rules {
		var next string
		if cr.rule.IsRegex {
			next = cr.re.ReplaceAllString(out, cr.rule.ToText)
		} else {
			next = cr.re.ReplaceAllLiteralString(out, cr.rule.ToText)
		}
		if next == out {
			continue
		}
		out = next

		ruleType := ruleTypeWholeWord
		if cr.rule.IsRegex {
			ruleType = ruleTypeRegex
		}
		e.hits.Record(sourceCode, modeCode, ruleType, cr.rule.FromText)
	}
	return text.Restore(out, masked.Tokens)
}

// FlushHits drains the accumulated hit counters at end of run.
func (e *Engine) FlushHits(ctx context.Context) {
	e.hits.Flush(ctx)
}

// SyncStopWords replaces the title-caser stop words with the rows from
// rewrite_stop_word.
func (e *Engine) SyncStopWords(ctx context.Context, caser *text.TitleCaser) error {
	words, err := e.rules.GetStopWords(ctx)
	if err != nil {
		return fmt.Errorf("sync stop words: %w", err)
	}
	if len(words) == 0 {
		return nil
	}
	caser.SetStopWords(words)
	return nil
}

// rulesFor returns the compiled rule set for a mode code, loading it on
// first use.
func (e *Engine) rulesFor(ctx context.Context, modeCode string) ([]compiledRule, error) {
	e.mu.RLock()
	cached, ok := e.compiled[modeCode]
	e.mu.RUnlock()
	if ok {
		return cached, nil
	}

	loaded, err := e.rules.GetEnabled(ctx, modeCode)
	if err != nil {
		return nil, err
	}

	compiled := compileRules(loaded, e.log)

	e.mu.Lock()
	e.compiled[modeCode] = compiled
	e.mu.Unlock()
	return compiled, nil
}

// compileRules turns rule rows into matchers, preserving application
// order. Rules whose pattern does not compile are skipped.
func compileRules(rules []domain.RewriteRule, log *slog.Logger) []compiledRule {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		re, err := compileRule(r)
		if err != nil {
			log.Warn("rewrite rule skipped",
				slog.Int64("rule_id", r.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		out = append(out, compiledRule{rule: r, re: re})
	}
	return out
}

func compileRule(r domain.RewriteRule) (*regexp.Regexp, error) {
	if r.IsRegex {
		return regexp.Compile(r.FromText)
	}
	if r.IsWholeWord {
		return regexp.Compile(`(?i)\b` + regexp.QuoteMeta(r.FromText) + `\b`)
	}
	return regexp.Compile(`(?i)` + regexp.QuoteMeta(r.FromText))
}
