package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres"
	"github.com/heartmarshall/dictionary-importer/internal/domain"
)

type RuleRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewRuleRepo(pool *pgxpool.Pool, log *slog.Logger) *RuleRepo {
	return &RuleRepo{pool: pool, log: log}
}

// GetEnabled loads the enabled rules applicable to a mode (mode-specific
// plus global) in application order: priority ascending, then longer
// fromText first, then fromText, then id.
func (r *RuleRepo) GetEnabled(ctx context.Context, modeCode string) ([]domain.RewriteRule, error) {
	builder := psql.
		Select("id", "from_text", "to_text", "mode_code", "is_whole_word", "is_regex",
			"priority", "enabled", "COALESCE(notes, '')").
		From("rewrite_rule").
		Where(sq.Eq{"enabled": true}).
		OrderBy("priority ASC", "length(from_text) DESC", "from_text ASC", "id ASC")
	if modeCode != "" {
		builder = builder.Where(sq.Or{sq.Eq{"mode_code": modeCode}, sq.Eq{"mode_code": nil}})
	}

	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build rule query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query rewrite rules: %w", err)
	}
	defer rows.Close()

	var out []domain.RewriteRule
	for rows.Next() {
		var rule domain.RewriteRule
		err := rows.Scan(&rule.ID, &rule.FromText, &rule.ToText, &rule.ModeCode,
			&rule.IsWholeWord, &rule.IsRegex, &rule.Priority, &rule.Enabled, &rule.Notes)
		if err != nil {
			return nil, fmt.Errorf("scan rewrite rule: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

const upsertRuleSQL = `
INSERT INTO rewrite_rule
    (from_text, to_text, mode_code, is_whole_word, is_regex, priority, enabled, notes, created_utc, updated_utc)
VALUES ($1, $2, $3, $4, $5, $6, true, $7, now(), now())
ON CONFLICT (COALESCE(mode_code, ''), from_text, is_whole_word, is_regex) DO UPDATE SET
    to_text     = EXCLUDED.to_text,
    priority    = EXCLUDED.priority,
    enabled     = true,
    notes       = EXCLUDED.notes,
    updated_utc = now()`

// Upsert inserts or refreshes a rule under its uniqueness key
// (modeCode ?? '', fromText, isWholeWord, isRegex).
func (r *RuleRepo) Upsert(ctx context.Context, rule domain.RewriteRule) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	_, err := q.Exec(ctx, upsertRuleSQL,
		rule.FromText, rule.ToText, rule.ModeCode, rule.IsWholeWord, rule.IsRegex,
		rule.Priority, domain.Truncate(rule.Notes, 200),
	)
	if err != nil {
		return fmt.Errorf("upsert rewrite rule: %w", err)
	}
	return nil
}

// ExistingKeys returns the set of (modeCode ?? '', fromText) pairs
// already present in the rule table, for candidate filtering.
func (r *RuleRepo) ExistingKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx,
		`SELECT COALESCE(mode_code, ''), from_text FROM rewrite_rule`,
	)
	if err != nil {
		return nil, fmt.Errorf("query rule keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var mode, from string
		if err := rows.Scan(&mode, &from); err != nil {
			return nil, fmt.Errorf("scan rule key: %w", err)
		}
		keys[RuleKey(mode, from)] = struct{}{}
	}
	return keys, rows.Err()
}

// RuleKey is the canonical lookup key for rule-existence checks.
func RuleKey(modeCode, fromText string) string {
	return modeCode + "\x1f" + strings.ToLower(strings.TrimSpace(fromText))
}

// GetStopWords loads the stop-word list used by the title-case service.
// The mode column is intentionally ignored: the list is global per run.
func (r *RuleRepo) GetStopWords(ctx context.Context) ([]string, error) {
	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx,
		`SELECT word FROM rewrite_stop_word ORDER BY word`,
	)
	if err != nil {
		return nil, fmt.Errorf("query stop words: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scan stop word: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}
