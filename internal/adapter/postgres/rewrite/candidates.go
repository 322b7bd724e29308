// Package rewrite persists the rewrite-memory tables: map candidates,
// promoted rules, stop words, and the rule hit log.
package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres"
	"github.com/heartmarshall/dictionary-importer/internal/domain"
)

// psql builds queries with PostgreSQL positional placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type CandidateRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewCandidateRepo(pool *pgxpool.Pool, log *slog.Logger) *CandidateRepo {
	return &CandidateRepo{pool: pool, log: log}
}

const upsertCandidateSQL = `
INSERT INTO rewrite_map_candidate
    (source_code, mode, from_text, to_text, suggested_count, avg_confidence_score, status, first_seen_utc, last_seen_utc)
VALUES ($1, $2, $3, $4, 1, $5, 'Pending', now(), now())
ON CONFLICT (source_code, mode, from_text, to_text) DO UPDATE SET
    suggested_count      = rewrite_map_candidate.suggested_count + 1,
    avg_confidence_score = (rewrite_map_candidate.avg_confidence_score * rewrite_map_candidate.suggested_count
                            + EXCLUDED.avg_confidence_score)
                           / (rewrite_map_candidate.suggested_count + 1),
    last_seen_utc        = now()`

// Upsert records one observation of a (from, to) pair. Re-observation
// increments the count and folds the new confidence into the running
// mean.
func (r *CandidateRepo) Upsert(ctx context.Context, c domain.RewriteMapCandidate) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	_, err := q.Exec(ctx, upsertCandidateSQL,
		domain.NormalizeSourceCode(c.SourceCode), c.Mode, c.FromText, c.ToText, c.AvgConfidenceScore,
	)
	if err != nil {
		return fmt.Errorf("upsert rewrite candidate: %w", err)
	}
	return nil
}

// GetApproved returns up to take Approved candidates, optionally
// filtered by source, in a deterministic order.
func (r *CandidateRepo) GetApproved(ctx context.Context, sourceCode string, take int) ([]domain.RewriteMapCandidate, error) {
	if take <= 0 {
		return nil, nil
	}

	builder := psql.
		Select("id", "source_code", "mode", "from_text", "to_text",
			"suggested_count", "avg_confidence_score", "status", "first_seen_utc", "last_seen_utc").
		From("rewrite_map_candidate").
		Where(sq.Eq{"status": string(domain.CandidateApproved)}).
		OrderBy("mode ASC", "from_text ASC", "to_text ASC", "id ASC").
		Limit(uint64(take))
	if sourceCode != "" {
		builder = builder.Where(sq.Eq{"source_code": domain.NormalizeSourceCode(sourceCode)})
	}

	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build approved-candidate query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query approved candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.RewriteMapCandidate
	for rows.Next() {
		var c domain.RewriteMapCandidate
		err := rows.Scan(&c.ID, &c.SourceCode, &c.Mode, &c.FromText, &c.ToText,
			&c.SuggestedCount, &c.AvgConfidenceScore, &c.Status, &c.FirstSeenUtc, &c.LastSeenUtc)
		if err != nil {
			return nil, fmt.Errorf("scan approved candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MarkPromoted transitions the given candidates to Promoted. Called
// after the rule-upsert transaction commits.
func (r *CandidateRepo) MarkPromoted(ctx context.Context, ids []int64, approvedBy string, approvedUtc time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE rewrite_map_candidate
		 SET status = $2, approved_by = $3, approved_utc = $4
		 WHERE id = ANY($1)`,
		ids, string(domain.CandidatePromoted), approvedBy, approvedUtc,
	)
	if err != nil {
		return fmt.Errorf("mark candidates promoted: %w", err)
	}
	return nil
}
