package rewrite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres"
	"github.com/heartmarshall/dictionary-importer/internal/domain"
)

type AnnotationRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewAnnotationRepo(pool *pgxpool.Pool, log *slog.Logger) *AnnotationRepo {
	return &AnnotationRepo{pool: pool, log: log}
}

// AnnotationPair is one annotation joined with its parsed sense, the
// unit consumed by the index builder and the mining step.
type AnnotationPair struct {
	domain.AiAnnotation
	MeaningTitle string
}

const pairsAfterIDSQL = `
SELECT a.id, a.source_code, a.parsed_id, a.original_definition,
       a.ai_enhanced_definition, COALESCE(a.ai_notes_json, ''),
       COALESCE(a.provider, ''), COALESCE(a.model, ''), a.created_utc,
       p.meaning_title
FROM dictionary_entry_ai_annotation a
JOIN dictionary_entry_parsed p ON p.id = a.parsed_id
WHERE a.source_code = $1 AND a.parsed_id > $2
ORDER BY a.parsed_id ASC, a.id ASC
LIMIT $3`

// GetPairsAfterID returns up to take annotation/parsed pairs for a
// source with parsed id beyond the given watermark, ordered by parsed
// id so the caller can advance its index state monotonically.
func (r *AnnotationRepo) GetPairsAfterID(ctx context.Context, sourceCode string, afterParsedID int64, take int) ([]AnnotationPair, error) {
	if take < 1 {
		take = 1
	}
	if take > 5000 {
		take = 5000
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, pairsAfterIDSQL,
		domain.NormalizeSourceCode(sourceCode), afterParsedID, take)
	if err != nil {
		return nil, fmt.Errorf("query annotation pairs: %w", err)
	}
	defer rows.Close()

	var out []AnnotationPair
	for rows.Next() {
		var p AnnotationPair
		err := rows.Scan(&p.ID, &p.SourceCode, &p.ParsedDefinitionID, &p.OriginalDefinition,
			&p.AiEnhancedDefinition, &p.AiNotesJson, &p.Provider, &p.Model, &p.CreatedUtc,
			&p.MeaningTitle)
		if err != nil {
			return nil, fmt.Errorf("scan annotation pair: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateNotes replaces the notes JSON blob on one annotation.
func (r *AnnotationRepo) UpdateNotes(ctx context.Context, annotationID int64, notesJSON string) error {
	_, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx,
		`UPDATE dictionary_entry_ai_annotation SET ai_notes_json = $2 WHERE id = $1`,
		annotationID, notesJSON,
	)
	if err != nil {
		return fmt.Errorf("update annotation notes: %w", err)
	}
	return nil
}
