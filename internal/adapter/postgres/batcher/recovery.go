package batcher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createRecoveryTableSQL = `
CREATE TABLE IF NOT EXISTS batch_recovery (
    id              uuid PRIMARY KEY,
    operation_key   text NOT NULL,
    sql_template    text NOT NULL,
    parameters_json text NOT NULL,
    error_message   text NOT NULL,
    operation_count int  NOT NULL,
    created_utc     timestamptz NOT NULL DEFAULT now()
)`

const insertRecoverySQL = `
INSERT INTO batch_recovery (id, operation_key, sql_template, parameters_json, error_message, operation_count, created_utc)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// recoverySink persists irrecoverable batches so they can be replayed or
// audited out-of-band. The sink itself never raises: a failure to
// persist is logged and dropped, because the importer must keep going.
type recoverySink struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// ensureTable creates batch_recovery when it does not exist yet. Safe to
// call repeatedly.
func (r *recoverySink) ensureTable(ctx context.Context) {
	if _, err := r.pool.Exec(ctx, createRecoveryTableSQL); err != nil {
		r.log.Debug("batch recovery: ensure table failed", slog.String("error", err.Error()))
	}
}

// persist writes one failed batch. Parameters are JSON-encoded as an
// array of argument tuples in queue order.
func (r *recoverySink) persist(ctx context.Context, opKey, template string, ops []op, cause error) {
	r.ensureTable(ctx)

	args := make([][]any, len(ops))
	for i, o := range ops {
		args[i] = o.args
	}
	paramsJSON, err := json.Marshal(args)
	if err != nil {
		paramsJSON = []byte(`"<unencodable>"`)
	}

	_, err = r.pool.Exec(ctx, insertRecoverySQL,
		uuid.New(), opKey, template, string(paramsJSON), cause.Error(), len(ops), time.Now().UTC(),
	)
	if err != nil {
		r.log.Debug("batch recovery: persist failed",
			slog.String("operation_key", opKey),
			slog.Int("operations", len(ops)),
			slog.String("error", err.Error()),
		)
		return
	}

	r.log.Warn("batch persisted to recovery table",
		slog.String("operation_key", opKey),
		slog.Int("operations", len(ops)),
		slog.String("cause", cause.Error()),
	)
}
