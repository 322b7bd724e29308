package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres"
	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/testhelper"
)

// entryExists checks whether a canonical entry row exists for the word.
func entryExists(t *testing.T, pool *pgxpool.Pool, sourceCode, normalizedWord string) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(
		context.Background(),
		`SELECT EXISTS(SELECT 1 FROM dictionary_entry WHERE source_code = $1 AND normalized_word = $2)`,
		sourceCode, normalizedWord,
	).Scan(&exists)
	if err != nil {
		t.Fatalf("entryExists query: %v", err)
	}
	return exists
}

func insertEntry(ctx context.Context, pool *pgxpool.Pool, sourceCode, word string) error {
	q := postgres.QuerierFromCtx(ctx, pool)
	_, err := q.Exec(ctx,
		`INSERT INTO dictionary_entry (source_code, word, normalized_word, created_utc)
		 VALUES ($1, $2, $3, now())`,
		sourceCode, word, word,
	)
	return err
}

func TestRunInTx_Commit(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return insertEntry(ctx, pool, "TXTEST", "txcommit")
	})
	if err != nil {
		t.Fatalf("RunInTx: unexpected error: %v", err)
	}

	if !entryExists(t, pool, "TXTEST", "txcommit") {
		t.Error("entry not found after committed transaction")
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	boom := errors.New("boom")
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := insertEntry(ctx, pool, "TXTEST", "txrollback"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTx: got %v, want the callback error", err)
	}

	if entryExists(t, pool, "TXTEST", "txrollback") {
		t.Error("entry found after rolled-back transaction")
	}
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected the panic to propagate")
			}
		}()
		_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
			if err := insertEntry(ctx, pool, "TXTEST", "txpanic"); err != nil {
				return err
			}
			panic("boom")
		})
	}()

	if entryExists(t, pool, "TXTEST", "txpanic") {
		t.Error("entry found after panicking transaction")
	}
}
