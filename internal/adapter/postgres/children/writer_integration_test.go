package children_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/batcher"
	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/children"
	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/nonenglish"
	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/testhelper"
)

func TestWriteExample_DedupScopedToEntry(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()
	log := slog.Default()

	b := batcher.New(pool, log, batcher.Config{})
	defer b.Close()

	w := children.NewWriter(b, nonenglish.NewStore(pool, log), log)

	testhelper.SeedSource(t, pool, "EXDEDUP")
	entry := testhelper.SeedEntry(t, pool, "EXDEDUP")
	senseA := testhelper.SeedParsedDefinition(t, pool, entry)
	senseB := testhelper.SeedParsedDefinition(t, pool, entry)

	// The same sentence under two sibling senses of one entry must
	// collapse to a single row.
	w.WriteExample(ctx, entry.ID, senseA.ID, "He ran fast.", "EXDEDUP")
	w.WriteExample(ctx, entry.ID, senseB.ID, "He ran fast.", "EXDEDUP")
	b.FlushAll(ctx)

	var n int
	err := pool.QueryRow(ctx,
		`SELECT count(*) FROM dictionary_entry_example WHERE entry_id = $1`, entry.ID,
	).Scan(&n)
	if err != nil {
		t.Fatalf("count examples: %v", err)
	}
	if n != 1 {
		t.Fatalf("example rows for entry = %d, want 1", n)
	}

	// A different entry still accepts the same sentence.
	other := testhelper.SeedEntry(t, pool, "EXDEDUP")
	otherSense := testhelper.SeedParsedDefinition(t, pool, other)
	w.WriteExample(ctx, other.ID, otherSense.ID, "He ran fast.", "EXDEDUP")
	b.FlushAll(ctx)

	if err := pool.QueryRow(ctx,
		`SELECT count(*) FROM dictionary_entry_example WHERE example_text = 'He ran fast.'`,
	).Scan(&n); err != nil {
		t.Fatalf("count examples across entries: %v", err)
	}
	if n != 2 {
		t.Fatalf("example rows across entries = %d, want 2", n)
	}
}
