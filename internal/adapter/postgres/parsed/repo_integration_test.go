package parsed_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/nonenglish"
	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/parsed"
	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/dictionary-importer/internal/domain"
)

func TestWrite_IdempotentOnNaturalKey(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := parsed.NewRepo(pool, slog.Default(), nonenglish.NewStore(pool, slog.Default()))
	ctx := context.Background()

	entry := testhelper.SeedEntry(t, pool, "PARSED1")
	sense := 1
	p := domain.ParsedDefinition{
		MeaningTitle: "a small feline",
		SenseNumber:  &sense,
		Definition:   "a domesticated carnivorous mammal",
		RawFragment:  "raw",
		SourceCode:   entry.SourceCode,
		CreatedUtc:   time.Now().UTC(),
	}

	id1, err := repo.Write(ctx, entry.ID, p, nil)
	if err != nil {
		t.Fatalf("first Write: %v", err)
	}
	id2, err := repo.Write(ctx, entry.ID, p, nil)
	if err != nil {
		t.Fatalf("second Write: %v", err)
	}
	if id1 != id2 {
		t.Errorf("Write not idempotent: ids %d and %d", id1, id2)
	}
}

func TestWrite_DefaultsMeaningTitle(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := parsed.NewRepo(pool, slog.Default(), nonenglish.NewStore(pool, slog.Default()))
	ctx := context.Background()

	entry := testhelper.SeedEntry(t, pool, "PARSED2")
	id, err := repo.Write(ctx, entry.ID, domain.ParsedDefinition{
		MeaningTitle: "   ",
		Definition:   "some definition",
		SourceCode:   entry.SourceCode,
		CreatedUtc:   time.Now().UTC(),
	}, nil)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	var title string
	if err := pool.QueryRow(ctx,
		`SELECT meaning_title FROM dictionary_entry_parsed WHERE id = $1`, id,
	).Scan(&title); err != nil {
		t.Fatalf("select meaning_title: %v", err)
	}
	if title != domain.DefaultMeaningTitle {
		t.Errorf("meaning_title = %q, want %q", title, domain.DefaultMeaningTitle)
	}
}

func TestWrite_RoutesNonEnglishDefinition(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	store := nonenglish.NewStore(pool, slog.Default())
	repo := parsed.NewRepo(pool, slog.Default(), store)
	ctx := context.Background()

	entry := testhelper.SeedEntry(t, pool, "PARSED3")
	const original = "определение на русском языке"
	id, err := repo.Write(ctx, entry.ID, domain.ParsedDefinition{
		MeaningTitle: "foreign sense",
		Definition:   original,
		SourceCode:   entry.SourceCode,
		CreatedUtc:   time.Now().UTC(),
	}, nil)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	var definition string
	var nonEnglishID *int64
	err = pool.QueryRow(ctx,
		`SELECT definition, non_english_text_id FROM dictionary_entry_parsed WHERE id = $1`, id,
	).Scan(&definition, &nonEnglishID)
	if err != nil {
		t.Fatalf("select parsed row: %v", err)
	}
	if definition != domain.NonEnglishSentinel {
		t.Errorf("definition = %q, want sentinel", definition)
	}
	if nonEnglishID == nil {
		t.Fatal("non_english_text_id is nil")
	}
	if got := store.Get(ctx, *nonEnglishID); got == nil || *got != original {
		t.Errorf("side-store text = %v, want %q", got, original)
	}
}

func TestWrite_SubSenseUnderParent(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := parsed.NewRepo(pool, slog.Default(), nonenglish.NewStore(pool, slog.Default()))
	ctx := context.Background()

	entry := testhelper.SeedEntry(t, pool, "PARSED4")
	parentID, err := repo.Write(ctx, entry.ID, domain.ParsedDefinition{
		MeaningTitle: "parent sense",
		Definition:   "the broad meaning",
		SourceCode:   entry.SourceCode,
		CreatedUtc:   time.Now().UTC(),
	}, nil)
	if err != nil {
		t.Fatalf("parent Write: %v", err)
	}

	childID, err := repo.Write(ctx, entry.ID, domain.ParsedDefinition{
		MeaningTitle: "narrow shade",
		Definition:   "the narrow meaning",
		SourceCode:   entry.SourceCode,
		CreatedUtc:   time.Now().UTC(),
	}, &parentID)
	if err != nil {
		t.Fatalf("child Write: %v", err)
	}
	if childID == parentID {
		t.Error("child sense got the parent id")
	}

	var gotParent *int64
	if err := pool.QueryRow(ctx,
		`SELECT parent_parsed_id FROM dictionary_entry_parsed WHERE id = $1`, childID,
	).Scan(&gotParent); err != nil {
		t.Fatalf("select parent_parsed_id: %v", err)
	}
	if gotParent == nil || *gotParent != parentID {
		t.Errorf("parent_parsed_id = %v, want %d", gotParent, parentID)
	}
}
