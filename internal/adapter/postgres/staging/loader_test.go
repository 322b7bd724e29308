package staging

import (
	"strings"
	"testing"
	"time"

	"github.com/heartmarshall/dictionary-importer/internal/domain"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func validEntry() domain.RawEntry {
	return domain.RawEntry{
		Word:       "cat",
		Definition: "a small feline",
		SourceCode: "WEB",
		CreatedUtc: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSanitize_DropsBlankRequiredFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*domain.RawEntry)
	}{
		{"blank_word", func(e *domain.RawEntry) { e.Word = "   " }},
		{"blank_definition", func(e *domain.RawEntry) { e.Definition = "\t\n" }},
		{"empty_word", func(e *domain.RawEntry) { e.Word = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := validEntry()
			tt.mutate(&e)
			if _, ok := sanitize(e); ok {
				t.Error("sanitize accepted an entry with a blank required field")
			}
		})
	}
}

func TestSanitize_TruncatesToColumnBounds(t *testing.T) {
	t.Parallel()

	e := validEntry()
	e.Word = strings.Repeat("w", domain.MaxWordLen+50)
	e.Definition = strings.Repeat("d", domain.MaxDefinitionLen+50)
	e.Etymology = strPtr(strings.Repeat("e", domain.MaxEtymologyLen+50))
	e.PartOfSpeech = strPtr(strings.Repeat("p", domain.MaxPOSLen+5))

	row, ok := sanitize(e)
	if !ok {
		t.Fatal("sanitize rejected a valid oversized entry")
	}
	if len(row.Word) != domain.MaxWordLen {
		t.Errorf("word length = %d, want %d", len(row.Word), domain.MaxWordLen)
	}
	if len(row.Definition) != domain.MaxDefinitionLen {
		t.Errorf("definition length = %d, want %d", len(row.Definition), domain.MaxDefinitionLen)
	}
	if len(*row.Etymology) != domain.MaxEtymologyLen {
		t.Errorf("etymology length = %d, want %d", len(*row.Etymology), domain.MaxEtymologyLen)
	}
	if len(*row.PartOfSpeech) != domain.MaxPOSLen {
		t.Errorf("part of speech length = %d, want %d", len(*row.PartOfSpeech), domain.MaxPOSLen)
	}
}

func TestSanitize_Hashes(t *testing.T) {
	t.Parallel()

	row, ok := sanitize(validEntry())
	if !ok {
		t.Fatal("sanitize rejected a valid entry")
	}
	if len(row.WordHash) != sha256Len || len(row.DefinitionHash) != sha256Len {
		t.Errorf("hash lengths = %d/%d, want %d", len(row.WordHash), len(row.DefinitionHash), sha256Len)
	}

	again, _ := sanitize(validEntry())
	if string(row.WordHash) != string(again.WordHash) {
		t.Error("word hash is not deterministic")
	}
}

func TestSanitize_CoercesAncientTimestamps(t *testing.T) {
	t.Parallel()

	e := validEntry()
	e.CreatedUtc = time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC)

	row, ok := sanitize(e)
	if !ok {
		t.Fatal("sanitize rejected a valid entry")
	}
	if row.CreatedUtc.Before(domain.MinCreatedUtc) {
		t.Errorf("created_utc %v not coerced above the epoch floor", row.CreatedUtc)
	}
}

func TestSanitize_DefaultsSourceAndNormalizedWord(t *testing.T) {
	t.Parallel()

	e := validEntry()
	e.SourceCode = "  "
	e.Word = "Cat Food"
	e.NormalizedWord = ""

	row, ok := sanitize(e)
	if !ok {
		t.Fatal("sanitize rejected a valid entry")
	}
	if row.SourceCode != domain.UnknownSource {
		t.Errorf("source code = %q, want %q", row.SourceCode, domain.UnknownSource)
	}
	if row.NormalizedWord != "cat food" {
		t.Errorf("normalized word = %q, want %q", row.NormalizedWord, "cat food")
	}
}

func TestSanitize_BlankOptionalBecomesNil(t *testing.T) {
	t.Parallel()

	e := validEntry()
	e.Etymology = strPtr("   ")
	e.RawFragment = strPtr("")

	row, ok := sanitize(e)
	if !ok {
		t.Fatal("sanitize rejected a valid entry")
	}
	if row.Etymology != nil {
		t.Errorf("etymology = %q, want nil", *row.Etymology)
	}
	if row.RawFragment != nil {
		t.Errorf("raw fragment = %q, want nil", *row.RawFragment)
	}
}

func TestStagingDedupKey_SenseNumberDistinguishes(t *testing.T) {
	t.Parallel()

	k1 := domain.StagingDedupKey("WEB", intPtr(1), "cat", "a small feline")
	k2 := domain.StagingDedupKey("WEB", intPtr(2), "cat", "a small feline")
	k3 := domain.StagingDedupKey("WEB", nil, "cat", "a small feline")
	kDup := domain.StagingDedupKey("web", intPtr(1), "CAT", "A  small   feline")

	if k1 == k2 {
		t.Error("different sense numbers produced the same dedup key")
	}
	if k1 == k3 {
		t.Error("nil sense number collides with sense 1")
	}
	if k1 != kDup {
		t.Errorf("case/whitespace variants should collide:\n%q\n%q", k1, kDup)
	}
}
