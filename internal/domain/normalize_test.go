package domain

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"  Foo  BAR ", "foo bar"},
		{"don't stop", "don't stop"},
		{"well-known", "well-known"},
		{"", ""},
		{"   ", ""},
		{"Café", "café"},
	}
	for _, tt := range tests {
		if got := NormalizeText(tt.input); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	if got := CollapseWhitespace("a\t b\n\nc  d"); got != "a b c d" {
		t.Errorf("CollapseWhitespace = %q, want %q", got, "a b c d")
	}
	if got := CollapseWhitespace("KeepCase HERE"); got != "KeepCase HERE" {
		t.Errorf("CollapseWhitespace must keep case: %q", got)
	}
}

func TestNormalizeSourceCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"gcide", "GCIDE"},
		{"  opted  ", "OPTED"},
		{"", UnknownSource},
		{"   ", UnknownSource},
		{strings.Repeat("x", 40), strings.Repeat("X", MaxSourceCodeLen)},
	}
	for _, tt := range tests {
		if got := NormalizeSourceCode(tt.input); got != tt.want {
			t.Errorf("NormalizeSourceCode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTruncate_UTF8Safe(t *testing.T) {
	t.Parallel()

	// 'é' is two bytes; cutting in the middle must move left.
	s := "caf" + strings.Repeat("é", 10)
	got := Truncate(s, 4)
	if !utf8.ValidString(got) {
		t.Errorf("Truncate produced invalid UTF-8: %q", got)
	}
	if got != "caf" {
		t.Errorf("Truncate = %q, want %q", got, "caf")
	}

	if got := Truncate("short", 100); got != "short" {
		t.Errorf("Truncate below limit changed text: %q", got)
	}
	if got := Truncate("anything", 0); got != "anything" {
		t.Errorf("Truncate with zero limit = %q, want passthrough", got)
	}
}

func TestStagingDedupKey(t *testing.T) {
	t.Parallel()

	base := StagingDedupKey("SRC", nil, "word", "a definition")

	if got := StagingDedupKey("src", nil, "WORD", "A  Definition"); got != base {
		t.Error("dedup key must be case- and whitespace-insensitive")
	}
	if got := StagingDedupKey("SRC", intp(2), "word", "a definition"); got == base {
		t.Error("sense number must distinguish keys")
	}
	if got := StagingDedupKey("OTHER", nil, "word", "a definition"); got == base {
		t.Error("source code must distinguish keys")
	}
}

func intp(n int) *int { return &n }
