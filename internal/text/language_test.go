package text

import "testing"

func TestContainsNonEnglish(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"hello world", false},
		{"numbers 123 and !?", false},
		{"café", true},
		{"привет", true},
		{"日本語", true},
		{"", false},
		{"dash — and quotes “”", false}, // symbols, not letters
	}
	for _, tt := range tests {
		if got := ContainsNonEnglish(tt.input); got != tt.want {
			t.Errorf("ContainsNonEnglish(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDetectLanguageCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string // empty means nil
	}{
		{"привет мир", "ru"},
		{"ひらがな", "ja"},
		{"한국어", "ko"},
		{"مرحبا", "ar"},
		{"שלום", "he"},
		{"中文文本", "zh"},
		{"hello", ""},
		{"", ""},
	}
	for _, tt := range tests {
		got := DetectLanguageCode(tt.input)
		switch {
		case tt.want == "" && got != nil:
			t.Errorf("DetectLanguageCode(%q) = %q, want nil", tt.input, *got)
		case tt.want != "" && (got == nil || *got != tt.want):
			t.Errorf("DetectLanguageCode(%q) = %v, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDetectLanguageCode_MixedPicksDominant(t *testing.T) {
	t.Parallel()

	got := DetectLanguageCode("mostly русский текст with 語")
	if got == nil || *got != "ru" {
		t.Errorf("DetectLanguageCode(mixed) = %v, want ru", got)
	}
}
