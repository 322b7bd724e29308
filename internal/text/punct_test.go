package text

import "testing"

func TestNormalizePunctuation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"repeated_question", "really??", "really?"},
		{"repeated_bang", "stop!!!", "stop!"},
		{"long_ellipsis", "wait.....", "wait..."},
		{"double_dot", "end.. next", "end. next"},
		{"multi_space", "a   b", "a b"},
		{"space_before_comma", "word , next", "word, next"},
		{"missing_space_after_comma", "word,next", "word, next"},
		{"split_decimal", "pi is 3 . 14", "pi is 3.14"},
		{"split_time", "at 12 : 30", "at 12:30"},
		{"missing_space_after_period", "end.Next", "end. Next"},
		{"abbreviation_stays_glued", "Dr.Smith arrived", "Dr.Smith arrived"},
		{"bracket_tightened", "( inside )", "(inside)"},
		{"dash_normalized", "a - b", "a — b"},
		{"list_marker", "1) first item", "1. first item"},
		{"trimmed", "  padded  ", "padded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := NormalizePunctuation(tt.input); got != tt.want {
				t.Errorf("NormalizePunctuation(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePunctuation_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"really??  word ,next 3 . 14 end.Next ( inside ) a - b",
		"Dr.Smith said: wait..... at 12 : 30!!!",
		"1) first\n2) second",
	}
	for _, in := range inputs {
		once := NormalizePunctuation(in)
		twice := NormalizePunctuation(once)
		if once != twice {
			t.Errorf("not idempotent:\n in: %q\nonce: %q\ntwice: %q", in, once, twice)
		}
	}
}
