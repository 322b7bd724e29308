package text

import "testing"

func TestBalance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		want        string
		wantChanged bool
	}{
		{"already_balanced", "a (b) c", "a (b) c", false},
		{"append_missing_paren", "a (b c", "a (b c)", true},
		{"strip_stray_paren", "a b) ", "a b", true},
		{"append_missing_bracket", "see [1 and more", "see [1 and more]", true},
		{"append_missing_brace", "set {x", "set {x}", true},
		{"off_by_two_untouched", "((a", "((a", false},
		{"odd_quote_appended", `he said "hello`, `he said "hello"`, true},
		{"trailing_stray_quote_stripped", `hello" `, "hello", true},
		{"curly_quote_appended", "she said “hi", "she said “hi”", true},
		{"curly_stray_stripped", "hi” ", "hi", true},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Balance(tt.input)
			if got.Text != tt.want {
				t.Errorf("Balance(%q).Text = %q, want %q", tt.input, got.Text, tt.want)
			}
			if got.Changed != tt.wantChanged {
				t.Errorf("Balance(%q).Changed = %v, want %v", tt.input, got.Changed, tt.wantChanged)
			}
		})
	}
}

func TestBalance_MultipleClasses(t *testing.T) {
	t.Parallel()

	// Classes are repaired in declaration order: paren first.
	got := Balance("f(x [y")
	if got.Text != "f(x [y)]" {
		t.Errorf("Balance = %q, want %q", got.Text, "f(x [y)]")
	}
	if !got.Changed {
		t.Error("Changed = false after repairing two classes")
	}
}
