package text

import "strings"

// BalanceResult reports the outcome of a balancing pass.
type BalanceResult struct {
	Text    string
	Changed bool
	Reason  string
}

type bracketClass struct {
	open, close rune
	name        string
}

var bracketClasses = []bracketClass{
	{'(', ')', "paren"},
	{'[', ']', "bracket"},
	{'{', '}', "brace"},
}

// Balance repairs off-by-one bracket and quote imbalances. For each
// class, an imbalance of exactly one is fixed by appending the missing
// closer or stripping a trailing stray closer; any other imbalance is
// left untouched. Quotes (straight double and curly) are treated as a
// class whose count must be even.
func Balance(input string) BalanceResult {
	result := BalanceResult{Text: input}

	for _, c := range bracketClasses {
		opens := strings.Count(result.Text, string(c.open))
		closes := strings.Count(result.Text, string(c.close))
		switch {
		case opens == closes:
			continue
		case opens-closes == 1:
			result.Text += string(c.close)
			result.Changed = true
			result.Reason = "appended missing " + c.name
		case closes-opens == 1:
			trimmed := strings.TrimRight(result.Text, " ")
			if strings.HasSuffix(trimmed, string(c.close)) {
				result.Text = strings.TrimRight(strings.TrimSuffix(trimmed, string(c.close)), " ")
				result.Changed = true
				result.Reason = "stripped stray " + c.name
			}
		}
	}

	// Straight double quotes: odd count with a trailing quote is a stray;
	// otherwise append the closer.
	if n := strings.Count(result.Text, `"`); n%2 == 1 {
		if strings.HasSuffix(strings.TrimRight(result.Text, " "), `"`) {
			trimmed := strings.TrimRight(result.Text, " ")
			result.Text = strings.TrimRight(strings.TrimSuffix(trimmed, `"`), " ")
		} else {
			result.Text += `"`
		}
		result.Changed = true
		result.Reason = "balanced double quote"
	}

	// Curly quotes pair “ with ”.
	opens := strings.Count(result.Text, "“")
	closes := strings.Count(result.Text, "”")
	switch {
	case opens-closes == 1:
		result.Text += "”"
		result.Changed = true
		result.Reason = "appended missing curly quote"
	case closes-opens == 1:
		trimmed := strings.TrimRight(result.Text, " ")
		if strings.HasSuffix(trimmed, "”") {
			result.Text = strings.TrimRight(strings.TrimSuffix(trimmed, "”"), " ")
			result.Changed = true
			result.Reason = "stripped stray curly quote"
		}
	}

	return result
}
