package miner

import (
	"strings"
	"unicode"

	"github.com/heartmarshall/dictionary-importer/internal/domain"
)

// Per-mode length caps for candidate texts.
const (
	maxTitleCandidateLen      = 80
	maxExampleCandidateLen    = 200
	maxDefinitionCandidateLen = 300
)

const (
	minCandidateLen   = 4 // both sides must exceed 3 characters
	maxDigitRatio     = 0.20
	maxSymbolRatio    = 0.35
	placeholderPrefix = "⟦PT" // protected-token marker
)

// candidateCapFor returns the per-mode length cap.
func candidateCapFor(mode domain.RewriteMode) int {
	switch mode {
	case domain.ModeMeaningTitle:
		return maxTitleCandidateLen
	case domain.ModeExample:
		return maxExampleCandidateLen
	default:
		return maxDefinitionCandidateLen
	}
}

// passesGate validates one (from, to) pair against the candidate gate.
// Anything rejected here is silently dropped; the gate exists to keep
// junk out of the operator's review queue.
func passesGate(mode domain.RewriteMode, fromText, toText string) bool {
	fromText = strings.TrimSpace(fromText)
	toText = strings.TrimSpace(toText)

	if len([]rune(fromText)) < minCandidateLen || len([]rune(toText)) < minCandidateLen {
		return false
	}
	if fromText == toText {
		return false
	}

	limit := candidateCapFor(mode)
	for _, s := range []string{fromText, toText} {
		if len([]rune(s)) > limit {
			return false
		}
		if hasControlWhitespace(s) {
			return false
		}
		if strings.HasSuffix(s, ":") {
			return false
		}
		if containsPlaceholder(s) {
			return false
		}
		if digitRatio(s) >= maxDigitRatio {
			return false
		}
		if symbolRatio(s) >= maxSymbolRatio {
			return false
		}
	}
	return true
}

// hasControlWhitespace reports tabs, newlines, or other control runes.
func hasControlWhitespace(s string) bool {
	for _, r := range s {
		if r == ' ' {
			continue
		}
		if unicode.IsControl(r) || (unicode.IsSpace(r) && r != ' ') {
			return true
		}
	}
	return false
}

func containsPlaceholder(s string) bool {
	return strings.Contains(s, domain.NonEnglishSentinel) ||
		strings.Contains(s, domain.BilingualExampleSentinel) ||
		strings.Contains(s, placeholderPrefix)
}

func digitRatio(s string) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	digits := 0
	for _, r := range runes {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return float64(digits) / float64(len(runes))
}

// symbolRatio counts runes that are neither letters, digits, nor
// spaces.
func symbolRatio(s string) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	symbols := 0
	for _, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' {
			symbols++
		}
	}
	return float64(symbols) / float64(len(runes))
}
