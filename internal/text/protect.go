package text

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// MaxProtectedTokens caps how many placeholders one input may receive.
const MaxProtectedTokens = 200

// ProtectResult carries the masked text and the placeholder → original
// map needed to restore it.
type ProtectResult struct {
	Text   string
	Tokens map[string]string
}

// protectedPatterns is the prioritized pattern list. Order matters:
// longer and more specific patterns come first so that, e.g., ".NET
// Core" wins over a bare file-extension match on ".NET". All patterns
// are RE2; none use lookaround.
var protectedPatterns = []*regexp.Regexp{
	// Programming languages and platforms with awkward punctuation.
	regexp.MustCompile(`(?i)\.NET\s+(?:Core|Framework|Standard)`),
	regexp.MustCompile(`(?i)(?:^|\s)(\.NET|ASP\.NET|Node\.js|Vue\.js|Next\.js|C\+\+|C#|F#|J#|Objective-C)`),
	// Tech acronyms with dots.
	regexp.MustCompile(`\b[A-Z](?:\.[A-Z])+\.?(?:\s|$)`),
	// URLs and emails before anything that could split them.
	regexp.MustCompile(`\bhttps?://[^\s<>"]+`),
	regexp.MustCompile(`\bwww\.[^\s<>"]+`),
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
	// IP addresses.
	regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
	// Dates: 2021-03-04, 03/04/2021, 4 Mar 2021, Mar 4, 2021.
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
	regexp.MustCompile(`\b\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{2,4}\b`),
	regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2},?\s+\d{2,4}\b`),
	// Version numbers: v1.2.3, 6.0, 10.15.7.
	regexp.MustCompile(`\bv?\d+\.\d+(?:\.\d+)*\b`),
	// Scientific notation.
	regexp.MustCompile(`\b\d+(?:\.\d+)?[eE][+-]?\d+\b`),
	// Abbreviations with dots: e.g., i.e., etc., et al.
	regexp.MustCompile(`(?i)\b(?:e\.g\.|i\.e\.|etc\.|et\s+al\.|viz\.|cf\.|vs\.|approx\.|no\.)`),
	// File names with extensions.
	regexp.MustCompile(`\b[\w-]+\.(?:txt|json|xml|csv|pdf|docx?|xlsx?|html?|js|ts|go|cs|py|rb|sql|ya?ml|md|zip|tar|gz|png|jpe?g|gif|svg|exe|dll)\b`),
	// Units attached to numbers.
	regexp.MustCompile(`\b\d+(?:\.\d+)?\s?(?:km|cm|mm|kg|mg|ml|GHz|MHz|kHz|Hz|GB|MB|KB|TB|mph|rpm|ms|°[CF])\b`),
	// Currencies.
	regexp.MustCompile(`[$€£¥]\s?\d+(?:[.,]\d+)*`),
	regexp.MustCompile(`\b\d+(?:[.,]\d+)*\s?(?:USD|EUR|GBP|JPY|RUB)\b`),
	// Chemical formulas: H2O, CO2, C6H12O6.
	regexp.MustCompile(`\b(?:[A-Z][a-z]?\d+){1,}(?:[A-Z][a-z]?\d*)*\b`),
	// Phone numbers.
	regexp.MustCompile(`\+?\d{1,3}[\s.-]?\(?\d{2,4}\)?[\s.-]?\d{3}[\s.-]?\d{2,4}\b`),
	// VINs: 17 chars, no I/O/Q.
	regexp.MustCompile(`\b[A-HJ-NPR-Z0-9]{17}\b`),
	// Roman numerals, two or more letters to avoid swallowing "I".
	regexp.MustCompile(`\b[IVXLCDM]{2,}\b`),
	// Fractions, percentages, ordinals.
	regexp.MustCompile(`\b\d+/\d+\b`),
	regexp.MustCompile(`\b\d+(?:\.\d+)?%`),
	regexp.MustCompile(`\b\d+(?:st|nd|rd|th)\b`),
}

type span struct {
	start, end int
	text       string
}

// Protect replaces runs matching the protected-pattern list with opaque
// placeholders of the form ⟦PT000001⟧, assigned left to right. Matches
// never overlap: spans are ranked start-ascending then length-descending
// and later overlapping spans are dropped. On any internal failure the
// input is returned unchanged with an empty map — Protect never raises.
func Protect(input string) (result ProtectResult) {
	result = ProtectResult{Text: input, Tokens: map[string]string{}}
	defer func() {
		if r := recover(); r != nil {
			result = ProtectResult{Text: input, Tokens: map[string]string{}}
		}
	}()

	if input == "" {
		return result
	}

	var spans []span
	for _, re := range protectedPatterns {
		for _, loc := range re.FindAllStringIndex(input, -1) {
			s, e := loc[0], loc[1]
			// Trim leading/trailing whitespace captured by patterns that
			// anchor on separators.
			for s < e && (input[s] == ' ' || input[s] == '\t') {
				s++
			}
			for e > s && (input[e-1] == ' ' || input[e-1] == '\t') {
				e--
			}
			if e > s {
				spans = append(spans, span{start: s, end: e, text: input[s:e]})
			}
		}
	}
	if len(spans) == 0 {
		return result
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end-spans[i].start > spans[j].end-spans[j].start
	})

	var chosen []span
	lastEnd := -1
	for _, sp := range spans {
		if sp.start < lastEnd {
			continue
		}
		chosen = append(chosen, sp)
		lastEnd = sp.end
		if len(chosen) == MaxProtectedTokens {
			break
		}
	}

	var b strings.Builder
	b.Grow(len(input))
	prev := 0
	for i, sp := range chosen {
		placeholder := fmt.Sprintf("⟦PT%06d⟧", i+1)
		b.WriteString(input[prev:sp.start])
		b.WriteString(placeholder)
		result.Tokens[placeholder] = sp.text
		prev = sp.end
	}
	b.WriteString(input[prev:])
	result.Text = b.String()
	return result
}

// Restore replaces placeholders back with their originals in key order,
// so nested or adjacent placeholders resolve deterministically.
func Restore(masked string, tokens map[string]string) string {
	if len(tokens) == 0 {
		return masked
	}
	keys := make([]string, 0, len(tokens))
	for k := range tokens {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		masked = strings.ReplaceAll(masked, k, tokens[k])
	}
	return masked
}
