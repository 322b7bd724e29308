package text

import (
	"regexp"
	"strings"
)

// abbreviationLexicon guards the "insert space after period" rule: when
// the token preceding a dot matches, the dot is part of an abbreviation
// and must stay glued to what follows. Lowercase; compared
// case-insensitively.
var abbreviationLexicon = map[string]bool{
	// Titles.
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"st": true, "jr": true, "sr": true, "rev": true, "hon": true,
	"capt": true, "sgt": true, "col": true, "gen": true,
	// Months.
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true,
	"jul": true, "aug": true, "sep": true, "sept": true, "oct": true,
	"nov": true, "dec": true,
	// Academic and editorial.
	"ph": true, "d": true, "b": true, "m": true, "a": true, "s": true,
	"ed": true, "eds": true, "vol": true, "no": true, "pp": true,
	"p": true, "al": true, "etc": true, "eg": true, "ie": true,
	"cf": true, "viz": true, "vs": true, "approx": true,
	// Organizations.
	"dept": true, "univ": true, "assoc": true, "bros": true,
	"inc": true, "ltd": true, "co": true, "corp": true,
}

var (
	multiSpaceRe       = regexp.MustCompile(`[ \t]{2,}`)
	spaceBeforePunctRe = regexp.MustCompile(`\s+([,.;:!?])`)
	missingSpaceRe     = regexp.MustCompile(`([,;:!?])(\S)`)
	missingDotSpaceRe  = regexp.MustCompile(`(\w+)\.([A-Za-z])`)
	repeatQuestionRe   = regexp.MustCompile(`\?{2,}`)
	repeatBangRe       = regexp.MustCompile(`!{2,}`)
	longEllipsisRe     = regexp.MustCompile(`\.{4,}`)
	doubleDotRe        = regexp.MustCompile(`([^.])\.\.([^.]|$)`)
	decimalRe          = regexp.MustCompile(`(\d)\s*\.\s+(\d)`)
	timeRe             = regexp.MustCompile(`(\d)\s*:\s+(\d)`)
	openTrimRe         = regexp.MustCompile(`([(\[{])\s+`)
	closeTrimRe        = regexp.MustCompile(`\s+([)\]}])`)
	dashRe             = regexp.MustCompile(`\s+(?:-{1,2}|—|–)\s+`)
	listDotRe          = regexp.MustCompile(`(^|\n)\s*(\d+)\s*[.)]\s*`)
)

// NormalizePunctuation runs the deterministic punctuation cleanup
// sequence. It expects protected-token masking to have already hidden
// URLs, versions, and abbreviation-heavy tokens; the emergency
// abbreviation guard covers what masking misses. The sequence is
// idempotent: applying it twice yields the same text.
func NormalizePunctuation(input string) string {
	s := input

	// Repeated terminators first so later spacing rules see single marks.
	s = repeatQuestionRe.ReplaceAllString(s, "?")
	s = repeatBangRe.ReplaceAllString(s, "!")
	s = longEllipsisRe.ReplaceAllString(s, "...")
	s = doubleDotRe.ReplaceAllString(s, "$1.$2")

	// Collapse runs of spaces, drop spaces before punctuation.
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = spaceBeforePunctRe.ReplaceAllString(s, "$1")

	// Decimals and times that earlier cleanup pulled apart.
	s = decimalRe.ReplaceAllString(s, "$1.$2")
	s = timeRe.ReplaceAllString(s, "$1:$2")

	// Insert a space after ,;:!? when missing. Colons inside times were
	// just re-glued, so only letter-adjacent marks remain.
	s = missingSpaceRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := missingSpaceRe.FindStringSubmatch(m)
		if sub[1] == ":" && sub[2] >= "0" && sub[2] <= "9" {
			return m
		}
		return sub[1] + " " + sub[2]
	})

	// Insert a space after a sentence period unless the preceding token
	// is a known abbreviation.
	s = missingDotSpaceRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := missingDotSpaceRe.FindStringSubmatch(m)
		if abbreviationLexicon[strings.ToLower(sub[1])] {
			return m
		}
		return sub[1] + ". " + sub[2]
	})

	// Tighten brackets and normalize dashes.
	s = openTrimRe.ReplaceAllString(s, "$1")
	s = closeTrimRe.ReplaceAllString(s, "$1")
	s = dashRe.ReplaceAllString(s, " — ")

	// Numbered-list markers become "N. ".
	s = listDotRe.ReplaceAllString(s, "$1$2. ")

	return strings.TrimSpace(s)
}
