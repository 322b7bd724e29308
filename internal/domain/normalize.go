package domain

import (
	"strconv"
	"strings"
)

// NormalizeText prepares text for storage and comparison:
//   - trims leading/trailing whitespace
//   - converts to lowercase
//   - compresses multiple spaces into one
//
// Diacritics, hyphens, and apostrophes are preserved.
func NormalizeText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for _, r := range text {
		if r == ' ' {
			if prevSpace {
				continue
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CollapseWhitespace replaces every run of Unicode whitespace (spaces,
// tabs, newlines) with a single space and trims the ends. Case is kept.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// DedupKeyLen bounds the definition part of the within-batch dedup key.
const DedupKeyLen = 512

// StagingDedupKey builds the in-memory dedup key for a raw entry:
// source code and normalized word lower-cased, sense number (-1 when
// absent), and the definition with whitespace collapsed, lower-cased,
// and capped at DedupKeyLen characters.
func StagingDedupKey(sourceCode string, senseNumber *int, normalizedWord, definition string) string {
	sense := -1
	if senseNumber != nil {
		sense = *senseNumber
	}
	def := strings.ToLower(CollapseWhitespace(definition))
	if len(def) > DedupKeyLen {
		def = Truncate(def, DedupKeyLen)
	}
	return strings.ToLower(sourceCode) + "\x1f" + strconv.Itoa(sense) + "\x1f" + strings.ToLower(normalizedWord) + "\x1f" + def
}
