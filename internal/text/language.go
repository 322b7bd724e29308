package text

import "unicode"

// ContainsNonEnglish reports whether s contains at least one letter
// outside the ASCII range. Digits, punctuation, and symbols never count;
// only codepoints Unicode classifies as letters do.
func ContainsNonEnglish(s string) bool {
	for _, r := range s {
		if r < 128 {
			continue
		}
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// scriptBuckets maps Unicode ranges to best-effort ISO-ish language
// codes. Script identifies the writing system, not the language; the
// codes are the pragmatic buckets the side-store records.
var scriptBuckets = []struct {
	table *unicode.RangeTable
	code  string
}{
	{unicode.Han, "zh"},
	{unicode.Hiragana, "ja"},
	{unicode.Katakana, "ja"},
	{unicode.Hangul, "ko"},
	{unicode.Arabic, "ar"},
	{unicode.Hebrew, "he"},
	{unicode.Cyrillic, "ru"},
	{unicode.Greek, "el"},
	{unicode.Thai, "th"},
	{unicode.Devanagari, "hi"},
	{unicode.Bengali, "bn"},
	{unicode.Tamil, "ta"},
	{unicode.Georgian, "ka"},
	{unicode.Armenian, "hy"},
}

// DetectLanguageCode returns a best-effort language code for the first
// non-ASCII script found in s, or nil when the text looks English (or
// its script is not in the bucket list).
func DetectLanguageCode(s string) *string {
	counts := make(map[string]int)
	for _, r := range s {
		if r < 128 {
			continue
		}
		for _, b := range scriptBuckets {
			if unicode.Is(b.table, r) {
				counts[b.code]++
				break
			}
		}
	}
	if len(counts) == 0 {
		return nil
	}
	best, bestN := "", 0
	for code, n := range counts {
		if n > bestN || (n == bestN && code < best) {
			best, bestN = code, n
		}
	}
	return &best
}
