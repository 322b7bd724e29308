package domain

import "strings"

// UnknownSource is the sentinel source code assigned to entries whose
// corpus could not be identified.
const UnknownSource = "UNKNOWN"

// Column bounds for staged entry fields. Values longer than these are
// truncated at sanitize time, never rejected.
const (
	MaxWordLen        = 200
	MaxPOSLen         = 50
	MaxDefinitionLen  = 2000
	MaxEtymologyLen   = 4000
	MaxRawFragmentLen = 8000
	MaxSourceCodeLen  = 30
	MaxDomainCodeLen  = 50
	MaxUsageLabelLen  = 50
)

// NormalizeSourceCode trims, upper-cases, and bounds a source code.
// Blank input becomes UnknownSource.
func NormalizeSourceCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return UnknownSource
	}
	return Truncate(code, MaxSourceCodeLen)
}

// Truncate cuts s to at most maxLen bytes. Definitions and fragments are
// plain text, so a byte cut is acceptable; the cut is moved left past any
// dangling UTF-8 continuation bytes so the result stays valid.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
