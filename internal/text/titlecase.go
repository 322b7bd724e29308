package text

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"unicode"
)

// Config file names searched by ReloadConfiguration.
const (
	PreservationRulesFile = "token-preservation-rules.json"
	StopWordsFile         = "stopwords-core.json"
	configAppDir          = "DictionaryImporter"
)

// PreservationRules configure tokens that must keep their exact casing
// during title-casing.
type PreservationRules struct {
	// ExactTokens are matched case-insensitively and replaced with the
	// listed casing (C#, .NET, iPhone, ...).
	ExactTokens []string `json:"exact_tokens"`
	// ProperNouns are kept only when the input already carries the exact
	// listed casing.
	ProperNouns []string `json:"proper_nouns"`
	// Prefixes force capitalization of the letter that follows them
	// (Mc, Mac, O').
	Prefixes []string `json:"prefixes"`
	// Suffixes are preserved verbatim when a token ends with them
	// (Jr., Ph.D.).
	Suffixes []string `json:"suffixes"`
}

type stopWordsFile struct {
	StopWords []string `json:"stop_words"`
}

func defaultPreservationRules() PreservationRules {
	return PreservationRules{
		ExactTokens: []string{
			"C#", "C++", ".NET", "ASP.NET", "Node.js", "iPhone", "iPad",
			"iOS", "macOS", "JavaScript", "TypeScript", "PostgreSQL",
			"MySQL", "GitHub", "GitLab", "LaTeX", "eBay", "IPA",
		},
		ProperNouns: []string{
			"McDonald", "MacArthur", "O'Brien", "DiCaprio", "van Gogh",
		},
		Prefixes: []string{"Mc", "Mac", "O'"},
		Suffixes: []string{"Jr.", "Sr.", "Ph.D.", "M.D.", "B.A.", "M.A.", "Esq."},
	}
}

func defaultStopWords() []string {
	return []string{
		"a", "an", "the", "and", "but", "or", "nor", "for", "so", "yet",
		"at", "by", "in", "of", "on", "to", "up", "via", "with", "from",
		"as", "per", "over", "into", "onto",
	}
}

var (
	acronymTokenRe = regexp.MustCompile(`^[A-Z]{2,}s?$`)
	dottedAbbrevRe = regexp.MustCompile(`^(?:[A-Za-z]\.)+$`)
	romanTokenRe   = regexp.MustCompile(`^[IVXLCDM]+$`)
	versionTokenRe = regexp.MustCompile(`^v?\d+(?:\.\d+)+$`)
	emailTokenRe   = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// TitleCaser title-cases meaning titles while preserving configured
// tokens. Configuration is process-wide and reloadable; all methods are
// safe for concurrent use.
type TitleCaser struct {
	mu        sync.RWMutex
	rules     PreservationRules
	exact     map[string]string // lowercased token → canonical casing
	proper    map[string]bool   // exact-cased proper nouns
	stopWords map[string]bool
}

// NewTitleCaser builds a caser with the built-in defaults.
func NewTitleCaser() *TitleCaser {
	c := &TitleCaser{}
	c.apply(defaultPreservationRules(), defaultStopWords())
	return c
}

func (c *TitleCaser) apply(rules PreservationRules, stopWords []string) {
	exact := make(map[string]string, len(rules.ExactTokens))
	for _, t := range rules.ExactTokens {
		exact[strings.ToLower(t)] = t
	}
	proper := make(map[string]bool, len(rules.ProperNouns))
	for _, t := range rules.ProperNouns {
		proper[t] = true
	}
	stops := make(map[string]bool, len(stopWords))
	for _, w := range stopWords {
		stops[strings.ToLower(w)] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = rules
	c.exact = exact
	c.proper = proper
	c.stopWords = stops
}

// SetStopWords replaces the stop-word set, e.g. with rows loaded from
// the rewrite_stop_word table. The list is global per run.
func (c *TitleCaser) SetStopWords(words []string) {
	stops := make(map[string]bool, len(words))
	for _, w := range words {
		stops[strings.ToLower(strings.TrimSpace(w))] = true
	}
	c.mu.Lock()
	c.stopWords = stops
	c.mu.Unlock()
}

// ReloadConfiguration loads token-preservation-rules.json and
// stopwords-core.json from the first directory that has them, searching
// the user config dir, {baseDir}/domain/rewrite, cwd/domain/rewrite, and
// the working directory. Missing files are created with the built-in
// defaults so operators have something to edit.
func (c *TitleCaser) ReloadConfiguration(baseDir string) error {
	dirs := configSearchDirs(baseDir)

	rules := defaultPreservationRules()
	if err := loadOrCreateJSON(dirs, PreservationRulesFile, &rules); err != nil {
		return fmt.Errorf("load preservation rules: %w", err)
	}

	stops := stopWordsFile{StopWords: defaultStopWords()}
	if err := loadOrCreateJSON(dirs, StopWordsFile, &stops); err != nil {
		return fmt.Errorf("load stop words: %w", err)
	}

	c.apply(rules, stops.StopWords)
	return nil
}

func configSearchDirs(baseDir string) []string {
	var dirs []string
	if ucd, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(ucd, configAppDir))
	}
	if baseDir != "" {
		dirs = append(dirs, filepath.Join(baseDir, "domain", "rewrite"))
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, filepath.Join(cwd, "domain", "rewrite"), cwd)
	}
	return dirs
}

// loadOrCreateJSON reads name from the first dir that has it. When no
// dir has the file, the current (default) value of v is written to the
// first writable dir.
func loadOrCreateJSON(dirs []string, name string, v any) error {
	for _, dir := range dirs {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return json.Unmarshal(data, v)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			continue
		}
		return nil
	}
	// Nowhere writable; run on defaults.
	return nil
}

// TitleCase renders s in title case. Words are capitalized except stop
// words; the first word, words after a colon, and words opening a
// parenthesized or quoted group are always capitalized. Configured
// tokens (exact casings, proper nouns, acronyms, dotted abbreviations,
// Roman numerals, versions, emails, prefix/suffix rules) pass through
// protected.
func (c *TitleCaser) TitleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var b strings.Builder
	b.Grow(len(s))

	nextForced := true // first word
	words := strings.Split(s, " ")
	for i, w := range words {
		if i > 0 {
			b.WriteByte(' ')
		}
		if w == "" {
			continue
		}

		core, lead, trail := stripEdges(w)

		// Words opening a parenthesized or quoted group are forced, as
		// is the word after a colon.
		forced := nextForced || strings.ContainsAny(lead, `([{"'“`)
		b.WriteString(lead)
		b.WriteString(c.caseWord(core, forced))
		b.WriteString(trail)

		nextForced = strings.HasSuffix(trail, ":") || strings.ContainsAny(trail, `([{"'“`)
	}

	return b.String()
}

// stripEdges separates leading and trailing punctuation from the word
// core so casing decisions see the bare token.
func stripEdges(w string) (core, lead, trail string) {
	start := 0
	for start < len(w) && strings.ContainsRune(`([{"'“`, rune(w[start])) {
		start++
	}
	end := len(w)
	for end > start && strings.ContainsRune(`)]}"'”,;:!?`, rune(w[end-1])) {
		end--
	}
	return w[start:end], w[:start], w[end:]
}

func (c *TitleCaser) caseWord(w string, forceCap bool) string {
	if w == "" {
		return w
	}

	// Protected forms keep their casing entirely.
	if canonical, ok := c.exact[strings.ToLower(w)]; ok {
		return canonical
	}
	if c.proper[w] {
		return w
	}
	if acronymTokenRe.MatchString(w) || dottedAbbrevRe.MatchString(w) ||
		romanTokenRe.MatchString(w) || versionTokenRe.MatchString(w) ||
		emailTokenRe.MatchString(w) {
		return w
	}
	for _, suf := range c.rules.Suffixes {
		if strings.EqualFold(w, suf) {
			return suf
		}
	}

	// Hyphenated words recurse per segment; only the first segment
	// inherits positional capitalization.
	if strings.Contains(w, "-") {
		parts := strings.Split(w, "-")
		for i, p := range parts {
			parts[i] = c.caseWord(p, forceCap && i == 0)
		}
		return strings.Join(parts, "-")
	}

	lower := strings.ToLower(w)
	if !forceCap && c.stopWords[lower] {
		return lower
	}

	cased := capitalizeFirst(lower)
	for _, pre := range c.rules.Prefixes {
		if strings.HasPrefix(cased, pre) && len(cased) > len(pre) {
			rest := cased[len(pre):]
			cased = pre + capitalizeFirst(rest)
			break
		}
	}
	return cased
}

// capitalizeFirst upper-cases the first alphabetic rune, leaving any
// leading digits or symbols in place.
func capitalizeFirst(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			return string(runes)
		}
	}
	return s
}
