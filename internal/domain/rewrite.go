package domain

import (
	"strings"
	"time"
)

// RewriteMode is the text role a rewrite applies to.
type RewriteMode string

const (
	ModeDefinition   RewriteMode = "Definition"
	ModeMeaningTitle RewriteMode = "MeaningTitle"
	ModeExample      RewriteMode = "Example"
)

// Style codes used by the rewrite-rule table. Legacy index modes map
// onto StyleEnglish at promotion time.
const (
	StyleAcademic     = "Academic"
	StyleCasual       = "Casual"
	StyleEducational  = "Educational"
	StyleEmail        = "Email"
	StyleEnglish      = "English"
	StyleFormal       = "Formal"
	StyleGrammarFix   = "GrammarFix"
	StyleLegal        = "Legal"
	StyleMedical      = "Medical"
	StyleNeutral      = "Neutral"
	StyleProfessional = "Professional"
	StyleSimplify     = "Simplify"
	StyleTechnical    = "Technical"
)

var styleCodes = map[string]string{
	strings.ToLower(StyleAcademic):     StyleAcademic,
	strings.ToLower(StyleCasual):       StyleCasual,
	strings.ToLower(StyleEducational):  StyleEducational,
	strings.ToLower(StyleEmail):        StyleEmail,
	strings.ToLower(StyleEnglish):      StyleEnglish,
	strings.ToLower(StyleFormal):       StyleFormal,
	strings.ToLower(StyleGrammarFix):   StyleGrammarFix,
	strings.ToLower(StyleLegal):        StyleLegal,
	strings.ToLower(StyleMedical):      StyleMedical,
	strings.ToLower(StyleNeutral):      StyleNeutral,
	strings.ToLower(StyleProfessional): StyleProfessional,
	strings.ToLower(StyleSimplify):     StyleSimplify,
	strings.ToLower(StyleTechnical):    StyleTechnical,
}

// NormalizeModeCode maps an arbitrary candidate mode onto the closed set
// of style codes used by rewrite_rule. Legacy index modes (Definition,
// MeaningTitle, Title, Example) map to English. Unrecognized values also
// fall back to English.
func NormalizeModeCode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "definition", "meaningtitle", "title", "example":
		return StyleEnglish
	}
	if code, ok := styleCodes[strings.ToLower(strings.TrimSpace(mode))]; ok {
		return code
	}
	return StyleEnglish
}

// AiAnnotation is one AI-enhanced definition row. The rewrite-memory
// subsystem reads only this table.
type AiAnnotation struct {
	ID                   int64
	SourceCode           string
	ParsedDefinitionID   int64
	OriginalDefinition   string
	AiEnhancedDefinition string
	AiNotesJson          string
	Provider             string
	Model                string
	CreatedUtc           time.Time
}

// AiNotes is the structured blob carried in AiAnnotation.AiNotesJson.
type AiNotes struct {
	OriginalTitle   string             `json:"original_title,omitempty"`
	EnhancedTitle   string             `json:"enhanced_title,omitempty"`
	ExampleRewrites []ExampleRewrite   `json:"example_rewrites,omitempty"`
	Suggestions     []StoredSuggestion `json:"suggestions,omitempty"`
}

// ExampleRewrite is one (original, enhanced) example pair.
type ExampleRewrite struct {
	Original string `json:"original"`
	Enhanced string `json:"enhanced"`
}

// StoredSuggestion is a mined suggestion written back into the notes
// blob by the candidate mining step.
type StoredSuggestion struct {
	Mode        RewriteMode `json:"mode"`
	Text        string      `json:"text"`
	Score       float64     `json:"score"`
	MatchedHash string      `json:"matched_hash,omitempty"`
	Source      string      `json:"source"`
}

// MaxExampleRewritesPerAnnotation caps how many example pairs a single
// annotation may fan out into the index.
const MaxExampleRewritesPerAnnotation = 20

// SuggestionIndexRow is an index-ready (original, enhanced) tuple.
type SuggestionIndexRow struct {
	SourceCode       string
	Mode             RewriteMode
	OriginalText     string
	EnhancedText     string
	OriginalTextHash string
}

// Suggestion is one ranked rewrite candidate returned by the suggestion
// engine.
type Suggestion struct {
	Mode                   RewriteMode
	SuggestionText         string
	Score                  float64
	MatchedHash            string
	MatchedOriginalPreview string
	Source                 string
}

// CandidateStatus is the lifecycle state of a rewrite-map candidate.
// Transitions are monotonic: Pending → Approved → Promoted, or Pending →
// Rejected (terminal).
type CandidateStatus string

const (
	CandidatePending  CandidateStatus = "Pending"
	CandidateApproved CandidateStatus = "Approved"
	CandidateRejected CandidateStatus = "Rejected"
	CandidatePromoted CandidateStatus = "Promoted"
)

// RewriteMapCandidate is a proposed (from, to) rewrite awaiting operator
// approval. Natural key: (SourceCode, Mode, FromText, ToText).
type RewriteMapCandidate struct {
	ID                 int64
	SourceCode         string
	Mode               string
	FromText           string
	ToText             string
	SuggestedCount     int
	AvgConfidenceScore float64
	FirstSeenUtc       time.Time
	LastSeenUtc        time.Time
	Status             CandidateStatus
}

// RewriteRule is a promoted, authoritative rewrite applied at parse
// time. Unique under (ModeCode ?? '', FromText, IsWholeWord, IsRegex).
type RewriteRule struct {
	ID          int64
	FromText    string
	ToText      string
	ModeCode    *string // nil = global
	IsWholeWord bool
	IsRegex     bool
	Priority    int // lower = applied first
	Enabled     bool
	Notes       string
}

// Priority bounds for rewrite rules.
const (
	MinRulePriority  = 50
	BaseRulePriority = 500
	MaxRulePriority  = 1000
)

// RulePriority derives the promoted rule's priority from candidate
// observation statistics. Boosts subtract from the base so that heavily
// suggested, high-confidence rules apply first.
func RulePriority(suggestedCount int, avgConfidence float64) int {
	p := BaseRulePriority
	switch {
	case suggestedCount >= 50:
		p -= 30
	case suggestedCount >= 10:
		p -= 20
	case suggestedCount >= 3:
		p -= 10
	}
	switch {
	case avgConfidence >= 0.90:
		p -= 30
	case avgConfidence >= 0.75:
		p -= 20
	case avgConfidence >= 0.60:
		p -= 10
	}
	if p < MinRulePriority {
		p = MinRulePriority
	}
	if p > MaxRulePriority {
		p = MaxRulePriority
	}
	return p
}

// ConfidenceForScore maps a suggestion score onto the fixed confidence
// buckets.
func ConfidenceForScore(score float64) float64 {
	switch {
	case score >= 2.0:
		return 0.90
	case score >= 1.6:
		return 0.80
	case score >= 1.2:
		return 0.70
	default:
		return 0.60
	}
}

// RuleHitKey identifies one counter in the rewrite-rule hit log.
type RuleHitKey struct {
	SourceCode string
	Mode       string
	RuleType   string
	RuleKey    string
}

// RuleHit is an accumulated hit-log row ready for batch upsert.
type RuleHit struct {
	RuleHitKey
	HitCount    int
	FirstHitUtc time.Time
	LastHitUtc  time.Time
}
