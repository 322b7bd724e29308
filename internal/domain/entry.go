package domain

import "time"

// Sentinels that replace or forbid text payloads.
const (
	// NonEnglishSentinel replaces the canonical text column when the
	// original payload is routed to the non-English side-store.
	NonEnglishSentinel = "[NON_ENGLISH]"

	// BilingualExampleSentinel marks examples that mix languages; it is
	// forbidden as both original and rewritten text.
	BilingualExampleSentinel = "[BILINGUAL_EXAMPLE]"
)

// MinCreatedUtc is the floor for entry timestamps. Values below it are
// coerced to the current time at sanitize time.
var MinCreatedUtc = time.Date(1753, 1, 1, 0, 0, 0, 0, time.UTC)

// RawEntry is one candidate row produced by a source parser, before
// sanitization and hashing.
type RawEntry struct {
	Word           string
	NormalizedWord string
	PartOfSpeech   *string
	Definition     string
	Etymology      *string
	SenseNumber    *int
	RawFragment    *string
	SourceCode     string
	CreatedUtc     time.Time
}

// StagingRow is a sanitized entry ready for bulk load, carrying the
// SHA-256 hashes that drive deduplication. The dedup key is
// (SourceCode, SenseNumber ?? -1, WordHash, DefinitionHash).
type StagingRow struct {
	Word           string
	NormalizedWord string
	PartOfSpeech   *string
	Definition     string
	Etymology      *string
	SenseNumber    *int
	RawFragment    *string
	SourceCode     string
	WordHash       []byte
	DefinitionHash []byte
	CreatedUtc     time.Time
}

// DictionaryEntry is the canonical word row, one per
// (source_code, normalized_word).
type DictionaryEntry struct {
	ID                     int64
	SourceCode             string
	Word                   string
	NormalizedWord         string
	PartOfSpeech           *string
	PartOfSpeechConfidence *int // 0–100
	CreatedUtc             time.Time
}

// DefaultMeaningTitle is used when a parsed sense carries no title.
const DefaultMeaningTitle = "unnamed sense"

// ParsedDefinition is one sense of an entry. ParentParsedID links
// sub-senses into a DAG within a single entry. Natural key:
// (EntryID, ParentParsedID ?? -1, MeaningTitle, SenseNumber ?? -1).
type ParsedDefinition struct {
	ID             int64
	EntryID        int64
	ParentParsedID *int64
	MeaningTitle   string
	SenseNumber    *int
	DomainCode     *string
	UsageLabel     *string
	Definition     string
	RawFragment    string
	SourceCode     string
	CreatedUtc     time.Time
}

// ChildRow is the common shape of alias/synonym/example/variant/
// cross-reference/etymology rows. ParsedID is zero for entry-scoped
// children (variant, etymology), EntryID is zero for sense-scoped ones.
type ChildRow struct {
	ParsedID          int64
	EntryID           int64
	Text              string
	SourceCode        string
	HasNonEnglishText bool
	NonEnglishTextID  *int64
	CreatedUtc        time.Time
}

// FieldType labels what role a non-English payload played in its parent
// row.
type FieldType string

const (
	FieldDefinition     FieldType = "Definition"
	FieldExample        FieldType = "Example"
	FieldSynonym        FieldType = "Synonym"
	FieldAlias          FieldType = "Alias"
	FieldVariant        FieldType = "Variant"
	FieldCrossReference FieldType = "CrossReference"
	FieldEtymology      FieldType = "Etymology"
)

// NonEnglishText is an append-only side-store row holding the original
// non-English payload whose parent column was replaced with
// NonEnglishSentinel.
type NonEnglishText struct {
	ID               int64
	OriginalText     string
	DetectedLanguage *string
	CharacterCount   int
	SourceCode       string
	FieldType        FieldType
	CreatedUtc       time.Time
}
