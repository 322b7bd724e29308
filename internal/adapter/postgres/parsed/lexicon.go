package parsed

import "strings"

// Short codes for regional/register labels found in raw fragments.
var domainLexicon = map[string]string{
	"american":         "AM",
	"american english": "AM",
	"us":               "US",
	"mainly us":        "US",
	"british":          "BRIT",
	"mainly british":   "BRIT",
	"uk":               "BRIT",
	"australian":       "AUS",
	"canadian":         "CAN",
	"irish":            "IRISH",
	"scottish":         "SCOT",
	"formal":           "FORMAL",
	"informal":         "INFORMAL",
	"literary":         "LITERARY",
	"old-fashioned":    "OLD",
	"dated":            "OLD",
	"archaic":          "ARCHAIC",
	"technical":        "TECH",
	"medicine":         "MED",
	"medical":          "MED",
	"law":              "LEGAL",
	"legal":            "LEGAL",
	"computing":        "COMPUT",
	"business":         "BUSINESS",
	"journalism":       "JOURN",
	"slang":            "SLANG",
	"offensive":        "OFFENSIVE",
	"humorous":         "HUMOROUS",
	"spoken":           "SPOKEN",
	"written":          "WRITTEN",
}

// Short codes for grammatical usage labels.
var usageLexicon = map[string]string{
	"countable noun":    "N-COUNT",
	"uncountable noun":  "N-UNCOUNT",
	"singular noun":     "N-SING",
	"plural noun":       "N-PLURAL",
	"proper noun":       "N-PROPER",
	"mass noun":         "N-MASS",
	"variable noun":     "N-VAR",
	"verb":              "VERB",
	"transitive verb":   "V-T",
	"intransitive verb": "V-I",
	"reciprocal verb":   "V-RECIP",
	"phrasal verb":      "PHRASAL-VERB",
	"modal verb":        "MODAL",
	"auxiliary verb":    "AUX",
	"link verb":         "V-LINK",
	"adjective":         "ADJ",
	"graded adjective":  "ADJ-GRADED",
	"adverb":            "ADV",
	"pronoun":           "PRON",
	"preposition":       "PREP",
	"conjunction":       "CONJ",
	"determiner":        "DET",
	"quantifier":        "QUANT",
	"exclamation":       "EXCLAM",
	"interjection":      "INTERJ",
	"predeterminer":     "PREDET",
	"combining form":    "COMB",
	"prefix":            "PREFIX",
	"suffix":            "SUFFIX",
	"abbreviation":      "ABBR",
	"phrase":            "PHRASE",
	"convention":        "CONVENTION",
}

// mapDomainCode resolves a free-form domain/register label to its short
// code. Unknown labels pass through upper-cased so nothing is lost.
func mapDomainCode(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	if key == "" {
		return ""
	}
	if code, ok := domainLexicon[key]; ok {
		return code
	}
	return strings.ToUpper(key)
}

// mapUsageLabel resolves a free-form grammatical label to its short
// code. Unknown labels pass through upper-cased.
func mapUsageLabel(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	if key == "" {
		return ""
	}
	if code, ok := usageLexicon[key]; ok {
		return code
	}
	return strings.ToUpper(key)
}
