// Package xbrl defines the value types shared by every stage of the
// taxonomy extraction pipeline.
package xbrl

// Lang is a label language code.
type Lang string

// The two label languages carried by the catalog. Labels in any other
// language are ignored.
const (
	LangEnglish  Lang = "en"
	LangJapanese Lang = "ja"
)

// Langs lists the supported languages in a fixed order.
var Langs = []Lang{LangEnglish, LangJapanese}

// Valid reports whether l is one of the supported languages.
func (l Lang) Valid() bool {
	return l == LangEnglish || l == LangJapanese
}

// Concept is a single element declared in the taxonomy schema, joined
// with its display labels.
type Concept struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	English           string `json:"english"`
	Japanese          string `json:"japanese"`
	DataType          string `json:"data_type"`
	SubstitutionGroup string `json:"substitution_group"`
	Balance           string `json:"balance"`
}

// LabelRecord holds the resolved label text of one concept.
type LabelRecord struct {
	ConceptID string
	Text      map[Lang]string
}

// Locator maps a document-local xlink label to a concept identifier.
type Locator struct {
	Label  string
	Target string
}

// Arc is a directed xlink relation between two document-local labels
// (label linkbase) or two concept identifiers (presentation linkbase).
type Arc struct {
	From string
	To   string
}

// Edge is one parent → child presentation relationship.
type Edge struct {
	Parent string
	Child  string
}
