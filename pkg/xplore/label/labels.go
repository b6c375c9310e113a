package label

import "github.com/cognicore/xplore/pkg/xplore/xbrl"

// Labels is the immutable concept id → language → text mapping produced
// by a Resolve call. A nil *Labels behaves as an empty mapping.
type Labels struct {
	records map[string]map[xbrl.Lang]string
}

// Fold merges documents in the order given. Within and across
// documents the last fragment wins per (concept, language).
func Fold(docs []Document) *Labels {
	records := make(map[string]map[xbrl.Lang]string)
	for _, d := range docs {
		for _, f := range d.Fragments {
			records[f.ConceptID] = Merge(records[f.ConceptID], f.Text)
		}
	}
	return &Labels{records: records}
}

// Merge returns a new mapping holding base overwritten by update, one
// language at a time. Languages absent from update are kept from base.
func Merge(base, update map[xbrl.Lang]string) map[xbrl.Lang]string {
	out := make(map[xbrl.Lang]string, len(xbrl.Langs))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range update {
		out[k] = v
	}
	return out
}

// Len returns the number of concepts with at least one label.
func (l *Labels) Len() int {
	if l == nil {
		return 0
	}
	return len(l.records)
}

// Text returns the label of id in lang.
func (l *Labels) Text(id string, lang xbrl.Lang) (string, bool) {
	if l == nil {
		return "", false
	}
	v, ok := l.records[id][lang]
	return v, ok
}

// Get returns a copy of the label record of id.
func (l *Labels) Get(id string) (xbrl.LabelRecord, bool) {
	if l == nil {
		return xbrl.LabelRecord{}, false
	}
	text, ok := l.records[id]
	if !ok {
		return xbrl.LabelRecord{}, false
	}
	return xbrl.LabelRecord{ConceptID: id, Text: copyText(text)}, true
}
