package enrich

import "github.com/cognicore/xplore/pkg/xplore/xbrl"

// All is the selector value meaning "no constraint".
const All = "All"

// Filter selects rows by exact english label.
type Filter struct {
	Parent string
	Child  string
}

func (f Filter) isSet(v string) bool {
	return v != "" && v != All
}

// Apply returns the rows matching f, in order.
func (f Filter) Apply(rows []xbrl.Row) []xbrl.Row {
	if !f.isSet(f.Parent) && !f.isSet(f.Child) {
		return rows
	}
	var out []xbrl.Row
	for _, r := range rows {
		if f.isSet(f.Parent) && r.ParentEnglish != f.Parent {
			continue
		}
		if f.isSet(f.Child) && r.ChildEnglish != f.Child {
			continue
		}
		out = append(out, r)
	}
	return out
}

// UniqueParents returns the distinct parent english labels in first-seen
// order.
func UniqueParents(rows []xbrl.Row) []string {
	return unique(rows, func(r xbrl.Row) string { return r.ParentEnglish })
}

// UniqueChildren returns the distinct child english labels in first-seen
// order.
func UniqueChildren(rows []xbrl.Row) []string {
	return unique(rows, func(r xbrl.Row) string { return r.ChildEnglish })
}

func unique(rows []xbrl.Row, key func(xbrl.Row) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
