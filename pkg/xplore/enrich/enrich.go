// Package enrich joins hierarchy edges with the concept catalog into the
// relation table.
package enrich

import (
	"github.com/cognicore/xplore/pkg/xplore/catalog"
	"github.com/cognicore/xplore/pkg/xplore/hierarchy"
	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

// Join emits one row per hierarchy edge, in hierarchy order, without
// deduplication.
//
// Labels of an id missing from the catalog fall back to the id itself.
// Data type, substitution group and balance are read from the parent
// concept only; the child's own values never appear in the row.
func Join(h *hierarchy.Hierarchy, cat *catalog.Catalog, ph xbrl.Placeholders) []xbrl.Row {
	rows := make([]xbrl.Row, 0, h.EdgeCount())
	for _, e := range h.Edges() {
		parent, hasParent := cat.Lookup(e.Parent)
		child, hasChild := cat.Lookup(e.Child)

		row := xbrl.Row{
			Parent:         e.Parent,
			Child:          e.Child,
			ParentEnglish:  e.Parent,
			ParentJapanese: e.Parent,
			ChildEnglish:   e.Child,
			ChildJapanese:  e.Child,
		}
		if hasParent {
			row.ParentEnglish = parent.English
			row.ParentJapanese = parent.Japanese
		}
		if hasChild {
			row.ChildEnglish = child.English
			row.ChildJapanese = child.Japanese
		}
		row.DataType = ph.AttributeOr(parent.DataType, hasParent)
		row.SubstitutionGroup = ph.AttributeOr(parent.SubstitutionGroup, hasParent)
		row.Balance = ph.AttributeOr(parent.Balance, hasParent)

		rows = append(rows, row)
	}
	return rows
}
