// Package catalog builds the concept catalog from a taxonomy schema and
// the resolved labels.
package catalog

import (
	"fmt"

	"github.com/cognicore/xplore/pkg/xplore/label"
	"github.com/cognicore/xplore/pkg/xplore/markup"
	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

var schemaElements = markup.Named(markup.NSSchema, "element")

// Catalog is the ordered, immutable list of concepts declared by one
// schema document.
type Catalog struct {
	concepts []xbrl.Concept
	index    map[string]int
	dups     []string
}

// Build parses the schema at schemaPath. Every xs:element carrying a
// non-empty id becomes one concept, in document order; duplicate ids are
// kept as separate entries. A missing or malformed schema is an error.
func Build(schemaPath string, labels *label.Labels, ph xbrl.Placeholders) (*Catalog, error) {
	elems, err := markup.DecodeFile(schemaPath, schemaElements)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	var concepts []xbrl.Concept
	for _, el := range elems {
		id, _ := el.Attr("", "id")
		if id == "" {
			continue
		}
		concepts = append(concepts, conceptOf(id, el, labels, ph))
	}
	return New(concepts), nil
}

func conceptOf(id string, el markup.Element, labels *label.Labels, ph xbrl.Placeholders) xbrl.Concept {
	name, hasName := el.Attr("", "name")
	typ, hasType := el.Attr("", "type")
	subst, hasSubst := el.Attr("", "substitutionGroup")
	balance, hasBalance := el.Attr(markup.NSInstance, "balance")
	en, hasEn := labels.Text(id, xbrl.LangEnglish)
	ja, hasJa := labels.Text(id, xbrl.LangJapanese)

	return xbrl.Concept{
		ID:                id,
		Name:              ph.IdentityOr(name, hasName),
		English:           ph.LabelOr(en, hasEn),
		Japanese:          ph.LabelOr(ja, hasJa),
		DataType:          ph.IdentityOr(typ, hasType),
		SubstitutionGroup: ph.AttributeOr(subst, hasSubst),
		Balance:           ph.AttributeOr(balance, hasBalance),
	}
}

// New wraps an ordered concept list. Lookup resolves a duplicated id to
// its last occurrence.
func New(concepts []xbrl.Concept) *Catalog {
	c := &Catalog{
		concepts: concepts,
		index:    make(map[string]int, len(concepts)),
	}
	for i, con := range concepts {
		if _, seen := c.index[con.ID]; seen {
			c.dups = append(c.dups, con.ID)
		}
		c.index[con.ID] = i
	}
	return c
}

// Len returns the number of concepts, duplicates included.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.concepts)
}

// Concepts returns a copy of the concepts in schema order.
func (c *Catalog) Concepts() []xbrl.Concept {
	if c == nil {
		return nil
	}
	out := make([]xbrl.Concept, len(c.concepts))
	copy(out, c.concepts)
	return out
}

// Lookup returns the concept with the given id.
func (c *Catalog) Lookup(id string) (xbrl.Concept, bool) {
	if c == nil {
		return xbrl.Concept{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return xbrl.Concept{}, false
	}
	return c.concepts[i], true
}

// Duplicates lists ids declared more than once, one entry per repeat.
func (c *Catalog) Duplicates() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.dups...)
}
