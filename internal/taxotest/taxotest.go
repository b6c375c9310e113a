// Package taxotest writes small taxonomy fixtures for tests.
package taxotest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

// Element is a schema element declaration. Empty fields are omitted from
// the generated markup.
type Element struct {
	ID                string
	Name              string
	Type              string
	SubstitutionGroup string
	Balance           string
}

// Schema renders a schema document declaring elems in order.
func Schema(elems ...Element) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" xmlns:xbrli="http://www.xbrl.org/2003/instance">` + "\n")
	for _, e := range elems {
		b.WriteString("  <xs:element")
		attr(&b, "id", e.ID)
		attr(&b, "name", e.Name)
		attr(&b, "type", e.Type)
		attr(&b, "substitutionGroup", e.SubstitutionGroup)
		attr(&b, "xbrli:balance", e.Balance)
		b.WriteString("/>\n")
	}
	b.WriteString("</xs:schema>\n")
	return b.String()
}

// Loc is a link:loc entry.
type Loc struct {
	Label string
	Href  string
}

// Label is a link:label resource.
type Label struct {
	Label string
	Lang  string
	Text  string
}

// LabelLinkbase renders a label linkbase.
type LabelLinkbase struct {
	Locs   []Loc
	Labels []Label
	Arcs   []xbrl.Arc
}

func (l LabelLinkbase) String() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<link:linkbase xmlns:link="http://www.xbrl.org/2003/linkbase" xmlns:xlink="http://www.w3.org/1999/xlink">` + "\n")
	b.WriteString(`  <link:labelLink xlink:type="extended" xlink:role="http://www.xbrl.org/2003/role/link">` + "\n")
	for _, loc := range l.Locs {
		b.WriteString(`    <link:loc xlink:type="locator"`)
		attr(&b, "xlink:href", loc.Href)
		attr(&b, "xlink:label", loc.Label)
		b.WriteString("/>\n")
	}
	for _, lab := range l.Labels {
		b.WriteString(`    <link:label xlink:type="resource"`)
		attr(&b, "xlink:label", lab.Label)
		attr(&b, "xml:lang", lab.Lang)
		b.WriteString(">")
		escape(&b, lab.Text)
		b.WriteString("</link:label>\n")
	}
	for _, arc := range l.Arcs {
		b.WriteString(`    <link:labelArc xlink:type="arc"`)
		attr(&b, "xlink:from", arc.From)
		attr(&b, "xlink:to", arc.To)
		b.WriteString("/>\n")
	}
	b.WriteString("  </link:labelLink>\n</link:linkbase>\n")
	return b.String()
}

// Presentation renders a presentation linkbase holding arcs in order.
func Presentation(arcs ...xbrl.Arc) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<link:linkbase xmlns:link="http://www.xbrl.org/2003/linkbase" xmlns:xlink="http://www.w3.org/1999/xlink">` + "\n")
	b.WriteString(`  <link:presentationLink xlink:type="extended">` + "\n")
	for _, arc := range arcs {
		b.WriteString(`    <link:presentationArc xlink:type="arc"`)
		attr(&b, "xlink:from", arc.From)
		attr(&b, "xlink:to", arc.To)
		b.WriteString("/>\n")
	}
	b.WriteString("  </link:presentationLink>\n</link:linkbase>\n")
	return b.String()
}

// Write writes content to dir/name, creating parent folders, and returns
// the file path.
func Write(tb testing.TB, dir, name, content string) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Taxonomy is a complete fixture layout: root/<Schema>, root/label/...,
// root/r/...
type Taxonomy struct {
	SchemaName string
	Schema     string
	Labels     map[string]string // file name → content, under label/
	Relations  map[string]string // relative path → content, under r/
}

// WriteTo materializes the taxonomy under root.
func (tx Taxonomy) WriteTo(tb testing.TB, root string) {
	tb.Helper()
	name := tx.SchemaName
	if name == "" {
		name = "cor.xsd"
	}
	Write(tb, root, name, tx.Schema)
	for n, c := range tx.Labels {
		Write(tb, filepath.Join(root, "label"), n, c)
	}
	for n, c := range tx.Relations {
		Write(tb, filepath.Join(root, "r"), n, c)
	}
}

// ScenarioA is the canonical one-concept taxonomy: element A "Assets"
// with a debit balance, labelled in english and japanese.
func ScenarioA() Taxonomy {
	return Taxonomy{
		Schema: Schema(Element{
			ID:                "A",
			Name:              "Assets",
			Type:              "xbrli:monetaryItemType",
			SubstitutionGroup: "xbrli:item",
			Balance:           "debit",
		}),
		Labels: map[string]string{
			"cor_lab.xml": LabelLinkbase{
				Locs: []Loc{{Label: "loc_A", Href: "cor.xsd#A"}},
				Labels: []Label{
					{Label: "lab_A", Lang: "en", Text: "Assets"},
					{Label: "lab_A", Lang: "ja", Text: "資産"},
				},
				Arcs: []xbrl.Arc{{From: "loc_A", To: "lab_A"}},
			}.String(),
		},
	}
}

func attr(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, ` %s="`, name)
	escape(b, value)
	b.WriteString(`"`)
}

func escape(b *strings.Builder, s string) {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	b.Write(buf.Bytes())
}
