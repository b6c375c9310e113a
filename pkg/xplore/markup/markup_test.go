package markup

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/xplore/pkg/xplore/internalerr"
)

const linkbaseDoc = `<?xml version="1.0" encoding="UTF-8"?>
<link:linkbase xmlns:link="http://www.xbrl.org/2003/linkbase" xmlns:xlink="http://www.w3.org/1999/xlink">
  <link:labelLink xlink:type="extended">
    <link:loc xlink:type="locator" xlink:href="cor.xsd#A" xlink:label="loc_A"/>
    <link:label xlink:type="resource" xlink:label="lab_A" xml:lang="en">  Assets  </link:label>
    <link:label xlink:type="resource" xlink:label="lab_A" xml:lang="ja"><![CDATA[資産]]></link:label>
    <link:labelArc xlink:type="arc" xlink:from="loc_A" xlink:to="lab_A"/>
  </link:labelLink>
</link:linkbase>`

func TestDecodeMatchesAnywhereInDocumentOrder(t *testing.T) {
	elems, err := Decode(strings.NewReader(linkbaseDoc), Named(NSLinkbase, "loc", "label", "labelArc"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := []string{"loc", "label", "label", "labelArc"}
	if len(elems) != len(want) {
		t.Fatalf("Expected %d elements, got %d", len(want), len(elems))
	}
	for i, w := range want {
		if elems[i].Name.Local != w {
			t.Errorf("elems[%d] = %s, want %s", i, elems[i].Name.Local, w)
		}
	}

	if v, ok := elems[0].XLink("href"); !ok || v != "cor.xsd#A" {
		t.Errorf("href = %q, %v", v, ok)
	}
	if elems[1].Text != "Assets" {
		t.Errorf("Text should be trimmed, got %q", elems[1].Text)
	}
	if lang, ok := elems[1].Attr(NSXML, "lang"); !ok || lang != "en" {
		t.Errorf("xml:lang = %q, %v", lang, ok)
	}
	if elems[2].Text != "資産" {
		t.Errorf("CDATA text = %q", elems[2].Text)
	}
}

func TestDecodeTextStopsAtFirstChild(t *testing.T) {
	doc := `<root xmlns="urn:x"><a>head<b>inner</b>tail</a></root>`
	elems, err := Decode(strings.NewReader(doc), Named("urn:x", "a", "b"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(elems) != 2 {
		t.Fatalf("Expected 2 elements, got %d", len(elems))
	}
	if elems[0].Text != "head" {
		t.Errorf("outer text = %q, want head", elems[0].Text)
	}
	if elems[1].Text != "inner" {
		t.Errorf("inner text = %q, want inner", elems[1].Text)
	}
}

func TestDecodeIgnoresOtherNamespaces(t *testing.T) {
	doc := `<root xmlns:a="urn:a" xmlns:b="urn:b"><a:x/><b:x/></root>`
	elems, err := Decode(strings.NewReader(doc), Named("urn:a", "x"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(elems) != 1 || elems[0].Name.Space != "urn:a" {
		t.Errorf("Expected only urn:a element, got %+v", elems)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"mismatched", `<a><b></a></b>`},
		{"unclosed", `<a><b>`},
		{"empty", ``},
		{"text only", `just text`},
		{"second root", `<a/><b/>`},
		{"junk after root", `<a/>junk`},
		{"arc after root", `<a></a><a>late</a>garbage`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.doc), Named("", "a")); err == nil {
				t.Error("Expected error for malformed document")
			}
		})
	}
}

func TestDecodeTrailingWhitespaceAndComments(t *testing.T) {
	doc := "<?xml version=\"1.0\"?>\n<r><a/></r>\n<!-- end -->\n\n"
	elems, err := Decode(strings.NewReader(doc), Named("", "a"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(elems) != 1 {
		t.Errorf("Expected 1 element, got %d", len(elems))
	}
}

func TestDecodeShiftJIS(t *testing.T) {
	// "資産" in Shift_JIS
	body := []byte("<?xml version=\"1.0\" encoding=\"Shift_JIS\"?><r><l>\x8e\x91\x8e\x59</l></r>")
	elems, err := Decode(strings.NewReader(string(body)), Named("", "l"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(elems) != 1 || elems[0].Text != "資産" {
		t.Errorf("Expected decoded Japanese text, got %+v", elems)
	}
}

func TestDecodeFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := DecodeFile(filepath.Join(dir, "missing.xml"), Named("", "a"))
	if !errors.Is(err, internalerr.ErrMissingResource) {
		t.Errorf("Missing file should wrap ErrMissingResource, got %v", err)
	}

	bad := filepath.Join(dir, "bad.xml")
	if err := os.WriteFile(bad, []byte("<a><b></a>"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = DecodeFile(bad, Named("", "a"))
	if !errors.Is(err, internalerr.ErrMalformedDocument) {
		t.Errorf("Bad file should wrap ErrMalformedDocument, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "bad.xml") {
		t.Errorf("Error should name the file: %v", err)
	}
}
