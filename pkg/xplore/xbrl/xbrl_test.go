package xbrl

import "testing"

func TestPlaceholdersDefaults(t *testing.T) {
	p := DefaultPlaceholders()

	if got := p.LabelOr("Assets", true); got != "Assets" {
		t.Errorf("LabelOr present: got %q", got)
	}
	if got := p.LabelOr("ignored", false); got != "N/A" {
		t.Errorf("LabelOr absent: got %q, want N/A", got)
	}
	if got := p.IdentityOr("", false); got != "Unknown" {
		t.Errorf("IdentityOr absent: got %q, want Unknown", got)
	}
	if got := p.AttributeOr("", false); got != "N/A" {
		t.Errorf("AttributeOr absent: got %q, want N/A", got)
	}
	// an attribute that is present but empty stays empty
	if got := p.AttributeOr("", true); got != "" {
		t.Errorf("AttributeOr empty present: got %q", got)
	}
}

func TestPlaceholdersWithDefaults(t *testing.T) {
	p := Placeholders{Label: "-"}.WithDefaults()
	if p.Label != "-" {
		t.Errorf("Label overwritten: %q", p.Label)
	}
	if p.Identity != Unknown || p.Attribute != NotAvailable {
		t.Errorf("Defaults not applied: %+v", p)
	}
}

func TestRowValuesMatchColumns(t *testing.T) {
	r := Row{
		Parent:            "A",
		Child:             "B",
		ParentEnglish:     "pe",
		ParentJapanese:    "pj",
		ChildEnglish:      "ce",
		ChildJapanese:     "cj",
		DataType:          "dt",
		SubstitutionGroup: "sg",
		Balance:           "bal",
	}
	vals := r.Values()
	if len(vals) != len(Columns) {
		t.Fatalf("Values has %d entries, Columns has %d", len(vals), len(Columns))
	}
	want := []string{"A", "B", "pe", "pj", "ce", "cj", "dt", "sg", "bal"}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("Values[%d] (%s) = %q, want %q", i, Columns[i], vals[i], want[i])
		}
	}
}

func TestLangValid(t *testing.T) {
	tests := []struct {
		lang Lang
		want bool
	}{
		{LangEnglish, true},
		{LangJapanese, true},
		{"de", false},
		{"", false},
		{"EN", false},
	}
	for _, tt := range tests {
		if got := tt.lang.Valid(); got != tt.want {
			t.Errorf("Lang(%q).Valid() = %v, want %v", tt.lang, got, tt.want)
		}
	}
}
