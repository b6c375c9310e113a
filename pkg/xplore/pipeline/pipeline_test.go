package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/xplore/internal/taxotest"
	"github.com/cognicore/xplore/pkg/xplore/internalerr"
	"github.com/cognicore/xplore/pkg/xplore/relation"
	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

func balanceSheet() taxotest.Taxonomy {
	tx := taxotest.ScenarioA()
	tx.Schema = taxotest.Schema(
		taxotest.Element{ID: "A", Name: "Assets", Type: "xbrli:monetaryItemType", SubstitutionGroup: "xbrli:item", Balance: "debit"},
		taxotest.Element{ID: "C", Name: "Cash", Type: "xbrli:monetaryItemType", SubstitutionGroup: "xbrli:item", Balance: "credit"},
		taxotest.Element{ID: "H", Name: "Heading", Type: "xbrli:stringItemType", SubstitutionGroup: "xbrldt:hypercubeItem"},
	)
	tx.Relations = map[string]string{
		"bs/cor_pre_bs.xml": taxotest.Presentation(
			xbrl.Arc{From: "H", To: "A"},
			xbrl.Arc{From: "A", To: "C"},
			xbrl.Arc{From: "A", To: "B"},
		),
		"pl/cor_pre_pl.xml": taxotest.Presentation(
			xbrl.Arc{From: "A", To: "C"},
		),
		"bs/cor_cal_bs.xml": taxotest.Presentation(xbrl.Arc{From: "Z", To: "Y"}),
		"bs/cor_def_bs.xml": taxotest.Presentation(xbrl.Arc{From: "Z", To: "Y"}),
	}
	return tx
}

func run(t *testing.T, root string, workers int) *Result {
	t.Helper()
	p := New(Options{Layout: LayoutAt(root, "cor.xsd"), Workers: workers})
	res, err := p.Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestRunEndToEnd(t *testing.T) {
	root := t.TempDir()
	balanceSheet().WriteTo(t, root)

	res := run(t, root, 2)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.Catalog.Len())
	assert.Equal(t, 2, res.Stats.Files[relation.Presentation])
	assert.Equal(t, 1, res.Stats.Files[relation.Definition])
	assert.Equal(t, 1, res.Stats.Files[relation.Calculation])

	// Scenario A
	a, ok := res.Catalog.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, "Assets", a.English)
	assert.Equal(t, "資産", a.Japanese)
	assert.Equal(t, "debit", a.Balance)

	// one row per edge
	require.Len(t, res.Rows, res.Hierarchy.EdgeCount())
	require.Len(t, res.Rows, 4)

	// bs/ sorts before pl/: H→A, then A→C, A→B, A→C grouped under A
	assert.Equal(t, xbrl.Row{
		Parent: "A", Child: "B",
		ParentEnglish: "Assets", ParentJapanese: "資産",
		ChildEnglish: "B", ChildJapanese: "B",
		DataType: "xbrli:monetaryItemType", SubstitutionGroup: "xbrli:item", Balance: "debit",
	}, res.Rows[2])
	assert.Equal(t, "C", res.Rows[3].Child)

	// Scenario B: child attributes never leak into the row
	cashRow := res.Rows[1]
	assert.Equal(t, "C", cashRow.Child)
	assert.Equal(t, "debit", cashRow.Balance)
	assert.Equal(t, "N/A", cashRow.ChildEnglish, "known child without labels keeps the placeholder")

	headingRow := res.Rows[0]
	assert.Equal(t, "H", headingRow.Parent)
	assert.Equal(t, "N/A", headingRow.Balance)
	assert.Equal(t, "xbrldt:hypercubeItem", headingRow.SubstitutionGroup)
}

func TestRunWithoutLabels(t *testing.T) {
	root := t.TempDir()
	tx := balanceSheet()
	tx.Labels = nil
	tx.WriteTo(t, root)

	res := run(t, root, 1)

	assert.Equal(t, 0, res.Stats.Labels.Documents)
	for _, c := range res.Catalog.Concepts() {
		assert.Equal(t, "N/A", c.English, c.ID)
		assert.Equal(t, "N/A", c.Japanese, c.ID)
	}
	assert.Len(t, res.Rows, 4)
}

func TestRunScenarioCLastSortedLabelFileWins(t *testing.T) {
	root := t.TempDir()
	tx := taxotest.ScenarioA()
	lb := func(text string) string {
		return taxotest.LabelLinkbase{
			Locs:   []taxotest.Loc{{Label: "l", Href: "cor.xsd#A"}},
			Labels: []taxotest.Label{{Label: "t", Lang: "en", Text: text}},
			Arcs:   []xbrl.Arc{{From: "l", To: "t"}},
		}.String()
	}
	tx.Labels = map[string]string{
		"zz_lab.xml":    lb("last"),
		"aa_lab.xml":    lb("first"),
		"mm_lab-en.xml": lb("middle"),
	}
	tx.WriteTo(t, root)

	for _, workers := range []int{1, 8} {
		res := run(t, root, workers)
		a, ok := res.Catalog.Lookup("A")
		require.True(t, ok)
		assert.Equal(t, "last", a.English)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	root := t.TempDir()
	balanceSheet().WriteTo(t, root)

	first := run(t, root, 1)
	second := run(t, root, 4)

	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Catalog.Concepts(), second.Catalog.Concepts())
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunMissingRelationFolder(t *testing.T) {
	root := t.TempDir()
	taxotest.ScenarioA().WriteTo(t, root)

	res := run(t, root, 1)
	assert.Empty(t, res.Rows)
	assert.Equal(t, 1, res.Catalog.Len())
}

func TestRunFatalErrors(t *testing.T) {
	t.Run("missing schema", func(t *testing.T) {
		root := t.TempDir()
		p := New(Options{Layout: LayoutAt(root, "absent.xsd")})
		_, err := p.Run(context.Background())
		assert.ErrorIs(t, err, internalerr.ErrMissingResource)
	})

	t.Run("malformed label", func(t *testing.T) {
		root := t.TempDir()
		tx := taxotest.ScenarioA()
		tx.Labels["broken_lab.xml"] = "<link:linkbase"
		tx.WriteTo(t, root)

		_, err := New(Options{Layout: LayoutAt(root, "cor.xsd")}).Run(context.Background())
		assert.ErrorIs(t, err, internalerr.ErrMalformedDocument)
	})

	t.Run("malformed presentation", func(t *testing.T) {
		root := t.TempDir()
		tx := taxotest.ScenarioA()
		tx.Relations = map[string]string{"x_pre_.xml": "<a><b></a>"}
		tx.WriteTo(t, root)

		_, err := New(Options{Layout: LayoutAt(root, "cor.xsd")}).Run(context.Background())
		assert.ErrorIs(t, err, internalerr.ErrMalformedDocument)
		assert.Contains(t, err.Error(), "x_pre_.xml")
	})
}

func TestLayoutAt(t *testing.T) {
	l := LayoutAt("/tax", "cor.xsd")
	assert.Equal(t, filepath.Join("/tax", "cor.xsd"), l.Schema)
	assert.Equal(t, filepath.Join("/tax", "label"), l.LabelDir)
	assert.Equal(t, filepath.Join("/tax", "r"), l.RelationDir)
}
