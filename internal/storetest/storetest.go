// Package storetest holds behaviour tests shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/xplore/pkg/xplore/internalerr"
	"github.com/cognicore/xplore/pkg/xplore/store"
	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

// SampleRun returns a small run with a duplicated concept id and a
// repeated edge.
func SampleRun(id string) store.Run {
	return store.Run{
		Info: store.RunInfo{
			ID:        id,
			Schema:    "/tax/cor.xsd",
			StartedAt: time.Date(2024, 11, 1, 9, 30, 0, 0, time.UTC),
		},
		Concepts: []xbrl.Concept{
			{ID: "A", Name: "Assets", English: "Assets", Japanese: "資産", DataType: "xbrli:monetaryItemType", SubstitutionGroup: "xbrli:item", Balance: "debit"},
			{ID: "C", Name: "Cash", English: "Cash", Japanese: "現金", DataType: "xbrli:monetaryItemType", SubstitutionGroup: "xbrli:item", Balance: "debit"},
			{ID: "A", Name: "AssetsAgain", English: "N/A", Japanese: "N/A", DataType: "Unknown", SubstitutionGroup: "N/A", Balance: "N/A"},
		},
		Rows: []xbrl.Row{
			{Parent: "A", Child: "C", ParentEnglish: "Assets", ParentJapanese: "資産", ChildEnglish: "Cash", ChildJapanese: "現金", DataType: "xbrli:monetaryItemType", SubstitutionGroup: "xbrli:item", Balance: "debit"},
			{Parent: "A", Child: "B", ParentEnglish: "Assets", ParentJapanese: "資産", ChildEnglish: "B", ChildJapanese: "B", DataType: "xbrli:monetaryItemType", SubstitutionGroup: "xbrli:item", Balance: "debit"},
			{Parent: "A", Child: "C", ParentEnglish: "Assets", ParentJapanese: "資産", ChildEnglish: "Cash", ChildJapanese: "現金", DataType: "xbrli:monetaryItemType", SubstitutionGroup: "xbrli:item", Balance: "debit"},
			{Parent: "X", Child: "C", ParentEnglish: "X", ParentJapanese: "X", ChildEnglish: "Cash", ChildJapanese: "現金", DataType: "N/A", SubstitutionGroup: "N/A", Balance: "N/A"},
		},
	}
}

// Run exercises a store implementation. open must return a fresh,
// empty store.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("SaveAndGet", func(t *testing.T) {
		ctx := context.Background()
		st := open(t)
		defer st.Close()

		run := SampleRun("01J000000000000000000000AA")
		require.NoError(t, st.SaveRun(ctx, run))

		info, ok, err := st.GetRun(ctx, run.Info.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, run.Info.Schema, info.Schema)
		assert.True(t, run.Info.StartedAt.Equal(info.StartedAt))
		assert.Equal(t, 3, info.Concepts)
		assert.Equal(t, 4, info.Rows)

		_, ok, err = st.GetRun(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ConceptsKeepOrderAndDuplicates", func(t *testing.T) {
		ctx := context.Background()
		st := open(t)
		defer st.Close()

		run := SampleRun("01J000000000000000000000AA")
		require.NoError(t, st.SaveRun(ctx, run))

		concepts, err := st.Concepts(ctx, run.Info.ID)
		require.NoError(t, err)
		assert.Equal(t, run.Concepts, concepts)

		a, ok, err := st.GetConcept(ctx, run.Info.ID, "A")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "AssetsAgain", a.Name, "last duplicate wins")

		_, ok, err = st.GetConcept(ctx, run.Info.ID, "Z")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = st.Concepts(ctx, "missing")
		assert.ErrorIs(t, err, internalerr.ErrNotFound)
		_, _, err = st.GetConcept(ctx, "missing", "A")
		assert.ErrorIs(t, err, internalerr.ErrNotFound)
	})

	t.Run("RowsQuery", func(t *testing.T) {
		ctx := context.Background()
		st := open(t)
		defer st.Close()

		run := SampleRun("01J000000000000000000000AA")
		require.NoError(t, st.SaveRun(ctx, run))

		all, err := st.Rows(ctx, run.Info.ID, store.RowQuery{})
		require.NoError(t, err)
		assert.Equal(t, run.Rows, all, "rows are returned whole and in order, duplicates included")

		byParent, err := st.Rows(ctx, run.Info.ID, store.RowQuery{Parent: "A"})
		require.NoError(t, err)
		assert.Len(t, byParent, 3)

		byChild, err := st.Rows(ctx, run.Info.ID, store.RowQuery{Child: "C"})
		require.NoError(t, err)
		assert.Len(t, byChild, 3)

		both, err := st.Rows(ctx, run.Info.ID, store.RowQuery{Parent: "X", Child: "C"})
		require.NoError(t, err)
		require.Len(t, both, 1)
		assert.Equal(t, "N/A", both[0].Balance)

		limited, err := st.Rows(ctx, run.Info.ID, store.RowQuery{Child: "C", Limit: 2})
		require.NoError(t, err)
		assert.Len(t, limited, 2)

		_, err = st.Rows(ctx, "missing", store.RowQuery{})
		assert.ErrorIs(t, err, internalerr.ErrNotFound)
	})

	t.Run("RunsAreImmutable", func(t *testing.T) {
		ctx := context.Background()
		st := open(t)
		defer st.Close()

		run := SampleRun("01J000000000000000000000AA")
		require.NoError(t, st.SaveRun(ctx, run))

		again := SampleRun(run.Info.ID)
		again.Rows = nil
		assert.ErrorIs(t, st.SaveRun(ctx, again), internalerr.ErrDuplicate)

		rows, err := st.Rows(ctx, run.Info.ID, store.RowQuery{})
		require.NoError(t, err)
		assert.Len(t, rows, 4)

		// mutating the saved value must not leak into the store
		run.Rows[0].Parent = "mutated"
		rows, err = st.Rows(ctx, run.Info.ID, store.RowQuery{Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, "A", rows[0].Parent)

		assert.ErrorIs(t, st.SaveRun(ctx, store.Run{}), internalerr.ErrInvalidInput)
	})

	t.Run("ListAndLatest", func(t *testing.T) {
		ctx := context.Background()
		st := open(t)
		defer st.Close()

		_, ok, err := st.LatestRun(ctx)
		require.NoError(t, err)
		assert.False(t, ok)

		for _, id := range []string{"01J000000000000000000000AB", "01J000000000000000000000AC", "01J000000000000000000000AA"} {
			require.NoError(t, st.SaveRun(ctx, SampleRun(id)))
		}

		runs, err := st.ListRuns(ctx)
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, "01J000000000000000000000AC", runs[0].ID)
		assert.Equal(t, "01J000000000000000000000AA", runs[2].ID)

		latest, ok, err := st.LatestRun(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "01J000000000000000000000AC", latest.ID)
	})

	t.Run("DeleteRun", func(t *testing.T) {
		ctx := context.Background()
		st := open(t)
		defer st.Close()

		require.NoError(t, st.SaveRun(ctx, SampleRun("keep")))
		require.NoError(t, st.SaveRun(ctx, SampleRun("drop")))

		ok, err := st.DeleteRun(ctx, "drop")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = st.DeleteRun(ctx, "drop")
		require.NoError(t, err)
		assert.False(t, ok)

		_, found, err := st.GetRun(ctx, "drop")
		require.NoError(t, err)
		assert.False(t, found)
		_, err = st.Rows(ctx, "drop", store.RowQuery{})
		assert.ErrorIs(t, err, internalerr.ErrNotFound)

		rows, err := st.Rows(ctx, "keep", store.RowQuery{})
		require.NoError(t, err)
		assert.NotEmpty(t, rows)

		// the id is free again
		require.NoError(t, st.SaveRun(ctx, SampleRun("drop")))
	})

	t.Run("EmptyRun", func(t *testing.T) {
		ctx := context.Background()
		st := open(t)
		defer st.Close()

		run := store.Run{Info: store.RunInfo{ID: "empty", StartedAt: time.Now()}}
		require.NoError(t, st.SaveRun(ctx, run))

		rows, err := st.Rows(ctx, "empty", store.RowQuery{})
		require.NoError(t, err)
		assert.Empty(t, rows)

		concepts, err := st.Concepts(ctx, "empty")
		require.NoError(t, err)
		assert.Empty(t, concepts)
	})
}
