// Package drift compares two runs, typically two releases of the same
// taxonomy, and reports what changed between them.
package drift

import (
	"sort"

	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

// Edge identifies a parent → child relationship.
type Edge struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

// LabelChange records a concept whose labels differ between runs.
type LabelChange struct {
	ID     string    `json:"id"`
	Lang   xbrl.Lang `json:"lang"`
	Before string    `json:"before"`
	After  string    `json:"after"`
}

// Report lists the differences from an old run to a new one. Every
// slice is sorted.
type Report struct {
	AddedConcepts   []string      `json:"added_concepts"`
	RemovedConcepts []string      `json:"removed_concepts"`
	AddedEdges      []Edge        `json:"added_edges"`
	RemovedEdges    []Edge        `json:"removed_edges"`
	Relabelled      []LabelChange `json:"relabelled"`
}

// Empty reports whether the runs are equivalent.
func (r Report) Empty() bool {
	return len(r.AddedConcepts) == 0 && len(r.RemovedConcepts) == 0 &&
		len(r.AddedEdges) == 0 && len(r.RemovedEdges) == 0 &&
		len(r.Relabelled) == 0
}

// Compare diffs two runs. Concepts are matched by id, the last
// declaration of a duplicated id winning; edges are compared as sets.
func Compare(oldConcepts, newConcepts []xbrl.Concept, oldRows, newRows []xbrl.Row) Report {
	var r Report

	before := index(oldConcepts)
	after := index(newConcepts)
	for id, c := range after {
		prev, ok := before[id]
		if !ok {
			r.AddedConcepts = append(r.AddedConcepts, id)
			continue
		}
		if prev.English != c.English {
			r.Relabelled = append(r.Relabelled, LabelChange{ID: id, Lang: xbrl.LangEnglish, Before: prev.English, After: c.English})
		}
		if prev.Japanese != c.Japanese {
			r.Relabelled = append(r.Relabelled, LabelChange{ID: id, Lang: xbrl.LangJapanese, Before: prev.Japanese, After: c.Japanese})
		}
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			r.RemovedConcepts = append(r.RemovedConcepts, id)
		}
	}

	oldEdges := edges(oldRows)
	newEdges := edges(newRows)
	for e := range newEdges {
		if _, ok := oldEdges[e]; !ok {
			r.AddedEdges = append(r.AddedEdges, e)
		}
	}
	for e := range oldEdges {
		if _, ok := newEdges[e]; !ok {
			r.RemovedEdges = append(r.RemovedEdges, e)
		}
	}

	sort.Strings(r.AddedConcepts)
	sort.Strings(r.RemovedConcepts)
	sortEdges(r.AddedEdges)
	sortEdges(r.RemovedEdges)
	sort.Slice(r.Relabelled, func(i, j int) bool {
		a, b := r.Relabelled[i], r.Relabelled[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.Lang < b.Lang
	})
	return r
}

func index(concepts []xbrl.Concept) map[string]xbrl.Concept {
	m := make(map[string]xbrl.Concept, len(concepts))
	for _, c := range concepts {
		m[c.ID] = c
	}
	return m
}

func edges(rows []xbrl.Row) map[Edge]struct{} {
	m := make(map[Edge]struct{}, len(rows))
	for _, row := range rows {
		m[Edge{Parent: row.Parent, Child: row.Child}] = struct{}{}
	}
	return m
}

func sortEdges(es []Edge) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].Parent != es[j].Parent {
			return es[i].Parent < es[j].Parent
		}
		return es[i].Child < es[j].Child
	})
}
