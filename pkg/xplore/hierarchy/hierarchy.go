// Package hierarchy collects presentation arcs into a parent → ordered
// children adjacency structure.
//
// The result is a flat edge collection. It is not checked for cycles or
// for a tree shape; callers traversing it must bound their walk.
package hierarchy

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/xplore/pkg/xplore/markup"
	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

var presentationArcs = markup.Named(markup.NSLinkbase, "presentationArc")

// Hierarchy is an immutable parent → children adjacency list.
type Hierarchy struct {
	parents  []string
	children map[string][]string
	edges    int
}

// New returns an empty hierarchy.
func New() *Hierarchy {
	return &Hierarchy{children: make(map[string][]string)}
}

// FromEdges builds a hierarchy from edges in order.
func FromEdges(edges []xbrl.Edge) *Hierarchy {
	h := New()
	for _, e := range edges {
		h.add(e)
	}
	return h
}

func (h *Hierarchy) add(e xbrl.Edge) {
	if _, ok := h.children[e.Parent]; !ok {
		h.parents = append(h.parents, e.Parent)
	}
	h.children[e.Parent] = append(h.children[e.Parent], e.Child)
	h.edges++
}

// Parents returns parent ids in first-seen order.
func (h *Hierarchy) Parents() []string {
	return append([]string(nil), h.parents...)
}

// Children returns the ordered children of parent, duplicates included.
func (h *Hierarchy) Children(parent string) []string {
	return append([]string(nil), h.children[parent]...)
}

// EdgeCount returns the sum of all child-list lengths.
func (h *Hierarchy) EdgeCount() int {
	return h.edges
}

// Edges returns every edge, grouped by parent in first-seen order.
func (h *Hierarchy) Edges() []xbrl.Edge {
	out := make([]xbrl.Edge, 0, h.edges)
	for _, p := range h.parents {
		for _, c := range h.children[p] {
			out = append(out, xbrl.Edge{Parent: p, Child: c})
		}
	}
	return out
}

// Roots returns the parents that never appear as a child, in first-seen
// order. A hierarchy made only of cycles has no roots.
func (h *Hierarchy) Roots() []string {
	isChild := make(map[string]struct{})
	for _, cs := range h.children {
		for _, c := range cs {
			isChild[c] = struct{}{}
		}
	}
	var roots []string
	for _, p := range h.parents {
		if _, ok := isChild[p]; !ok {
			roots = append(roots, p)
		}
	}
	return roots
}

// Stats summarizes a Build call.
type Stats struct {
	Documents   int
	Edges       int
	DroppedArcs int
}

// Builder parses presentation linkbases.
type Builder struct {
	workers int
	logger  *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(workers int, logger *slog.Logger) *Builder {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{workers: workers, logger: logger}
}

// ParseDocument returns the edges of one presentation linkbase in
// document order and the number of arcs missing a from or to.
func (b *Builder) ParseDocument(path string) ([]xbrl.Edge, int, error) {
	elems, err := markup.DecodeFile(path, presentationArcs)
	if err != nil {
		return nil, 0, err
	}

	var (
		edges   []xbrl.Edge
		dropped int
	)
	for _, el := range elems {
		from, _ := el.XLink("from")
		to, _ := el.XLink("to")
		if from == "" || to == "" {
			dropped++
			continue
		}
		edges = append(edges, xbrl.Edge{Parent: from, Child: to})
	}
	return edges, dropped, nil
}

// Build parses paths, concurrently, and concatenates their edges in the
// order the paths were given. Any unreadable or malformed document
// aborts the build.
func (b *Builder) Build(ctx context.Context, paths []string) (*Hierarchy, Stats, error) {
	type result struct {
		edges   []xbrl.Edge
		dropped int
	}
	results := make([]result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			edges, dropped, err := b.ParseDocument(p)
			if err != nil {
				return err
			}
			results[i] = result{edges: edges, dropped: dropped}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	h := New()
	stats := Stats{Documents: len(paths)}
	for i, r := range results {
		for _, e := range r.edges {
			h.add(e)
		}
		stats.DroppedArcs += r.dropped
		b.logger.Debug("presentation document parsed", "path", paths[i], "edges", len(r.edges), "dropped_arcs", r.dropped)
	}
	stats.Edges = h.EdgeCount()

	b.logger.Info("hierarchy built",
		"documents", stats.Documents,
		"parents", len(h.parents),
		"edges", stats.Edges,
		"dropped_arcs", stats.DroppedArcs,
	)
	return h, stats, nil
}
