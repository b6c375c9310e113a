// Package label resolves label linkbases into per-concept display text.
//
// Each document is resolved independently (locator → concept id,
// label resource → text, arc joining the two) and the per-document
// results are folded in lexicographic path order, so when two documents
// label the same concept in the same language the later path wins.
package label

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/xplore/pkg/xplore/markup"
	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

// DefaultPatterns match the file names of label linkbases.
var DefaultPatterns = []string{"*_lab.xml", "*lab-en.xml"}

var linkbaseElements = markup.Named(markup.NSLinkbase, "loc", "label", "labelArc")

// Options configures a Resolver
type Options struct {
	Patterns []string
	Workers  int
	Logger   *slog.Logger
}

// Resolver discovers and resolves label linkbases.
type Resolver struct {
	patterns []string
	workers  int
	logger   *slog.Logger
}

// New creates a Resolver. Zero options fall back to DefaultPatterns, one
// worker and slog.Default().
func New(opts Options) *Resolver {
	r := &Resolver{
		patterns: opts.Patterns,
		workers:  opts.Workers,
		logger:   opts.Logger,
	}
	if len(r.patterns) == 0 {
		r.patterns = DefaultPatterns
	}
	if r.workers <= 0 {
		r.workers = 1
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Fragment is the label text one arc contributes to one concept.
type Fragment struct {
	ConceptID string
	Text      map[xbrl.Lang]string
}

// Document is the resolved content of a single label linkbase.
type Document struct {
	Path        string
	Fragments   []Fragment
	DroppedArcs int
}

// Stats summarizes a Resolve call.
type Stats struct {
	Documents   int
	Fragments   int
	DroppedArcs int
	Concepts    int
}

// Discover lists the label linkbases directly inside dir, sorted by
// path. A missing or unreadable folder yields no documents.
func (r *Resolver) Discover(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.logger.Warn("label folder unavailable", "dir", dir, "err", err)
		return nil
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if r.matches(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths
}

func (r *Resolver) matches(name string) bool {
	for _, p := range r.patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// ParseDocument resolves the label arcs of one linkbase. Arcs whose
// from or to cannot be resolved are dropped.
func (r *Resolver) ParseDocument(path string) (Document, error) {
	elems, err := markup.DecodeFile(path, linkbaseElements)
	if err != nil {
		return Document{}, err
	}

	locators := make(map[string]string)
	labels := make(map[string]map[xbrl.Lang]string)
	var arcs []xbrl.Arc

	for _, el := range elems {
		switch el.Name.Local {
		case "loc":
			loc, ok := locatorOf(el)
			if ok {
				locators[loc.Label] = loc.Target
			}
		case "label":
			id, _ := el.XLink("label")
			lang, _ := el.Attr(markup.NSXML, "lang")
			if id == "" || !xbrl.Lang(lang).Valid() {
				continue
			}
			if labels[id] == nil {
				labels[id] = make(map[xbrl.Lang]string, len(xbrl.Langs))
			}
			labels[id][xbrl.Lang(lang)] = el.Text
		case "labelArc":
			from, _ := el.XLink("from")
			to, _ := el.XLink("to")
			arcs = append(arcs, xbrl.Arc{From: from, To: to})
		}
	}

	doc := Document{Path: path}
	for _, arc := range arcs {
		conceptID := locators[arc.From]
		text, ok := labels[arc.To]
		if conceptID == "" || !ok {
			doc.DroppedArcs++
			r.logger.Debug("dropping unresolved label arc", "path", path, "from", arc.From, "to", arc.To)
			continue
		}
		doc.Fragments = append(doc.Fragments, Fragment{
			ConceptID: conceptID,
			Text:      copyText(text),
		})
	}
	return doc, nil
}

// locatorOf maps a link:loc element to its locator. The target is the
// fragment of xlink:href, or the whole href when it has no fragment.
func locatorOf(el markup.Element) (xbrl.Locator, bool) {
	label, ok := el.XLink("label")
	if !ok || label == "" {
		return xbrl.Locator{}, false
	}
	href, _ := el.XLink("href")
	target := href
	if i := strings.LastIndex(href, "#"); i >= 0 {
		target = href[i+1:]
	}
	return xbrl.Locator{Label: label, Target: target}, true
}

// Resolve resolves every label linkbase in dir. Documents are parsed
// concurrently but folded in sorted path order. The first document that
// fails to parse aborts the whole call.
func (r *Resolver) Resolve(ctx context.Context, dir string) (*Labels, Stats, error) {
	paths := r.Discover(dir)
	docs := make([]Document, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := r.ParseDocument(p)
			if err != nil {
				return err
			}
			docs[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	labels := Fold(docs)

	stats := Stats{Documents: len(docs), Concepts: labels.Len()}
	for _, d := range docs {
		stats.Fragments += len(d.Fragments)
		stats.DroppedArcs += d.DroppedArcs
		r.logger.Debug("label document resolved", "path", d.Path, "fragments", len(d.Fragments), "dropped_arcs", d.DroppedArcs)
	}
	r.logger.Info("labels resolved",
		"dir", dir,
		"documents", stats.Documents,
		"concepts", stats.Concepts,
		"dropped_arcs", stats.DroppedArcs,
	)
	return labels, stats, nil
}

func copyText(m map[xbrl.Lang]string) map[xbrl.Lang]string {
	out := make(map[xbrl.Lang]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
