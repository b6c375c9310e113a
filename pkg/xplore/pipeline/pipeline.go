package pipeline

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/xplore/pkg/xplore/catalog"
	"github.com/cognicore/xplore/pkg/xplore/enrich"
	"github.com/cognicore/xplore/pkg/xplore/hierarchy"
	"github.com/cognicore/xplore/pkg/xplore/label"
	"github.com/cognicore/xplore/pkg/xplore/relation"
	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

// Layout locates the documents of one taxonomy.
type Layout struct {
	Schema      string
	LabelDir    string
	RelationDir string
}

// LayoutAt returns the conventional layout below root: the schema file,
// a label/ folder and an r/ folder.
func LayoutAt(root, schema string) Layout {
	return Layout{
		Schema:      filepath.Join(root, schema),
		LabelDir:    filepath.Join(root, "label"),
		RelationDir: filepath.Join(root, "r"),
	}
}

// Options configures a Pipeline
type Options struct {
	Layout        Layout
	LabelPatterns []string
	Markers       relation.Markers
	Placeholders  xbrl.Placeholders
	Workers       int
	Logger        *slog.Logger
}

// Pipeline orchestrates the full extraction flow:
// labels → catalog → relationship files → hierarchy → relation table
type Pipeline struct {
	layout       Layout
	placeholders xbrl.Placeholders
	resolver     *label.Resolver
	classifier   *relation.Classifier
	builder      *hierarchy.Builder
	logger       *slog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New creates a pipeline. Unset markers and placeholders use their
// defaults.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	markers := opts.Markers
	if markers == (relation.Markers{}) {
		markers = relation.DefaultMarkers()
	}

	return &Pipeline{
		layout:       opts.Layout,
		placeholders: opts.Placeholders.WithDefaults(),
		resolver: label.New(label.Options{
			Patterns: opts.LabelPatterns,
			Workers:  opts.Workers,
			Logger:   logger.With("stage", "labels"),
		}),
		classifier: relation.NewClassifier(markers, logger.With("stage", "classify")),
		builder:    hierarchy.NewBuilder(opts.Workers, logger.With("stage", "hierarchy")),
		logger:     logger,
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}
}

// Stats summarizes one run.
type Stats struct {
	Labels     label.Stats
	Concepts   int
	Duplicates int
	Files      map[relation.Kind]int
	Hierarchy  hierarchy.Stats
	Rows       int
}

// Result is everything one run produced. Rows is the relation table;
// the other fields are the intermediate stage outputs.
type Result struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Layout    Layout
	Labels    *label.Labels
	Catalog   *catalog.Catalog
	Files     relation.Files
	Hierarchy *hierarchy.Hierarchy
	Rows      []xbrl.Row
	Stats     Stats
}

// Run executes every stage once. The first fatal error aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:     p.newRunID(),
		StartedAt: time.Now().UTC(),
		Layout:    p.layout,
	}
	log := p.logger.With("run", res.RunID)
	log.Info("run started", "schema", p.layout.Schema)

	// 1. Labels (missing folder → no labels)
	labels, lstats, err := p.resolver.Resolve(ctx, p.layout.LabelDir)
	if err != nil {
		return nil, fmt.Errorf("resolve labels: %w", err)
	}
	res.Labels = labels
	res.Stats.Labels = lstats

	// 2. Concept catalog
	cat, err := catalog.Build(p.layout.Schema, labels, p.placeholders)
	if err != nil {
		return nil, err
	}
	res.Catalog = cat
	res.Stats.Concepts = cat.Len()
	res.Stats.Duplicates = len(cat.Duplicates())
	if res.Stats.Duplicates > 0 {
		log.Warn("schema declares duplicate concept ids", "duplicates", cat.Duplicates())
	}
	log.Info("catalog built", "concepts", cat.Len())

	// 3. Relationship files
	res.Files = p.classifier.Walk(p.layout.RelationDir)
	res.Stats.Files = make(map[relation.Kind]int, len(relation.Kinds))
	for _, k := range relation.Kinds {
		res.Stats.Files[k] = len(res.Files.Of(k))
	}

	// 4. Presentation hierarchy
	h, hstats, err := p.builder.Build(ctx, res.Files.Presentation)
	if err != nil {
		return nil, fmt.Errorf("build hierarchy: %w", err)
	}
	res.Hierarchy = h
	res.Stats.Hierarchy = hstats

	// 5. Relation table
	res.Rows = enrich.Join(h, cat, p.placeholders)
	res.Stats.Rows = len(res.Rows)

	res.Duration = time.Since(res.StartedAt)
	log.Info("run finished", "rows", res.Stats.Rows, "duration", res.Duration)
	return res, nil
}

func (p *Pipeline) newRunID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ulid.MustNew(ulid.Now(), p.entropy).String()
}
