package xplore

import (
	"context"
	"fmt"
	"time"

	"github.com/cognicore/xplore/pkg/xplore/maintenance"
	"github.com/cognicore/xplore/pkg/xplore/metrics"
	"github.com/cognicore/xplore/pkg/xplore/pipeline"
	"github.com/cognicore/xplore/pkg/xplore/store"
	"github.com/cognicore/xplore/pkg/xplore/store/cache"
	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

// Xplore is the main taxonomy extraction facade
type Xplore struct {
	pipeline *pipeline.Pipeline
	store    store.Store
	concepts *cache.Concepts
	metrics  *metrics.Recorder
}

// Options configures an Xplore instance. Store and Metrics are optional.
type Options struct {
	Pipeline  pipeline.Options
	Store     store.Store
	Metrics   *metrics.Recorder
	CacheSize int
}

// New creates an Xplore instance with the given dependencies
func New(opts Options) (*Xplore, error) {
	x := &Xplore{
		pipeline: pipeline.New(opts.Pipeline),
		store:    opts.Store,
		metrics:  opts.Metrics,
	}
	if x.store != nil {
		size := opts.CacheSize
		if size <= 0 {
			size = 1024
		}
		c, err := cache.NewConcepts(x.store, size)
		if err != nil {
			return nil, fmt.Errorf("concept cache: %w", err)
		}
		x.concepts = c
	}
	return x, nil
}

// Close cleanly shuts down the Xplore instance
func (x *Xplore) Close() error {
	if x.store == nil {
		return nil
	}
	return x.store.Close()
}

// Build runs the pipeline once, records its metrics and persists the
// run when a store is configured. A run that fails is neither recorded
// nor stored.
func (x *Xplore) Build(ctx context.Context) (*pipeline.Result, error) {
	res, err := x.pipeline.Run(ctx)
	if err != nil {
		return nil, err
	}

	if x.store != nil {
		run := store.Run{
			Info: store.RunInfo{
				ID:        res.RunID,
				Schema:    res.Layout.Schema,
				StartedAt: res.StartedAt,
			},
			Concepts: res.Catalog.Concepts(),
			Rows:     res.Rows,
		}
		if err := x.store.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("save run %s: %w", res.RunID, err)
		}
	}

	if x.metrics != nil {
		x.metrics.Observe(res)
	}
	return res, nil
}

// Concept looks up a stored concept through the read cache.
func (x *Xplore) Concept(ctx context.Context, runID, id string) (xbrl.Concept, bool, error) {
	if x.concepts == nil {
		return xbrl.Concept{}, false, fmt.Errorf("concept lookup: no store configured")
	}
	return x.concepts.Get(ctx, runID, id)
}

// Prune deletes stored runs outside the retention policy and drops
// cached lookups that may refer to them.
func (x *Xplore) Prune(ctx context.Context, keep int, maxAge time.Duration) (maintenance.Result, error) {
	if x.store == nil {
		return maintenance.Result{}, fmt.Errorf("prune: no store configured")
	}
	res, err := (&maintenance.Pruner{Store: x.store, Keep: keep, MaxAge: maxAge}).Prune(ctx)
	if len(res.Deleted) > 0 {
		x.concepts.Purge()
	}
	return res, err
}
