package store

import (
	"context"
	"time"

	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

// Store persists extraction runs. A run is written once, whole, and
// never modified afterwards; it can only be deleted.
type Store interface {
	Close() error

	// Runs
	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (RunInfo, bool, error)
	LatestRun(ctx context.Context) (RunInfo, bool, error)
	ListRuns(ctx context.Context) ([]RunInfo, error)
	DeleteRun(ctx context.Context, id string) (bool, error)

	// Catalog
	Concepts(ctx context.Context, runID string) ([]xbrl.Concept, error)
	GetConcept(ctx context.Context, runID, id string) (xbrl.Concept, bool, error)

	// Relation table
	Rows(ctx context.Context, runID string, q RowQuery) ([]xbrl.Row, error)
}

// RunInfo describes a stored run
type RunInfo struct {
	ID        string
	Schema    string
	StartedAt time.Time
	Concepts  int
	Rows      int
}

// Run is a complete run: the concept catalog in schema order and the
// relation table in hierarchy order.
type Run struct {
	Info     RunInfo
	Concepts []xbrl.Concept
	Rows     []xbrl.Row
}

// RowQuery filters relation rows by parent and/or child id. Zero values
// do not constrain; Limit <= 0 returns every match.
type RowQuery struct {
	Parent string
	Child  string
	Limit  int
}

// Match reports whether r satisfies the query filters.
func (q RowQuery) Match(r xbrl.Row) bool {
	if q.Parent != "" && r.Parent != q.Parent {
		return false
	}
	if q.Child != "" && r.Child != q.Child {
		return false
	}
	return true
}
