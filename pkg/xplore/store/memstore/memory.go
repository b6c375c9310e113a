package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/xplore/pkg/xplore/internalerr"
	"github.com/cognicore/xplore/pkg/xplore/store"
	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu   sync.RWMutex
	runs map[string]store.Run
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{runs: make(map[string]store.Run)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRun stores a copy of r. Saving an existing run id fails.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	if r.Info.ID == "" {
		return fmt.Errorf("%w: run id is required", internalerr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[r.Info.ID]; ok {
		return fmt.Errorf("%w: run %s", internalerr.ErrDuplicate, r.Info.ID)
	}

	r.Info.Concepts = len(r.Concepts)
	r.Info.Rows = len(r.Rows)
	r.Concepts = append([]xbrl.Concept(nil), r.Concepts...)
	r.Rows = append([]xbrl.Row(nil), r.Rows...)
	s.runs[r.Info.ID] = r
	return nil
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(ctx context.Context, id string) (store.RunInfo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	return r.Info, ok, nil
}

// LatestRun returns the run with the greatest id.
func (s *Store) LatestRun(ctx context.Context) (store.RunInfo, bool, error) {
	runs, _ := s.ListRuns(ctx)
	if len(runs) == 0 {
		return store.RunInfo{}, false, nil
	}
	return runs[0], true, nil
}

// ListRuns returns every run, newest id first.
func (s *Store) ListRuns(ctx context.Context) ([]store.RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.RunInfo, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r.Info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// DeleteRun removes a run; it reports whether the run existed.
func (s *Store) DeleteRun(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.runs[id]
	delete(s.runs, id)
	return ok, nil
}

// Concepts returns the catalog of a run in schema order.
func (s *Store) Concepts(ctx context.Context, runID string) ([]xbrl.Concept, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: run %s", internalerr.ErrNotFound, runID)
	}
	return append([]xbrl.Concept(nil), r.Concepts...), nil
}

// GetConcept returns the last concept declared with id in a run.
func (s *Store) GetConcept(ctx context.Context, runID, id string) (xbrl.Concept, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[runID]
	if !ok {
		return xbrl.Concept{}, false, fmt.Errorf("%w: run %s", internalerr.ErrNotFound, runID)
	}
	for i := len(r.Concepts) - 1; i >= 0; i-- {
		if r.Concepts[i].ID == id {
			return r.Concepts[i], true, nil
		}
	}
	return xbrl.Concept{}, false, nil
}

// Rows returns the relation rows of a run matching q, in table order.
func (s *Store) Rows(ctx context.Context, runID string, q store.RowQuery) ([]xbrl.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: run %s", internalerr.ErrNotFound, runID)
	}

	var out []xbrl.Row
	for _, row := range r.Rows {
		if !q.Match(row) {
			continue
		}
		out = append(out, row)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}
