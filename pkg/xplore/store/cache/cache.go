// Package cache provides an LRU read-through layer for concept lookups.
//
// Stored runs are never modified, so cached entries only go stale when
// their run is deleted. Purge after pruning.
package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cognicore/xplore/pkg/xplore/store"
	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

type key struct {
	run string
	id  string
}

type entry struct {
	concept xbrl.Concept
	found   bool
}

// Concepts caches store.Store.GetConcept results, misses included.
type Concepts struct {
	st    store.Store
	cache *lru.Cache[key, entry]
}

// NewConcepts wraps st with a cache holding up to size lookups.
func NewConcepts(st store.Store, size int) (*Concepts, error) {
	c, err := lru.New[key, entry](size)
	if err != nil {
		return nil, err
	}
	return &Concepts{st: st, cache: c}, nil
}

// Get returns the concept id of run runID.
func (c *Concepts) Get(ctx context.Context, runID, id string) (xbrl.Concept, bool, error) {
	k := key{run: runID, id: id}
	if e, ok := c.cache.Get(k); ok {
		return e.concept, e.found, nil
	}

	concept, found, err := c.st.GetConcept(ctx, runID, id)
	if err != nil {
		return xbrl.Concept{}, false, err
	}
	c.cache.Add(k, entry{concept: concept, found: found})
	return concept, found, nil
}

// Len returns the number of cached lookups.
func (c *Concepts) Len() int {
	return c.cache.Len()
}

// Purge drops every cached lookup.
func (c *Concepts) Purge() {
	c.cache.Purge()
}
