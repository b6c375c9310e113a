// Package maintenance removes stored runs that fall outside a retention
// policy.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/cognicore/xplore/pkg/xplore/internalerr"
	"github.com/cognicore/xplore/pkg/xplore/store"
)

// Pruner deletes old runs. A run is kept when it is among the Keep newest
// runs, or when MaxAge is set and the run started within MaxAge. Keep and
// MaxAge both zero is rejected so a misconfigured pruner never empties
// the store.
type Pruner struct {
	Store  store.Store
	Keep   int
	MaxAge time.Duration
	Now    func() time.Time
}

// Result summarizes one pruning pass.
type Result struct {
	Examined int
	Deleted  []string
	Errors   int
}

// Prune applies the retention policy once. Failed deletions are counted
// and skipped.
func (p *Pruner) Prune(ctx context.Context) (Result, error) {
	var res Result
	if p.Store == nil || p.Keep < 0 || p.MaxAge < 0 || (p.Keep == 0 && p.MaxAge == 0) {
		return res, fmt.Errorf("%w: pruner needs a store and a keep count or max age", internalerr.ErrInvalidConfig)
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	cutoff := now().Add(-p.MaxAge)

	runs, err := p.Store.ListRuns(ctx)
	if err != nil {
		return res, err
	}

	// ListRuns is newest first
	for i, r := range runs {
		res.Examined++
		if p.keep(i, r, cutoff) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		ok, err := p.Store.DeleteRun(ctx, r.ID)
		if err != nil {
			res.Errors++
			continue
		}
		if ok {
			res.Deleted = append(res.Deleted, r.ID)
		}
	}
	return res, nil
}

func (p *Pruner) keep(rank int, r store.RunInfo, cutoff time.Time) bool {
	if p.Keep > 0 && rank < p.Keep {
		return true
	}
	return p.MaxAge > 0 && !r.StartedAt.Before(cutoff)
}
