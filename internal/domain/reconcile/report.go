// Package reconcile holds the outcome of a reconciliation pass.
package reconcile

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/itemdex/internal/domain"
)

// Failure is one item that could not be re-synced.
type Failure struct {
	ID  string
	Err error
}

// Report tallies a reconciliation pass.
type Report struct {
	Total          int
	Succeeded      int
	Failed         int
	Failures       []Failure
	OrphansRemoved int
	StartedAt      time.Time
	Duration       time.Duration
}

// AddSuccess records a re-synced item.
func (r *Report) AddSuccess() {
	r.Total++
	r.Succeeded++
}

// AddFailure records an item that failed to re-sync.
func (r *Report) AddFailure(id string, err error) {
	r.Total++
	r.Failed++
	r.Failures = append(r.Failures, Failure{ID: id, Err: err})
}

// Err returns an error wrapping domain.ErrReconciliationPartial when any
// item failed, nil otherwise.
func (r *Report) Err() error {
	if r.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d items: %w", r.Failed, r.Total, domain.ErrReconciliationPartial)
}
