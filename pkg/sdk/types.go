package itemdex

import (
	"time"

	"github.com/kailas-cloud/itemdex/internal/domain/item"
	"github.com/kailas-cloud/itemdex/internal/domain/reconcile"
)

// Item is a stored item.
type Item struct {
	ID        string
	Name      string
	Category  string
	Year      int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name     *string
	Category *string
	Year     *int
}

// SearchOptions narrows a search. Zero values are absent filters.
type SearchOptions struct {
	Category string
	Year     int
	YearMin  int
	YearMax  int
}

// SearchHit is an item snapshot from the index with its relevance score.
type SearchHit struct {
	Item  Item
	Score float64
}

// SearchResult is a ranked page of hits. Total counts every match.
type SearchResult struct {
	Total int
	Hits  []SearchHit
}

// ReconcileReport summarizes a reconciliation pass.
type ReconcileReport struct {
	Total          int
	Succeeded      int
	Failed         int
	FailedIDs      []string
	OrphansRemoved int
	Duration       time.Duration
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

// Categories lists every accepted category.
func Categories() []string {
	cs := item.Categories()
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

func itemFromDomain(it item.Item) Item {
	return Item{
		ID:        it.ID(),
		Name:      it.Name(),
		Category:  it.Category().String(),
		Year:      it.Year(),
		CreatedAt: it.CreatedAt(),
		UpdatedAt: it.UpdatedAt(),
	}
}

func reportFromDomain(rep reconcile.Report) ReconcileReport {
	out := ReconcileReport{
		Total:          rep.Total,
		Succeeded:      rep.Succeeded,
		Failed:         rep.Failed,
		OrphansRemoved: rep.OrphansRemoved,
		Duration:       rep.Duration,
	}
	for _, f := range rep.Failures {
		if f.ID != "" {
			out.FailedIDs = append(out.FailedIDs, f.ID)
		}
	}
	return out
}
