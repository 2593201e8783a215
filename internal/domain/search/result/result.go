package result

import "github.com/kailas-cloud/itemdex/internal/domain/item"

// Hit is a single search hit: the indexed item snapshot and its relevance.
// The snapshot timestamps are the index-side ones.
type Hit struct {
	item  item.Item
	score float64
}

// NewHit creates a search hit.
func NewHit(it item.Item, score float64) Hit {
	return Hit{item: it, score: score}
}

// Item returns the indexed item snapshot.
func (h Hit) Item() item.Item { return h.item }

// Score returns the relevance score.
func (h Hit) Score() float64 { return h.score }

// Result is a ranked search response.
type Result struct {
	total int
	hits  []Hit
}

// New creates a search result. Total counts every matching document,
// not only the returned hits.
func New(total int, hits []Hit) Result {
	if hits == nil {
		hits = []Hit{}
	}
	return Result{total: total, hits: hits}
}

// Total returns the number of matching documents.
func (r Result) Total() int { return r.total }

// Hits returns the ranked hits.
func (r Result) Hits() []Hit { return r.hits }
