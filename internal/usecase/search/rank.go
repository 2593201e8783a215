package search

import (
	"sort"

	"github.com/kailas-cloud/itemdex/internal/domain/search/result"
)

// rankHits orders hits by score descending, then name ascending, and caps
// them at limit. Engines that sort on a single key only get the tie-break here.
func rankHits(hits []result.Hit, limit int) []result.Hit {
	ranked := make([]result.Hit, len(hits))
	copy(ranked, hits)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score() != ranked[j].Score() {
			return ranked[i].Score() > ranked[j].Score()
		}
		return ranked[i].Item().Name() < ranked[j].Item().Name()
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
