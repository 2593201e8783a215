package bleve

import (
	"context"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	index "github.com/blevesearch/bleve_index_api"
)

// bestFieldsQuery matches a document when any per-field query matches and
// scores it with the best single field, not the sum over fields.
type bestFieldsQuery struct {
	fields []blevequery.Query
}

func newBestFieldsQuery(fields ...blevequery.Query) *bestFieldsQuery {
	return &bestFieldsQuery{fields: fields}
}

// Searcher runs a disjunction that reports per-field scores and keeps the max.
func (q *bestFieldsQuery) Searcher(
	ctx context.Context, i index.IndexReader, m mapping.IndexMapping, options search.SearcherOptions,
) (search.Searcher, error) {
	dq := bleve.NewDisjunctionQuery(q.fields...)
	dq.RetrieveScoreBreakdown(true)
	inner, err := dq.Searcher(ctx, i, m, options)
	if err != nil {
		return nil, err
	}
	return &bestFieldsSearcher{Searcher: inner}, nil
}

type bestFieldsSearcher struct {
	search.Searcher
}

func (s *bestFieldsSearcher) Next(ctx *search.SearchContext) (*search.DocumentMatch, error) {
	dm, err := s.Searcher.Next(ctx)
	return keepBestField(dm), err
}

func (s *bestFieldsSearcher) Advance(
	ctx *search.SearchContext, id index.IndexInternalID,
) (*search.DocumentMatch, error) {
	dm, err := s.Searcher.Advance(ctx, id)
	return keepBestField(dm), err
}

// keepBestField replaces the summed score with the highest per-field score.
func keepBestField(dm *search.DocumentMatch) *search.DocumentMatch {
	if dm == nil || len(dm.ScoreBreakdown) == 0 {
		return dm
	}
	best := 0.0
	for _, score := range dm.ScoreBreakdown {
		best = max(best, score)
	}
	dm.Score = best
	clear(dm.ScoreBreakdown)
	return dm
}
