package bleve

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/itemdex/internal/db"
	"github.com/kailas-cloud/itemdex/internal/domain/search/query"
)

// bleve rejects fuzziness above 2.
const maxFuzziness = 2

// Search compiles q into a bleve query tree and runs it.
func (s *Store) Search(ctx context.Context, index string, q *query.Query) (*db.SearchResult, error) {
	if index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q == nil {
		return nil, fmt.Errorf("query is required")
	}

	oi, err := s.lookup(index)
	if err != nil {
		return nil, err
	}

	size := q.Size
	if size <= 0 {
		size = query.DefaultSize
	}

	req := bleve.NewSearchRequestOptions(buildQuery(q), size, 0, false)
	req.Fields = []string{"*"}
	if order := buildSort(q.Sort); len(order) > 0 {
		req.SortBy(order)
	}

	res, err := oi.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	entries := make([]db.SearchEntry, 0, len(res.Hits))
	for _, hit := range res.Hits {
		entries = append(entries, db.SearchEntry{
			Key:    hit.ID,
			Score:  hit.Score,
			Fields: oi.source(hit.Fields),
		})
	}
	return &db.SearchResult{Total: int(res.Total), Entries: entries}, nil
}

// buildQuery puts the scoring match in must and every filter in the boolean
// filter clause, which selects documents without scoring them.
func buildQuery(q *query.Query) blevequery.Query {
	var must blevequery.Query = bleve.NewMatchAllQuery()
	if q.Match != nil && len(q.Match.Terms) > 0 && len(q.Match.Fields) > 0 {
		must = buildMatch(q.Match)
	}

	bq := bleve.NewBooleanQuery()
	bq.AddMust(must)
	switch len(q.Filters) {
	case 0:
	case 1:
		bq.AddFilter(buildCondition(q.Filters[0]))
	default:
		conds := make([]blevequery.Query, 0, len(q.Filters))
		for _, cond := range q.Filters {
			conds = append(conds, buildCondition(cond))
		}
		bq.AddFilter(bleve.NewConjunctionQuery(conds...))
	}
	return bq
}

// buildMatch ORs the fuzzy terms within each field and scores a document by
// its best field, so a term hitting both name and category counts once.
func buildMatch(m *query.MultiMatch) blevequery.Query {
	fields := make([]blevequery.Query, 0, len(m.Fields))
	for _, f := range m.Fields {
		dq := bleve.NewDisjunctionQuery()
		for _, t := range m.Terms {
			mq := bleve.NewMatchQuery(t.Text)
			mq.SetField(f.Field)
			mq.SetFuzziness(min(t.Fuzziness, maxFuzziness))
			if f.Boost > 0 {
				mq.SetBoost(f.Boost)
			}
			dq.AddQuery(mq)
		}
		fields = append(fields, dq)
	}
	return newBestFieldsQuery(fields...)
}

func buildCondition(cond query.Condition) blevequery.Query {
	inclusive := true
	switch cond.Kind {
	case query.KindTerm:
		tq := bleve.NewTermQuery(cond.Value)
		tq.SetField(cond.Field)
		return tq
	case query.KindEquals:
		v := float64(cond.Int)
		nq := bleve.NewNumericRangeInclusiveQuery(&v, &v, &inclusive, &inclusive)
		nq.SetField(cond.Field)
		return nq
	default:
		var lo, hi *float64
		if cond.Range.GTE != nil {
			v := float64(*cond.Range.GTE)
			lo = &v
		}
		if cond.Range.LTE != nil {
			v := float64(*cond.Range.LTE)
			hi = &v
		}
		nq := bleve.NewNumericRangeInclusiveQuery(lo, hi, &inclusive, &inclusive)
		nq.SetField(cond.Field)
		return nq
	}
}

// buildSort renders bleve sort strings: "-" prefix for descending.
func buildSort(fields []query.SortField) []string {
	order := make([]string, 0, len(fields))
	for _, sf := range fields {
		name := sf.Field
		if sf.Desc {
			name = "-" + name
		}
		order = append(order, name)
	}
	return order
}
