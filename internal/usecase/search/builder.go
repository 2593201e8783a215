package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kailas-cloud/itemdex/internal/domain/search/filter"
	"github.com/kailas-cloud/itemdex/internal/domain/search/query"
)

// Relevance weights of the searchable text fields.
const (
	nameBoost     = 2
	categoryBoost = 1
)

// Build turns a free-text term and filters into an engine-neutral query.
// A blank term matches every document; filters never affect the score.
func Build(term string, filters filter.Filters) query.Query {
	q := query.Query{
		Sort: []query.SortField{
			{Field: query.FieldScore, Desc: true},
			{Field: query.FieldNameKeyword},
		},
		Size: query.DefaultSize,
	}

	if terms := tokenize(term); len(terms) > 0 {
		q.Match = &query.MultiMatch{
			Terms: terms,
			Fields: []query.FieldBoost{
				{Field: query.FieldName, Boost: nameBoost},
				{Field: query.FieldCategory, Boost: categoryBoost},
			},
		}
	}

	if c := filters.Category(); c != nil {
		q.Filters = append(q.Filters, query.Condition{
			Kind: query.KindTerm, Field: query.FieldCategoryKeyword, Value: c.String(),
		})
	}
	if y := filters.Year(); y != nil {
		q.Filters = append(q.Filters, query.Condition{
			Kind: query.KindEquals, Field: query.FieldYear, Int: *y,
		})
	}
	if r := filters.YearRange(); r != nil {
		q.Filters = append(q.Filters, query.Condition{
			Kind: query.KindRange, Field: query.FieldYear,
			Range: query.Range{GTE: r.Min(), LTE: r.Max()},
		})
	}

	return q
}

// tokenize splits term on anything that is not a letter or digit,
// lowercases the tokens and assigns each its auto fuzziness.
func tokenize(term string) []query.Term {
	words := strings.FieldsFunc(term, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return nil
	}

	terms := make([]query.Term, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(w)
		terms = append(terms, query.Term{
			Text:      w,
			Fuzziness: query.AutoFuzziness(utf8.RuneCountInString(w)),
		})
	}
	return terms
}
