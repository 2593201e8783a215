// Package query is the engine-neutral search query representation.
// Index engines compile a Query into their native form.
package query

// Index field names.
const (
	FieldID              = "id"
	FieldName            = "name"
	FieldNameKeyword     = "name_keyword"
	FieldCategory        = "category"
	FieldCategoryKeyword = "category_keyword"
	FieldYear            = "year"
	FieldCreatedAt       = "created_at"
	FieldUpdatedAt       = "updated_at"
)

// FieldScore is the pseudo-field for relevance ordering.
const FieldScore = "_score"

// DefaultSize is the fixed result page size.
const DefaultSize = 50

// Query is a boolean search: a scoring Match (nil matches all documents)
// AND every Filter (non-scoring), ordered by Sort and capped at Size.
type Query struct {
	Match   *MultiMatch
	Filters []Condition
	Sort    []SortField
	Size    int
}

// IsMatchAll reports whether every document satisfies the scoring part.
func (q *Query) IsMatchAll() bool { return q.Match == nil }

// MultiMatch matches Terms against several weighted text fields.
// A document matches when any term matches any field.
type MultiMatch struct {
	Terms  []Term
	Fields []FieldBoost
}

// Term is a lowercased token with its allowed edit distance.
type Term struct {
	Text      string
	Fuzziness int
}

// FieldBoost is a text field with its relevance weight.
type FieldBoost struct {
	Field string
	Boost float64
}

// ConditionKind discriminates filter conditions.
type ConditionKind int

// Condition kinds.
const (
	// KindTerm is an exact match on a non-analyzed field.
	KindTerm ConditionKind = iota
	// KindEquals is an exact integer match.
	KindEquals
	// KindRange is an inclusive integer range.
	KindRange
)

// Condition is a single non-scoring filter clause.
type Condition struct {
	Kind  ConditionKind
	Field string
	Value string
	Int   int
	Range Range
}

// Range is an inclusive integer interval; nil bounds are open.
type Range struct {
	GTE *int
	LTE *int
}

// SortField orders results by one field.
type SortField struct {
	Field string
	Desc  bool
}

// AutoFuzziness returns the allowed edit distance for a token of n runes.
func AutoFuzziness(n int) int {
	switch {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}
