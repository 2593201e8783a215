package search

import (
	"testing"

	"github.com/kailas-cloud/itemdex/internal/domain/search/filter"
	"github.com/kailas-cloud/itemdex/internal/domain/search/query"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestBuild_BlankTermMatchesAll(t *testing.T) {
	for _, term := range []string{"", "   ", "!!"} {
		q := Build(term, filter.Filters{})
		if !q.IsMatchAll() {
			t.Errorf("Build(%q): expected match-all", term)
		}
		if q.Size != 50 {
			t.Errorf("size = %d, want 50", q.Size)
		}
		if len(q.Filters) != 0 {
			t.Errorf("unexpected filters: %v", q.Filters)
		}
	}
}

func TestBuild_TermIsTokenizedWithAutoFuzziness(t *testing.T) {
	q := Build("  Ocean  EXPLORER, go ", filter.Filters{})
	if q.Match == nil {
		t.Fatal("expected match clause")
	}

	want := []query.Term{
		{Text: "ocean", Fuzziness: 1},
		{Text: "explorer", Fuzziness: 2},
		{Text: "go", Fuzziness: 0},
	}
	if len(q.Match.Terms) != len(want) {
		t.Fatalf("terms = %v", q.Match.Terms)
	}
	for i, w := range want {
		if q.Match.Terms[i] != w {
			t.Errorf("term[%d] = %+v, want %+v", i, q.Match.Terms[i], w)
		}
	}

	fields := q.Match.Fields
	if len(fields) != 2 ||
		fields[0] != (query.FieldBoost{Field: "name", Boost: 2}) ||
		fields[1] != (query.FieldBoost{Field: "category", Boost: 1}) {
		t.Errorf("fields = %v", fields)
	}
}

func TestBuild_Sort(t *testing.T) {
	q := Build("ocean", filter.Filters{})
	if len(q.Sort) != 2 ||
		q.Sort[0] != (query.SortField{Field: "_score", Desc: true}) ||
		q.Sort[1] != (query.SortField{Field: "name_keyword"}) {
		t.Errorf("sort = %v", q.Sort)
	}
}

func TestBuild_Filters(t *testing.T) {
	yr, err := filter.NewYearRange(intPtr(2000), nil)
	if err != nil {
		t.Fatalf("NewYearRange: %v", err)
	}
	f, err := filter.New(strPtr("motor yacht"), intPtr(2010), &yr)
	if err != nil {
		t.Fatalf("filter.New: %v", err)
	}

	q := Build("", f)
	if !q.IsMatchAll() {
		t.Error("filters alone must not add a scoring clause")
	}
	if len(q.Filters) != 3 {
		t.Fatalf("filters = %v", q.Filters)
	}

	cat := q.Filters[0]
	if cat.Kind != query.KindTerm || cat.Field != "category_keyword" || cat.Value != "Motor Yacht" {
		t.Errorf("category filter = %+v", cat)
	}
	year := q.Filters[1]
	if year.Kind != query.KindEquals || year.Field != "year" || year.Int != 2010 {
		t.Errorf("year filter = %+v", year)
	}
	rng := q.Filters[2]
	if rng.Kind != query.KindRange || rng.Field != "year" ||
		rng.Range.GTE == nil || *rng.Range.GTE != 2000 || rng.Range.LTE != nil {
		t.Errorf("range filter = %+v", rng)
	}
}
