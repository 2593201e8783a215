package filter

import (
	"fmt"

	"github.com/kailas-cloud/itemdex/internal/domain/item"
)

// Filters narrows a search without affecting relevance. All parts are optional.
type Filters struct {
	category  *item.Category
	year      *int
	yearRange *YearRange
}

// New validates and creates Filters. A nil category/year/yearRange is absent.
func New(category *string, year *int, yearRange *YearRange) (Filters, error) {
	var f Filters
	if category != nil {
		c, err := item.ParseCategory(*category)
		if err != nil {
			return Filters{}, err
		}
		f.category = &c
	}
	if year != nil {
		y := *year
		f.year = &y
	}
	if yearRange != nil {
		r := *yearRange
		f.yearRange = &r
	}
	return f, nil
}

// Category returns the category filter, or nil.
func (f Filters) Category() *item.Category { return f.category }

// Year returns the exact year filter, or nil.
func (f Filters) Year() *int { return f.year }

// YearRange returns the year range filter, or nil.
func (f Filters) YearRange() *YearRange { return f.yearRange }

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool {
	return f.category == nil && f.year == nil && f.yearRange == nil
}

// YearRange is an inclusive year interval with independently optional bounds.
type YearRange struct {
	min *int
	max *int
}

// NewYearRange validates and creates a YearRange.
// At least one bound is required; min must not exceed max.
func NewYearRange(minYear, maxYear *int) (YearRange, error) {
	if minYear == nil && maxYear == nil {
		return YearRange{}, fmt.Errorf("at least one range boundary is required")
	}
	if minYear != nil && maxYear != nil && *minYear > *maxYear {
		return YearRange{}, fmt.Errorf("yearMin %d is greater than yearMax %d", *minYear, *maxYear)
	}
	var r YearRange
	if minYear != nil {
		v := *minYear
		r.min = &v
	}
	if maxYear != nil {
		v := *maxYear
		r.max = &v
	}
	return r, nil
}

// Min returns the inclusive lower bound, or nil.
func (r YearRange) Min() *int { return r.min }

// Max returns the inclusive upper bound, or nil.
func (r YearRange) Max() *int { return r.max }
