package patch

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/itemdex/internal/domain/item"
)

// Patch is a partial item update. Nil fields are unchanged.
type Patch struct {
	name     *string
	category *item.Category
	year     *int
}

// New validates and creates a Patch. At least one field must be provided.
func New(name, category *string, year *int, now time.Time) (Patch, error) {
	if name == nil && category == nil && year == nil {
		return Patch{}, fmt.Errorf("at least one field must be provided")
	}
	var p Patch
	if name != nil {
		n, err := item.ValidateName(*name)
		if err != nil {
			return Patch{}, err
		}
		p.name = &n
	}
	if category != nil {
		c, err := item.ParseCategory(*category)
		if err != nil {
			return Patch{}, err
		}
		p.category = &c
	}
	if year != nil {
		if err := item.ValidateYear(*year, now); err != nil {
			return Patch{}, err
		}
		y := *year
		p.year = &y
	}
	return p, nil
}

// Full creates a Patch that sets every field.
func Full(f item.Fields) Patch {
	name, category, year := f.Name, f.Category, f.Year
	return Patch{name: &name, category: &category, year: &year}
}

// Name returns the new name, or nil if unchanged.
func (p Patch) Name() *string { return p.name }

// Category returns the new category, or nil if unchanged.
func (p Patch) Category() *item.Category { return p.category }

// Year returns the new year, or nil if unchanged.
func (p Patch) Year() *int { return p.year }

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool { return p.name == nil && p.category == nil && p.year == nil }

// ApplyTo returns f with the patch applied.
func (p Patch) ApplyTo(f item.Fields) item.Fields {
	if p.name != nil {
		f.Name = *p.name
	}
	if p.category != nil {
		f.Category = *p.category
	}
	if p.year != nil {
		f.Year = *p.year
	}
	return f
}
