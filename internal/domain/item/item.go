package item

import (
	"fmt"
	"strings"
	"time"
)

// MinYear is the earliest accepted build year.
const MinYear = 1800

// MaxNameLength bounds the item name in runes.
const MaxNameLength = 256

// MaxYear returns the latest accepted build year relative to now.
func MaxYear(now time.Time) int { return now.Year() + 10 }

// Fields is the validated writable part of an item.
type Fields struct {
	Name     string
	Category Category
	Year     int
}

// NewFields validates and creates Fields. The name is trimmed.
func NewFields(name, category string, year int, now time.Time) (Fields, error) {
	n, err := ValidateName(name)
	if err != nil {
		return Fields{}, err
	}
	c, err := ParseCategory(category)
	if err != nil {
		return Fields{}, err
	}
	if err := ValidateYear(year, now); err != nil {
		return Fields{}, err
	}
	return Fields{Name: n, Category: c, Year: year}, nil
}

// ValidateName trims name and rejects blank or oversized values.
func ValidateName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", fmt.Errorf("name is required")
	}
	if len([]rune(n)) > MaxNameLength {
		return "", fmt.Errorf("name too long (max %d)", MaxNameLength)
	}
	return n, nil
}

// ValidateYear checks year against [MinYear, MaxYear(now)].
func ValidateYear(year int, now time.Time) error {
	if year < MinYear || year > MaxYear(now) {
		return fmt.Errorf("year must be between %d and %d", MinYear, MaxYear(now))
	}
	return nil
}

// Item is the unit of record (immutable value object).
type Item struct {
	id        string
	name      string
	category  Category
	year      int
	createdAt time.Time
	updatedAt time.Time
}

// Reconstruct creates an Item without validation (storage hydration).
func Reconstruct(
	id, name string, category Category, year int,
	createdAt, updatedAt time.Time,
) Item {
	return Item{
		id: id, name: name, category: category, year: year,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// ID returns the item identifier.
func (i Item) ID() string { return i.id }

// Name returns the item name.
func (i Item) Name() string { return i.name }

// Category returns the item category.
func (i Item) Category() Category { return i.category }

// Year returns the build year.
func (i Item) Year() int { return i.year }

// CreatedAt returns the creation timestamp.
func (i Item) CreatedAt() time.Time { return i.createdAt }

// UpdatedAt returns the last update timestamp.
func (i Item) UpdatedAt() time.Time { return i.updatedAt }

// Fields returns the writable fields of the item.
func (i Item) Fields() Fields {
	return Fields{Name: i.name, Category: i.category, Year: i.year}
}

// Stats summarizes the primary store contents.
type Stats struct {
	Total      int
	ByCategory map[Category]int
	MinYear    int
	MaxYear    int
}
