package item

import (
	"fmt"
	"strings"
)

// Category is one of the closed set of item categories.
type Category string

// Known categories.
const (
	Sailboat    Category = "Sailboat"
	Catamaran   Category = "Catamaran"
	Yacht       Category = "Yacht"
	Dinghy      Category = "Dinghy"
	Ketch       Category = "Ketch"
	Sloop       Category = "Sloop"
	Schooner    Category = "Schooner"
	Trimaran    Category = "Trimaran"
	Monohull    Category = "Monohull"
	Cruiser     Category = "Cruiser"
	Racer       Category = "Racer"
	MotorYacht  Category = "Motor Yacht"
	FishingBoat Category = "Fishing Boat"
	Speedboat   Category = "Speedboat"
)

var categories = []Category{
	Sailboat, Catamaran, Yacht, Dinghy, Ketch, Sloop, Schooner,
	Trimaran, Monohull, Cruiser, Racer, MotorYacht, FishingBoat, Speedboat,
}

// Categories returns every known category in declaration order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory matches s case-insensitively against the known set and
// returns the canonical spelling.
func ParseCategory(s string) (Category, error) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "", fmt.Errorf("category is required")
	}
	for _, c := range categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// String returns the canonical category name.
func (c Category) String() string { return string(c) }
