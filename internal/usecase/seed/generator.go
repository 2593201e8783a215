package seed

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/kailas-cloud/itemdex/internal/domain/item"
)

// FirstYear is the earliest generated build year.
const FirstYear = 1970

var (
	adjectives = []string{"Swift", "Bold", "Serene", "Majestic", "Ocean", "Sea", "Wind", "Storm", "Calm", "Deep"}
	nouns      = []string{"Navigator", "Explorer", "Wanderer", "Cruiser", "Dream", "Spirit", "Breeze", "Wave", "Tide", "Star"}
	waters     = []string{"Atlantic", "Pacific", "Mediterranean", "Caribbean", "Arctic", "Baltic", "Aegean"}
	givenNames = []string{"Anna", "Marco", "Elena", "Jonas", "Freya", "Nikolai", "Ines", "Tomas", "Lucia", "Odin"}
	ports      = []string{"Lisbon", "Genoa", "Bergen", "Marseille", "Valletta", "Split", "Kiel", "Porto"}
)

// Generator produces random but valid item fields.
type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

// NewGenerator creates a generator. The same seed yields the same sequence.
func NewGenerator(seed uint64, now func() time.Time) *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), now: now}
}

// Fields returns one random item.
func (g *Generator) Fields() item.Fields {
	categories := item.Categories()
	last := g.now().Year()
	return item.Fields{
		Name:     g.name(),
		Category: categories[g.rnd.IntN(len(categories))],
		Year:     FirstYear + g.rnd.IntN(last-FirstYear+1),
	}
}

func (g *Generator) name() string {
	var parts []string
	switch g.rnd.IntN(6) {
	case 0:
		parts = []string{g.pick(adjectives), g.pick(nouns)}
	case 1:
		parts = []string{g.pick(givenNames), g.pick(nouns)}
	case 2:
		parts = []string{g.pick(ports), g.pick(nouns)}
	case 3:
		parts = []string{g.pick(nouns), g.pick(nouns)}
	case 4:
		parts = []string{g.pick(adjectives), g.pick(waters)}
	default:
		parts = []string{g.pick(adjectives), g.pick(nouns)}
	}
	return strings.Join(parts, " ")
}

func (g *Generator) pick(words []string) string {
	return words[g.rnd.IntN(len(words))]
}
