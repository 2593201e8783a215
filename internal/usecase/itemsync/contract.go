package itemsync

import (
	"context"

	"github.com/kailas-cloud/itemdex/internal/domain/item"
	"github.com/kailas-cloud/itemdex/internal/domain/item/patch"
)

// PrimaryStore is the authoritative item store.
// Misses are reported as domain.ErrNotFound.
type PrimaryStore interface {
	Create(ctx context.Context, f item.Fields) (item.Item, error)
	Get(ctx context.Context, id string) (item.Item, error)
	// FindMany returns up to limit items with id > afterID in ascending id order.
	FindMany(ctx context.Context, afterID string, limit int) ([]item.Item, error)
	Exists(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, id string, p patch.Patch) (item.Item, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// IndexMutator mirrors items into the search index.
// Every failure matches domain.ErrIndex.
type IndexMutator interface {
	// EnsureIndex creates the index when it does not exist.
	EnsureIndex(ctx context.Context) error
	Create(ctx context.Context, it item.Item) error
	Update(ctx context.Context, id string, p patch.Patch) error
	Delete(ctx context.Context, id string) error
	Upsert(ctx context.Context, it item.Item) error
	ListIDs(ctx context.Context) ([]string, error)
}
