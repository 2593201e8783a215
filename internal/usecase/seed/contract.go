package seed

import (
	"context"

	"github.com/kailas-cloud/itemdex/internal/domain/item"
)

// Items is the write path seeding goes through, so the index stays in sync.
type Items interface {
	Create(ctx context.Context, f item.Fields) (item.Item, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, cursor string, limit int) ([]item.Item, string, error)
	Count(ctx context.Context) (int, error)
}
