package search

import (
	"context"

	"github.com/kailas-cloud/itemdex/internal/db"
	"github.com/kailas-cloud/itemdex/internal/domain/search/query"
	"github.com/kailas-cloud/itemdex/internal/domain/search/result"
)

// Index defines the read contract of the search index.
type Index interface {
	Search(ctx context.Context, q *query.Query) (result.Result, error)
	Health(ctx context.Context) (db.Health, error)
}
