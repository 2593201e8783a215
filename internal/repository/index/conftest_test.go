package index

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/itemdex/internal/db"
	"github.com/kailas-cloud/itemdex/internal/domain/item"
	"github.com/kailas-cloud/itemdex/internal/domain/search/query"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	upsertFn      func(ctx context.Context, index, key string, doc db.Document) error
	mergeFn       func(ctx context.Context, index, key string, fields db.Document) error
	deleteFn      func(ctx context.Context, index, key string) error
	listKeysFn    func(ctx context.Context, index, prefix string) ([]string, error)
	searchFn      func(ctx context.Context, index string, q *query.Query) (*db.SearchResult, error)
	healthFn      func(ctx context.Context) (db.Health, error)
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) Upsert(ctx context.Context, index, key string, doc db.Document) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, index, key, doc)
	}
	return nil
}

func (m *mockStore) Merge(ctx context.Context, index, key string, fields db.Document) error {
	if m.mergeFn != nil {
		return m.mergeFn(ctx, index, key, fields)
	}
	return nil
}

func (m *mockStore) Delete(ctx context.Context, index, key string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, index, key)
	}
	return nil
}

func (m *mockStore) ListKeys(ctx context.Context, index, prefix string) ([]string, error) {
	if m.listKeysFn != nil {
		return m.listKeysFn(ctx, index, prefix)
	}
	return nil, nil
}

func (m *mockStore) Search(ctx context.Context, index string, q *query.Query) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, index, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) Health(ctx context.Context) (db.Health, error) {
	if m.healthFn != nil {
		return m.healthFn(ctx)
	}
	return db.Health{Status: db.HealthGreen}, nil
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, Config{IndexName: "items", KeyPrefix: "itemdex:item:"},
		WithClock(func() time.Time { return testNow }))
	return repo, ms
}

func testItem(t *testing.T) item.Item {
	t.Helper()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return item.Reconstruct("item-1", "Ocean Explorer", item.Sailboat, 2020, created, created)
}
