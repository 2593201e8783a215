package itemsync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/itemdex/internal/db/bleve"
	"github.com/kailas-cloud/itemdex/internal/domain"
	"github.com/kailas-cloud/itemdex/internal/domain/item"
	"github.com/kailas-cloud/itemdex/internal/domain/item/patch"
	"github.com/kailas-cloud/itemdex/internal/repository/index"
	"github.com/kailas-cloud/itemdex/internal/usecase/search"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// memPrimary is an in-memory PrimaryStore with sequential ids.
type memPrimary struct {
	mu      sync.Mutex
	seq     int
	items   map[string]item.Item
	failErr error
	calls   atomic.Int64
}

func newMemPrimary() *memPrimary {
	return &memPrimary{items: make(map[string]item.Item)}
}

func (m *memPrimary) Create(_ context.Context, f item.Fields) (item.Item, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return item.Item{}, m.failErr
	}
	m.seq++
	id := fmt.Sprintf("item-%04d", m.seq)
	it := item.Reconstruct(id, f.Name, f.Category, f.Year, testNow, testNow)
	m.items[id] = it
	return it, nil
}

func (m *memPrimary) Get(_ context.Context, id string) (item.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return item.Item{}, domain.ErrNotFound
	}
	return it, nil
}

func (m *memPrimary) FindMany(_ context.Context, afterID string, limit int) ([]item.Item, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	ids := make([]string, 0, len(m.items))
	for id := range m.items {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]item.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.items[id])
	}
	return out, nil
}

func (m *memPrimary) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[id]
	return ok, nil
}

func (m *memPrimary) Update(_ context.Context, id string, p patch.Patch) (item.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return item.Item{}, m.failErr
	}
	it, ok := m.items[id]
	if !ok {
		return item.Item{}, domain.ErrNotFound
	}
	f := p.ApplyTo(it.Fields())
	it = item.Reconstruct(id, f.Name, f.Category, f.Year, it.CreatedAt(), testNow.Add(time.Minute))
	m.items[id] = it
	return it, nil
}

func (m *memPrimary) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	if _, ok := m.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memPrimary) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items), nil
}

// flakyIndex wraps a real IndexMutator and fails writes on demand.
type flakyIndex struct {
	IndexMutator
	failing atomic.Bool
	failIDs map[string]bool
	calls   atomic.Int64
}

var errIndexDown = errors.New("index unreachable")

func (f *flakyIndex) fail(id string) error {
	f.calls.Add(1)
	if f.failing.Load() || f.failIDs[id] {
		return domain.NewIndexError("test", id, errIndexDown)
	}
	return nil
}

func (f *flakyIndex) EnsureIndex(ctx context.Context) error {
	if err := f.fail(""); err != nil {
		return err
	}
	return f.IndexMutator.EnsureIndex(ctx)
}

func (f *flakyIndex) Create(ctx context.Context, it item.Item) error {
	if err := f.fail(it.ID()); err != nil {
		return err
	}
	return f.IndexMutator.Create(ctx, it)
}

func (f *flakyIndex) Update(ctx context.Context, id string, p patch.Patch) error {
	if err := f.fail(id); err != nil {
		return err
	}
	return f.IndexMutator.Update(ctx, id, p)
}

func (f *flakyIndex) Delete(ctx context.Context, id string) error {
	if err := f.fail(id); err != nil {
		return err
	}
	return f.IndexMutator.Delete(ctx, id)
}

func (f *flakyIndex) Upsert(ctx context.Context, it item.Item) error {
	if err := f.fail(it.ID()); err != nil {
		return err
	}
	return f.IndexMutator.Upsert(ctx, it)
}

// env wires the synchronizer and the search service to a real in-memory bleve index.
type env struct {
	primary *memPrimary
	index   *flakyIndex
	sync    *Service
	search  *search.Service
}

func newEnv(t *testing.T, cfg Config) *env {
	t.Helper()
	store, err := bleve.NewStore(bleve.Config{})
	if err != nil {
		t.Fatalf("bleve.NewStore: %v", err)
	}
	t.Cleanup(store.Close)

	repo := index.New(store, index.Config{IndexName: "items", KeyPrefix: "itemdex:item:"},
		index.WithClock(func() time.Time { return testNow }))
	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}

	primary := newMemPrimary()
	flaky := &flakyIndex{IndexMutator: repo, failIDs: map[string]bool{}}
	return &env{
		primary: primary,
		index:   flaky,
		sync:    New(primary, flaky, cfg, zap.NewNop()),
		search:  search.New(repo),
	}
}

func (e *env) create(t *testing.T, name string, category item.Category, year int) item.Item {
	t.Helper()
	it, err := e.sync.Create(context.Background(), item.Fields{Name: name, Category: category, Year: year})
	if err != nil {
		t.Fatalf("Create(%s): %v", name, err)
	}
	return it
}
