package seed

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/kailas-cloud/itemdex/internal/domain/item"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type memItems struct {
	seq       int
	items     map[string]item.Item
	createErr error
}

func newMemItems() *memItems { return &memItems{items: map[string]item.Item{}} }

func (m *memItems) Create(_ context.Context, f item.Fields) (item.Item, error) {
	if m.createErr != nil {
		return item.Item{}, m.createErr
	}
	m.seq++
	id := fmt.Sprintf("%04d", m.seq)
	it := item.Reconstruct(id, f.Name, f.Category, f.Year, testNow, testNow)
	m.items[id] = it
	return it, nil
}

func (m *memItems) Delete(_ context.Context, id string) error {
	delete(m.items, id)
	return nil
}

func (m *memItems) List(_ context.Context, cursor string, limit int) ([]item.Item, string, error) {
	ids := make([]string, 0, len(m.items))
	for id := range m.items {
		if id > cursor {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]item.Item, len(ids))
	for i, id := range ids {
		out[i] = m.items[id]
	}
	return out, "", nil
}

func (m *memItems) Count(context.Context) (int, error) { return len(m.items), nil }

func newTestService(items Items) *Service {
	return New(items, NewGenerator(42, func() time.Time { return testNow }), nil)
}

func TestGenerator_ProducesValidFields(t *testing.T) {
	g := NewGenerator(7, func() time.Time { return testNow })
	for range 500 {
		f := g.Fields()
		if _, err := item.NewFields(f.Name, f.Category.String(), f.Year, testNow); err != nil {
			t.Fatalf("invalid generated fields %+v: %v", f, err)
		}
		if f.Year < FirstYear || f.Year > testNow.Year() {
			t.Fatalf("year %d out of [%d, %d]", f.Year, FirstYear, testNow.Year())
		}
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	clock := func() time.Time { return testNow }
	a, b := NewGenerator(1, clock), NewGenerator(1, clock)
	for range 20 {
		if fa, fb := a.Fields(), b.Fields(); fa != fb {
			t.Fatalf("same seed diverged: %+v vs %+v", fa, fb)
		}
	}
}

func TestSeed_CreatesItems(t *testing.T) {
	items := newMemItems()
	res, err := newTestService(items).Seed(context.Background(), 25, false)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if res.Created != 25 || res.Total != 25 || res.Skipped {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestSeed_SkipsWhenDataExists(t *testing.T) {
	items := newMemItems()
	svc := newTestService(items)
	if _, err := svc.Seed(context.Background(), 3, false); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	res, err := svc.Seed(context.Background(), 10, false)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if !res.Skipped || res.Created != 0 || res.Total != 3 {
		t.Errorf("expected skip, got %+v", res)
	}

	res, err = svc.Seed(context.Background(), 10, true)
	if err != nil {
		t.Fatalf("forced Seed: %v", err)
	}
	if res.Created != 10 || res.Total != 13 {
		t.Errorf("forced seed: %+v", res)
	}
}

func TestSeed_StopsOnCreateError(t *testing.T) {
	items := newMemItems()
	items.createErr = errors.New("primary down")

	res, err := newTestService(items).Seed(context.Background(), 5, false)
	if err == nil || !errors.Is(err, items.createErr) {
		t.Fatalf("expected create error, got %v", err)
	}
	if res.Created != 0 {
		t.Errorf("Created = %d, want 0", res.Created)
	}
}

func TestClear_DeletesEverything(t *testing.T) {
	items := newMemItems()
	svc := newTestService(items)
	if _, err := svc.Seed(context.Background(), clearPageSize+7, false); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	n, err := svc.Clear(context.Background())
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != clearPageSize+7 || len(items.items) != 0 {
		t.Errorf("deleted %d, remaining %d", n, len(items.items))
	}
}
