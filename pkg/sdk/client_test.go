package itemdex

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithSQLite(""), WithBleve("")}, opts...)
	c, err := New(context.Background(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func ptr[T any](v T) *T { return &v }

func TestNew_RequiresDrivers(t *testing.T) {
	if _, err := New(context.Background(), WithBleve("")); err == nil {
		t.Error("expected error without primary store")
	}
	if _, err := New(context.Background(), WithSQLite("")); err == nil {
		t.Error("expected error without search engine")
	}
}

func TestClient_CreateAndSearch(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	created, err := c.Create(ctx, "  Ocean Explorer ", "Sailboat", 2020)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Name != "Ocean Explorer" || created.ID == "" {
		t.Errorf("unexpected item: %+v", created)
	}
	if _, err := c.Create(ctx, "Harbor Queen", "Speedboat", 1985); err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := c.Search(ctx, "ocan", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 || res.Hits[0].Item.ID != created.ID {
		t.Errorf("fuzzy search: total=%d hits=%+v", res.Total, res.Hits)
	}

	res, err = c.Search(ctx, "", SearchOptions{Category: "Speedboat"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 || res.Hits[0].Item.Category != "Speedboat" {
		t.Errorf("category filter: total=%d", res.Total)
	}

	res, err = c.Search(ctx, "", SearchOptions{YearMin: 2000})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 || res.Hits[0].Item.Year != 2020 {
		t.Errorf("year range filter: total=%d", res.Total)
	}
}

func TestClient_Validation(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	tests := []struct {
		name string
		fn   func() error
	}{
		{"blank name", func() error { _, err := c.Create(ctx, "   ", "Sailboat", 2000); return err }},
		{"bad category", func() error { _, err := c.Create(ctx, "X", "Spaceship", 2000); return err }},
		{"year too old", func() error { _, err := c.Create(ctx, "X", "Sailboat", 1700); return err }},
		{"empty patch", func() error { _, err := c.Update(ctx, "any", Patch{}); return err }},
		{"inverted range", func() error {
			_, err := c.Search(ctx, "", SearchOptions{YearMin: 2020, YearMax: 2000})
			return err
		}},
		{"bad filter category", func() error {
			_, err := c.Search(ctx, "", SearchOptions{Category: "Spaceship"})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestClient_UpdateDeleteLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	it, err := c.Create(ctx, "Sea Breeze", "Yacht", 2001)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := c.Update(ctx, it.ID, Patch{Year: ptr(2005)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Year != 2005 || updated.Name != "Sea Breeze" {
		t.Errorf("unexpected update: %+v", updated)
	}

	res, err := c.Search(ctx, "", SearchOptions{Year: 2005})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 {
		t.Errorf("index not updated: total=%d", res.Total)
	}

	if err := c.Delete(ctx, it.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, it.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: err = %v, want ErrNotFound", err)
	}
	if err := c.Delete(ctx, it.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: err = %v, want ErrNotFound", err)
	}

	res, err = c.Search(ctx, "sea", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 0 {
		t.Errorf("deleted item still searchable: total=%d", res.Total)
	}
}

func TestClient_ListAndReconcile(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		if _, err := c.Create(ctx, name, "Ketch", 1990); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	page, next, err := c.List(ctx, "", 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 2 || next == "" {
		t.Fatalf("first page: len=%d next=%q", len(page), next)
	}
	rest, next, err := c.List(ctx, next, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rest) != 1 || next != "" {
		t.Errorf("last page: len=%d next=%q", len(rest), next)
	}

	rep, err := c.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if rep.Total != 3 || rep.Succeeded != 3 || rep.Failed != 0 {
		t.Errorf("unexpected report: %+v", rep)
	}
}

func TestClient_Health(t *testing.T) {
	c := newTestClient(t)

	h := c.Health(context.Background())
	if h.Status != "ok" {
		t.Errorf("status = %q, want ok", h.Status)
	}
	if h.Checks["primary"] != "ok" || h.Checks["search"] != "ok" {
		t.Errorf("checks = %v", h.Checks)
	}
}

func TestClient_Observability(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newTestClient(t, WithPrometheus(reg), WithLogger(logger))

	if _, err := c.Create(ctx, "Observed", "Catamaran", 2010); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, _ = c.Get(ctx, "missing")
	_, _ = c.Create(ctx, "", "Catamaran", 2010)

	// A second client on the same registerer reuses the collectors.
	other := newTestClient(t, WithPrometheus(reg))
	if _, err := other.Create(ctx, "Shared", "Catamaran", 2011); err != nil {
		t.Fatalf("Create: %v", err)
	}

	m := c.obs.metrics
	if got := testutil.ToFloat64(m.operations.WithLabelValues("create", statusOK)); got != 2 {
		t.Errorf("create ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("get", statusNotFound)); got != 1 {
		t.Errorf("get not_found = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("create", statusInvalid)); got != 1 {
		t.Errorf("create invalid = %v, want 1", got)
	}

	out := buf.String()
	if !strings.Contains(out, `"op":"create"`) || !strings.Contains(out, `"status":"not_found"`) {
		t.Errorf("missing log attributes in %s", out)
	}
	if strings.Contains(out, `"level":"WARN"`) {
		t.Errorf("caller mistakes must not log at warn: %s", out)
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, statusOK},
		{ErrNotFound, statusNotFound},
		{ErrValidation, statusInvalid},
		{ErrSearchUnavailable, statusError},
		{errors.New("boom"), statusError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestCategories(t *testing.T) {
	cs := Categories()
	if len(cs) == 0 {
		t.Fatal("no categories")
	}
	found := false
	for _, c := range cs {
		if c == "Sailboat" {
			found = true
		}
	}
	if !found {
		t.Errorf("Sailboat missing from %v", cs)
	}
}
