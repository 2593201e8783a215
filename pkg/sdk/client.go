package itemdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/itemdex/internal/app"
	"github.com/kailas-cloud/itemdex/internal/domain"
	"github.com/kailas-cloud/itemdex/internal/domain/item"
	"github.com/kailas-cloud/itemdex/internal/domain/item/patch"
	"github.com/kailas-cloud/itemdex/internal/domain/search/filter"
)

// Client is the itemdex SDK entry point.
type Client struct {
	app *app.App
	obs *observer
	now func() time.Time
}

// New opens the configured stores and ensures the search index exists.
// The provided context is used for readiness checks.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}
	if cc.cfg.Primary.Driver == "" {
		return nil, errors.New("itemdex: primary store required (use WithPostgres or WithSQLite)")
	}
	if cc.cfg.Search.Driver == "" {
		return nil, errors.New("itemdex: search engine required (use WithRedis or WithBleve)")
	}
	cc.cfg.HTTP.Port = 1 // unused by the SDK, keeps Validate satisfied
	cc.cfg.ApplyDefaults()
	if err := cc.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("itemdex: %w", err)
	}

	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cc.cfg, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("itemdex: %w", err)
	}
	if err := a.Index.EnsureIndex(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("itemdex: %w", err)
	}
	return &Client{app: a, obs: obs, now: time.Now}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.app != nil {
		c.app.Close()
	}
}

// Create validates and stores a new item.
func (c *Client) Create(ctx context.Context, name, category string, year int) (_ Item, err error) {
	start := time.Now()
	defer func() { c.obs.observe("create", start, err) }()

	f, err := item.NewFields(name, category, year, c.now())
	if err != nil {
		return Item{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	it, err := c.app.Items.Create(ctx, f)
	if err != nil {
		return Item{}, err
	}
	return itemFromDomain(it), nil
}

// Get reads an item from the primary store.
func (c *Client) Get(ctx context.Context, id string) (_ Item, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get", start, err) }()

	it, err := c.app.Items.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	return itemFromDomain(it), nil
}

// Update applies a partial update.
func (c *Client) Update(ctx context.Context, id string, p Patch) (_ Item, err error) {
	start := time.Now()
	defer func() { c.obs.observe("update", start, err) }()

	dp, err := patch.New(p.Name, p.Category, p.Year, c.now())
	if err != nil {
		return Item{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	it, err := c.app.Items.Update(ctx, id, dp)
	if err != nil {
		return Item{}, err
	}
	return itemFromDomain(it), nil
}

// Delete removes an item.
func (c *Client) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete", start, err) }()

	return c.app.Items.Delete(ctx, id)
}

// List returns a page of items ordered by id. nextCursor is empty on the last page.
func (c *Client) List(ctx context.Context, cursor string, limit int) (_ []Item, nextCursor string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("list", start, err) }()

	items, next, err := c.app.Items.List(ctx, cursor, limit)
	if err != nil {
		return nil, "", err
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = itemFromDomain(it)
	}
	return out, next, nil
}

// Search runs a fuzzy search over name and category. A blank term matches everything.
func (c *Client) Search(ctx context.Context, term string, opts SearchOptions) (_ SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	filters, err := opts.filters()
	if err != nil {
		return SearchResult{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	res, err := c.app.Search.Search(ctx, term, filters)
	if err != nil {
		return SearchResult{}, err
	}

	out := SearchResult{Total: res.Total(), Hits: make([]SearchHit, len(res.Hits()))}
	for i, h := range res.Hits() {
		out.Hits[i] = SearchHit{Item: itemFromDomain(h.Item()), Score: h.Score()}
	}
	return out, nil
}

// Reconcile re-syncs every item into the index. A partial failure returns
// the report together with an error matching ErrReconciliationPartial.
func (c *Client) Reconcile(ctx context.Context) (_ ReconcileReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reconcile", start, err) }()

	rep := c.app.Items.Reconcile(ctx)
	return reportFromDomain(rep), rep.Err()
}

// Health checks the health of all system components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.app.Health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

func (o SearchOptions) filters() (filter.Filters, error) {
	var (
		category *string
		year     *int
		yr       *filter.YearRange
	)
	if o.Category != "" {
		category = &o.Category
	}
	if o.Year != 0 {
		year = &o.Year
	}
	if o.YearMin != 0 || o.YearMax != 0 {
		var lo, hi *int
		if o.YearMin != 0 {
			lo = &o.YearMin
		}
		if o.YearMax != 0 {
			hi = &o.YearMax
		}
		r, err := filter.NewYearRange(lo, hi)
		if err != nil {
			return filter.Filters{}, err
		}
		yr = &r
	}
	return filter.New(category, year, yr)
}
