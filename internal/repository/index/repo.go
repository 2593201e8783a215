package index

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kailas-cloud/itemdex/internal/db"
	"github.com/kailas-cloud/itemdex/internal/domain"
	"github.com/kailas-cloud/itemdex/internal/domain/item"
	"github.com/kailas-cloud/itemdex/internal/domain/item/patch"
	"github.com/kailas-cloud/itemdex/internal/domain/search/query"
	"github.com/kailas-cloud/itemdex/internal/domain/search/result"
)

// store is the consumer interface for the search engine (ISP).
type store interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	Upsert(ctx context.Context, index, key string, doc db.Document) error
	Merge(ctx context.Context, index, key string, fields db.Document) error
	Delete(ctx context.Context, index, key string) error
	ListKeys(ctx context.Context, index, prefix string) ([]string, error)
	Search(ctx context.Context, index string, q *query.Query) (*db.SearchResult, error)
	Health(ctx context.Context) (db.Health, error)
}

// Config names the index and its document key prefix.
type Config struct {
	IndexName string
	KeyPrefix string
}

// Repo mirrors items into the search index and reads them back.
// It never touches the primary store.
type Repo struct {
	store  store
	name   string
	prefix string
	now    func() time.Time
}

// Option configures a Repo.
type Option func(*Repo)

// WithClock overrides the clock used to stamp index timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) { r.now = now }
}

// New creates an index repository.
func New(s store, cfg Config, opts ...Option) *Repo {
	r := &Repo{store: s, name: cfg.IndexName, prefix: cfg.KeyPrefix, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create writes the full item document, stamping created_at and updated_at.
func (r *Repo) Create(ctx context.Context, it item.Item) error {
	if err := r.create(ctx, it); err != nil {
		return domain.NewIndexError(domain.OpCreate, it.ID(), err)
	}
	return nil
}

func (r *Repo) create(ctx context.Context, it item.Item) error {
	ts := r.now().UnixMilli()
	doc := db.Document{
		query.FieldID:        it.ID(),
		query.FieldName:      it.Name(),
		query.FieldCategory:  it.Category().String(),
		query.FieldYear:      it.Year(),
		query.FieldCreatedAt: ts,
		query.FieldUpdatedAt: ts,
	}
	return r.store.Upsert(ctx, r.name, r.key(it.ID()), doc)
}

// Update writes only the fields present in p plus updated_at.
// A missing document is an IndexError wrapping domain.ErrDocumentNotFound.
func (r *Repo) Update(ctx context.Context, id string, p patch.Patch) error {
	if err := r.update(ctx, id, p); err != nil {
		return domain.NewIndexError(domain.OpUpdate, id, err)
	}
	return nil
}

func (r *Repo) update(ctx context.Context, id string, p patch.Patch) error {
	fields := db.Document{query.FieldUpdatedAt: r.now().UnixMilli()}
	if v := p.Name(); v != nil {
		fields[query.FieldName] = *v
	}
	if v := p.Category(); v != nil {
		fields[query.FieldCategory] = v.String()
	}
	if v := p.Year(); v != nil {
		fields[query.FieldYear] = *v
	}

	err := r.store.Merge(ctx, r.name, r.key(id), fields)
	if errors.Is(err, db.ErrKeyNotFound) {
		return domain.ErrDocumentNotFound
	}
	return err
}

// Delete removes the item document.
// A missing document is an IndexError wrapping domain.ErrDocumentNotFound.
func (r *Repo) Delete(ctx context.Context, id string) error {
	err := r.store.Delete(ctx, r.name, r.key(id))
	if errors.Is(err, db.ErrKeyNotFound) {
		err = domain.ErrDocumentNotFound
	}
	if err != nil {
		return domain.NewIndexError(domain.OpDelete, id, err)
	}
	return nil
}

// Upsert re-applies every field of it: an update when the document exists
// (created_at is kept), a create otherwise.
func (r *Repo) Upsert(ctx context.Context, it item.Item) error {
	err := r.update(ctx, it.ID(), patch.Full(it.Fields()))
	if errors.Is(err, domain.ErrDocumentNotFound) {
		err = r.create(ctx, it)
	}
	if err != nil {
		return domain.NewIndexError(domain.OpUpsert, it.ID(), err)
	}
	return nil
}

// ListIDs returns every indexed item id in ascending order.
func (r *Repo) ListIDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.ListKeys(ctx, r.name, r.prefix)
	if err != nil {
		return nil, domain.NewIndexError(domain.OpListIDs, "", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, r.id(k))
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// Search runs q and decodes hits into item snapshots.
func (r *Repo) Search(ctx context.Context, q *query.Query) (result.Result, error) {
	res, err := r.store.Search(ctx, r.name, q)
	if err != nil {
		return result.Result{}, fmt.Errorf("search %s: %w", r.name, err)
	}
	if res == nil {
		return result.New(0, nil), nil
	}

	hits := make([]result.Hit, 0, len(res.Entries))
	for _, e := range res.Entries {
		hits = append(hits, result.NewHit(r.decode(e), e.Score))
	}
	return result.New(res.Total, hits), nil
}

// Health forwards the engine health.
func (r *Repo) Health(ctx context.Context) (db.Health, error) {
	return r.store.Health(ctx)
}

func (r *Repo) key(id string) string { return r.prefix + id }

func (r *Repo) id(key string) string { return strings.TrimPrefix(key, r.prefix) }

func (r *Repo) decode(e db.SearchEntry) item.Item {
	f := e.Fields
	id := asString(f[query.FieldID])
	if id == "" {
		id = r.id(e.Key)
	}
	return item.Reconstruct(
		id,
		asString(f[query.FieldName]),
		item.Category(asString(f[query.FieldCategory])),
		int(asInt64(f[query.FieldYear])),
		asTime(f[query.FieldCreatedAt]),
		asTime(f[query.FieldUpdatedAt]),
	)
}
