package itemsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/itemdex/internal/domain"
	"github.com/kailas-cloud/itemdex/internal/domain/item"
	"github.com/kailas-cloud/itemdex/internal/domain/item/patch"
	"github.com/kailas-cloud/itemdex/internal/logger"
	"github.com/kailas-cloud/itemdex/internal/metrics"
)

// Config tunes index writes and reconciliation.
type Config struct {
	IndexTimeout time.Duration
	BatchSize    int
	Concurrency  int
	PurgeOrphans bool
}

// Defaults.
const (
	DefaultIndexTimeout = 2 * time.Second
	DefaultBatchSize    = 200
	DefaultConcurrency  = 4
)

// Service writes items to the primary store first and mirrors every
// successful write into the search index. Index failures never fail a write.
type Service struct {
	primary         PrimaryStore
	index           IndexMutator
	cfg             Config
	logger          *zap.Logger
	now             func() time.Time
	defaultPageSize int
	maxPageSize     int
}

// New creates a synchronizer. Zero config values fall back to defaults.
func New(primary PrimaryStore, index IndexMutator, cfg Config, logger *zap.Logger) *Service {
	if cfg.IndexTimeout <= 0 {
		cfg.IndexTimeout = DefaultIndexTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		primary:         primary,
		index:           index,
		cfg:             cfg,
		logger:          logger,
		now:             time.Now,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
}

// WithPagination configures page size limits for List.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Create stores a new item and indexes it.
func (s *Service) Create(ctx context.Context, f item.Fields) (item.Item, error) {
	it, err := s.primary.Create(ctx, f)
	if err != nil {
		return item.Item{}, fmt.Errorf("create item: %w", err)
	}

	s.syncIndex(ctx, domain.OpCreate, it.ID(), func(ctx context.Context) error {
		return s.index.Create(ctx, it)
	})
	return it, nil
}

// Update applies p in the primary store, then merges the same fields into
// the index. A document missing from the index is re-created from the
// updated item.
func (s *Service) Update(ctx context.Context, id string, p patch.Patch) (item.Item, error) {
	it, err := s.primary.Update(ctx, id, p)
	if err != nil {
		return item.Item{}, fmt.Errorf("update item: %w", err)
	}

	s.syncIndex(ctx, domain.OpUpdate, id, func(ctx context.Context) error {
		err := s.index.Update(ctx, id, p)
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return s.index.Upsert(ctx, it)
		}
		return err
	})
	return it, nil
}

// Delete removes the item from the primary store, then from the index.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.primary.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	s.syncIndex(ctx, domain.OpDelete, id, func(ctx context.Context) error {
		err := s.index.Delete(ctx, id)
		if errors.Is(err, domain.ErrDocumentNotFound) {
			// Never indexed: the goal state is already reached.
			return nil
		}
		return err
	})
	return nil
}

// Get reads an item from the primary store.
func (s *Service) Get(ctx context.Context, id string) (item.Item, error) {
	it, err := s.primary.Get(ctx, id)
	if err != nil {
		return item.Item{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// List returns a page of items ordered by id, starting after cursor.
// nextCursor is empty on the last page.
func (s *Service) List(
	ctx context.Context, cursor string, limit int,
) (items []item.Item, nextCursor string, err error) {
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	items, err = s.primary.FindMany(ctx, cursor, limit)
	if err != nil {
		return nil, "", fmt.Errorf("list items: %w", err)
	}
	if len(items) == limit {
		nextCursor = items[len(items)-1].ID()
	}
	return items, nextCursor, nil
}

// Count returns the number of items in the primary store.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.primary.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// syncIndex runs one index write under the index timeout. The write is
// detached from caller cancellation: the primary store already committed.
// Failures are logged and counted, never returned.
func (s *Service) syncIndex(ctx context.Context, op, id string, fn func(ctx context.Context) error) {
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.IndexTimeout)
	defer cancel()

	err := fn(ictx)
	if err == nil {
		return
	}
	if !errors.Is(err, domain.ErrIndex) {
		err = domain.NewIndexError(op, id, err)
	}

	metrics.IndexSyncFailuresTotal.WithLabelValues(op).Inc()
	logger.FromContextOr(ctx, s.logger).Warn("Index sync failed",
		zap.String("op", op),
		zap.String("item_id", id),
		zap.Error(err),
	)
}
