// Package seed fills the store with generated items and clears it again.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// clearPageSize is the page size used when walking items to delete.
const clearPageSize = 100

// Result summarizes a seeding run.
type Result struct {
	Created int
	Total   int
	Skipped bool
}

// Service seeds through the synchronizer.
type Service struct {
	items  Items
	gen    *Generator
	logger *zap.Logger
}

// New creates a seeding service.
func New(items Items, gen *Generator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{items: items, gen: gen, logger: logger}
}

// Seed creates count items. When the store already holds items it does
// nothing unless force is set.
func (s *Service) Seed(ctx context.Context, count int, force bool) (Result, error) {
	existing, err := s.items.Count(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("count items: %w", err)
	}
	if existing > 0 && !force {
		s.logger.Info("Store already has items, skipping seed", zap.Int("existing", existing))
		return Result{Total: existing, Skipped: true}, nil
	}

	var res Result
	for range count {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, err := s.items.Create(ctx, s.gen.Fields()); err != nil {
			return res, fmt.Errorf("create item %d: %w", res.Created+1, err)
		}
		res.Created++
	}

	res.Total, err = s.items.Count(ctx)
	if err != nil {
		return res, fmt.Errorf("count items: %w", err)
	}
	s.logger.Info("Seeded items", zap.Int("created", res.Created), zap.Int("total", res.Total))
	return res, nil
}

// Clear deletes every item and returns how many were removed.
func (s *Service) Clear(ctx context.Context) (int, error) {
	deleted := 0
	for {
		// Deleted ids never come back, so every pass restarts from the first page.
		page, _, err := s.items.List(ctx, "", clearPageSize)
		if err != nil {
			return deleted, fmt.Errorf("list items: %w", err)
		}
		if len(page) == 0 {
			return deleted, nil
		}
		for _, it := range page {
			if err := s.items.Delete(ctx, it.ID()); err != nil {
				return deleted, fmt.Errorf("delete item %s: %w", it.ID(), err)
			}
			deleted++
		}
	}
}
