package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/itemdex/internal/db"
	"github.com/kailas-cloud/itemdex/internal/domain"
	"github.com/kailas-cloud/itemdex/internal/domain/search/filter"
	"github.com/kailas-cloud/itemdex/internal/domain/search/result"
	"github.com/kailas-cloud/itemdex/internal/metrics"
)

// Service runs free-text item searches against the index.
type Service struct {
	index Index
}

// New creates a search service.
func New(index Index) *Service {
	return &Service{index: index}
}

// Search returns at most query.DefaultSize hits for term and filters.
// An index failure is reported as domain.ErrSearchUnavailable, never as an empty result.
func (s *Service) Search(
	ctx context.Context, term string, filters filter.Filters,
) (result.Result, error) {
	q := Build(term, filters)

	res, err := s.index.Search(ctx, &q)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("unavailable").Inc()
		return result.Result{}, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
	}
	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()

	return result.New(res.Total(), rankHits(res.Hits(), q.Size)), nil
}

// Health reports the index engine health.
func (s *Service) Health(ctx context.Context) (db.Health, error) {
	h, err := s.index.Health(ctx)
	if err != nil {
		return db.Health{Status: db.HealthRed}, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
	}
	return h, nil
}
