package itemsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/itemdex/internal/domain"
	"github.com/kailas-cloud/itemdex/internal/domain/item"
	"github.com/kailas-cloud/itemdex/internal/domain/reconcile"
	"github.com/kailas-cloud/itemdex/internal/metrics"
)

// Reconcile re-derives the index from the primary store: the index is
// created when missing, then every primary item is upserted into it. With
// PurgeOrphans, index documents whose item no longer exists in the primary
// store are deleted afterwards. Item failures are tallied in the report and
// never abort the pass; an index that cannot be ensured does.
func (s *Service) Reconcile(ctx context.Context) reconcile.Report {
	t := &tally{report: reconcile.Report{StartedAt: s.now()}}

	if err := s.ensureIndex(ctx); err != nil {
		t.failure("", fmt.Errorf("ensure index: %w", err))
	} else if complete := s.resync(ctx, t); complete && s.cfg.PurgeOrphans {
		s.purgeOrphans(ctx, t)
	}

	rep := t.report
	rep.Duration = s.now().Sub(rep.StartedAt)
	metrics.ReconcileDuration.Observe(rep.Duration.Seconds())
	s.logReport(rep)
	return rep
}

// ensureIndex recreates a missing index so a pass started while the engine
// was unavailable at startup can fill it.
func (s *Service) ensureIndex(ctx context.Context) error {
	ictx, cancel := context.WithTimeout(ctx, s.cfg.IndexTimeout)
	defer cancel()
	return s.index.EnsureIndex(ictx)
}

// resync pages the primary store by id keyset and upserts each item.
// It reports whether every page was read.
func (s *Service) resync(ctx context.Context, t *tally) bool {
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)
	defer func() { _ = g.Wait() }()

	after := ""
	for {
		if err := ctx.Err(); err != nil {
			t.failure("", fmt.Errorf("reconcile stopped after id %q: %w", after, err))
			return false
		}

		page, err := s.primary.FindMany(ctx, after, s.cfg.BatchSize)
		if err != nil {
			t.failure("", fmt.Errorf("read primary page after id %q: %w", after, err))
			return false
		}

		for _, it := range page {
			g.Go(func() error {
				t.record(it.ID(), s.upsert(ctx, it))
				return nil
			})
		}

		if len(page) < s.cfg.BatchSize {
			return true
		}
		after = page[len(page)-1].ID()
	}
}

func (s *Service) upsert(ctx context.Context, it item.Item) error {
	ictx, cancel := context.WithTimeout(ctx, s.cfg.IndexTimeout)
	defer cancel()
	return s.index.Upsert(ictx, it)
}

// purgeOrphans deletes index documents whose id is absent from the primary store.
func (s *Service) purgeOrphans(ctx context.Context, t *tally) {
	ids, err := s.index.ListIDs(ctx)
	if err != nil {
		t.failure("", fmt.Errorf("list index ids: %w", err))
		return
	}

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)
	for _, id := range ids {
		g.Go(func() error {
			exists, err := s.primary.Exists(ctx, id)
			if err != nil {
				t.failure(id, fmt.Errorf("check primary: %w", err))
				return nil
			}
			if exists {
				return nil
			}

			ictx, cancel := context.WithTimeout(ctx, s.cfg.IndexTimeout)
			defer cancel()
			err = s.index.Delete(ictx, id)
			switch {
			case err == nil:
				t.orphanRemoved()
			case errors.Is(err, domain.ErrDocumentNotFound):
			default:
				t.failure(id, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

const maxLoggedFailures = 10

func (s *Service) logReport(rep reconcile.Report) {
	fields := []zap.Field{
		zap.Int("total", rep.Total),
		zap.Int("succeeded", rep.Succeeded),
		zap.Int("failed", rep.Failed),
		zap.Int("orphans_removed", rep.OrphansRemoved),
		zap.Duration("duration", rep.Duration),
	}
	if err := rep.Err(); err != nil {
		ids := make([]string, 0, maxLoggedFailures)
		for _, f := range rep.Failures {
			if len(ids) == maxLoggedFailures {
				break
			}
			if f.ID != "" {
				ids = append(ids, f.ID)
			}
		}
		fields = append(fields, zap.Strings("failed_ids", ids), zap.NamedError("first_failure", rep.Failures[0].Err))
		s.logger.Warn("Reconciliation finished with failures", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Info("Reconciliation finished", fields...)
}

// tally is a Report shared by reconcile workers.
type tally struct {
	mu     sync.Mutex
	report reconcile.Report
}

func (t *tally) record(id string, err error) {
	if err != nil {
		t.failure(id, err)
		return
	}
	metrics.ReconcileItemsTotal.WithLabelValues("success").Inc()
	t.mu.Lock()
	t.report.AddSuccess()
	t.mu.Unlock()
}

func (t *tally) failure(id string, err error) {
	metrics.ReconcileItemsTotal.WithLabelValues("failure").Inc()
	t.mu.Lock()
	t.report.AddFailure(id, err)
	t.mu.Unlock()
}

func (t *tally) orphanRemoved() {
	metrics.ReconcileItemsTotal.WithLabelValues("orphan_removed").Inc()
	t.mu.Lock()
	t.report.OrphansRemoved++
	t.mu.Unlock()
}
