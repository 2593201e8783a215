package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/itemdex/internal/config"
	"github.com/kailas-cloud/itemdex/internal/usecase/itemsync"
)

// startBackground launches the optional startup reconcile and the periodic
// scheduler. Both stop on ctx; callers Wait before closing the stores.
func startBackground(
	ctx context.Context, items *itemsync.Service, cfg config.SyncConfig, logger *zap.Logger,
) *sync.WaitGroup {
	var wg sync.WaitGroup
	if cfg.ReconcileOnStart {
		wg.Go(func() { items.Reconcile(ctx) })
	}
	scheduler := itemsync.NewScheduler(items, time.Duration(cfg.ReconcileIntervalSec)*time.Second, logger)
	wg.Go(func() { scheduler.Run(ctx) })
	return &wg
}
