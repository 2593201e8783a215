// Package app is the composition root: it opens the primary store and the
// search engine selected by configuration and wires every service on top.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/itemdex/internal/config"
	"github.com/kailas-cloud/itemdex/internal/db"
	dbBleve "github.com/kailas-cloud/itemdex/internal/db/bleve"
	dbRedis "github.com/kailas-cloud/itemdex/internal/db/redis"
	"github.com/kailas-cloud/itemdex/internal/domain/item"
	"github.com/kailas-cloud/itemdex/internal/repository/index"
	"github.com/kailas-cloud/itemdex/internal/storage/postgres"
	"github.com/kailas-cloud/itemdex/internal/storage/sqlite"
	healthuc "github.com/kailas-cloud/itemdex/internal/usecase/health"
	"github.com/kailas-cloud/itemdex/internal/usecase/itemsync"
	searchuc "github.com/kailas-cloud/itemdex/internal/usecase/search"
)

// PrimaryStore is what the application needs from a primary store driver.
type PrimaryStore interface {
	itemsync.PrimaryStore
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (item.Stats, error)
	Close()
}

// App holds the open store handles and the services built on them.
type App struct {
	Primary PrimaryStore
	Engine  db.Engine
	Index   *index.Repo
	Items   *itemsync.Service
	Search  *searchuc.Service
	Health  *healthuc.Service
}

// New opens both stores and wires the services. The search engine is only
// opened here; creating the index is left to the caller (EnsureIndex).
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	primary, err := openPrimary(ctx, cfg.Primary)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to primary store", zap.String("driver", cfg.Primary.Driver))

	engine, err := openEngine(ctx, cfg.Search)
	if err != nil {
		primary.Close()
		return nil, err
	}
	logger.Info("Connected to search engine",
		zap.String("driver", cfg.Search.Driver),
		zap.String("index", cfg.Search.IndexName),
	)

	return Wire(primary, engine, cfg, logger), nil
}

// Wire builds the services over already opened stores.
func Wire(primary PrimaryStore, engine db.Engine, cfg config.Config, logger *zap.Logger) *App {
	repo := index.New(engine, index.Config{
		IndexName: cfg.Search.IndexName,
		KeyPrefix: cfg.Search.KeyPrefix,
	})

	items := itemsync.New(primary, repo, itemsync.Config{
		IndexTimeout: time.Duration(cfg.Sync.IndexTimeoutMS) * time.Millisecond,
		BatchSize:    cfg.Sync.ReconcileBatchSize,
		Concurrency:  cfg.Sync.ReconcileConcurrency,
		PurgeOrphans: cfg.Sync.PurgeOrphansEnabled(),
	}, logger).WithPagination(cfg.HTTP.DefaultPageSize, cfg.HTTP.MaxPageSize)

	return &App{
		Primary: primary,
		Engine:  engine,
		Index:   repo,
		Items:   items,
		Search:  searchuc.New(repo),
		Health:  healthuc.New(primary, engine),
	}
}

// Close releases the store handles.
func (a *App) Close() {
	a.Engine.Close()
	a.Primary.Close()
}

func openPrimary(ctx context.Context, cfg config.PrimaryConfig) (PrimaryStore, error) {
	readiness := time.Duration(cfg.ReadinessTimeout) * time.Second

	switch cfg.Driver {
	case config.PrimaryPostgres:
		s, err := postgres.Open(ctx, postgres.Config{DSN: cfg.DSN, MaxConns: cfg.MaxConns})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := s.WaitForReady(ctx, readiness); err != nil {
			s.Close()
			return nil, fmt.Errorf("primary store not ready: %w", err)
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case config.PrimarySQLite:
		s, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown primary driver %q", cfg.Driver)
	}
}

func openEngine(ctx context.Context, cfg config.SearchConfig) (db.Engine, error) {
	var (
		engine db.Engine
		err    error
	)
	switch cfg.Driver {
	case config.SearchRedis:
		engine, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	case config.SearchBleve:
		engine, err = dbBleve.NewStore(dbBleve.Config{Path: cfg.BlevePath})
	default:
		return nil, fmt.Errorf("unknown search driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create search engine: %w", err)
	}

	if err := engine.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		engine.Close()
		return nil, fmt.Errorf("search engine not ready: %w", err)
	}
	return engine, nil
}
