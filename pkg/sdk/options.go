package itemdex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/itemdex/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	cfg config.Config

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithPostgres stores items in PostgreSQL.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Primary.Driver = config.PrimaryPostgres
		c.cfg.Primary.DSN = dsn
	})
}

// WithSQLite stores items in a SQLite file. An empty path keeps them in memory.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Primary.Driver = config.PrimarySQLite
		c.cfg.Primary.DSN = path
	})
}

// WithRedis indexes items in Redis 8+ (RediSearch + RedisJSON).
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Search.Driver = config.SearchRedis
		c.cfg.Search.Addrs = []string{addr}
		c.cfg.Search.Password = password
	})
}

// WithBleve indexes items with the embedded bleve engine. An empty path
// keeps the index in memory.
func WithBleve(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Search.Driver = config.SearchBleve
		c.cfg.Search.BlevePath = path
	})
}

// WithIndex overrides the index name and document key prefix.
// Defaults: "items", "itemdex:item:".
func WithIndex(name, keyPrefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Search.IndexName = name
		c.cfg.Search.KeyPrefix = keyPrefix
	})
}

// WithIndexTimeout bounds every index write. Default: 2s.
func WithIndexTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Sync.IndexTimeoutMS = int(d.Milliseconds())
	})
}

// WithReconcile tunes reconciliation paging and parallelism.
func WithReconcile(batchSize, concurrency int, purgeOrphans bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Sync.ReconcileBatchSize = batchSize
		c.cfg.Sync.ReconcileConcurrency = concurrency
		c.cfg.Sync.PurgeOrphans = &purgeOrphans
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
