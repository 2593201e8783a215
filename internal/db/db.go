package db

import (
	"context"
	"time"

	"github.com/kailas-cloud/itemdex/internal/domain/search/query"
)

// Engine is the search index facade combining all sub-interfaces.
//
//nolint:interfacebloat // consumers use narrow sub-interfaces (ISP)
type Engine interface {
	Pinger
	IndexManager
	DocumentStore
	Searcher
	HealthReporter
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks engine connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Document is a flat set of indexed fields keyed by source field name.
type Document map[string]any

// DocumentStore provides per-document index mutations. Keys are full
// document keys (prefix included).
type DocumentStore interface {
	// Upsert replaces the whole document stored at key.
	Upsert(ctx context.Context, index, key string, doc Document) error
	// Merge overwrites only the given fields. Returns ErrKeyNotFound when absent.
	Merge(ctx context.Context, index, key string, fields Document) error
	// Delete removes the document. Returns ErrKeyNotFound when absent.
	Delete(ctx context.Context, index, key string) error
	// ListKeys returns every document key starting with prefix.
	ListKeys(ctx context.Context, index, prefix string) ([]string, error)
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher executes engine-neutral queries.
type Searcher interface {
	Search(ctx context.Context, index string, q *query.Query) (*SearchResult, error)
}

// HealthReporter reports engine cluster health.
type HealthReporter interface {
	Health(ctx context.Context) (Health, error)
}

// Cluster health statuses.
const (
	HealthGreen  = "green"
	HealthYellow = "yellow"
	HealthRed    = "red"
)

// Health is a snapshot of engine cluster state.
type Health struct {
	Status              string
	NodeCount           int
	ActivePrimaryShards int
	ActiveShards        int
}
