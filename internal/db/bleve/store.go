// Package bleve implements db.Engine in-process on top of bleve. Indexes are
// kept in memory, or on disk under Config.Path.
package bleve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/kailas-cloud/itemdex/internal/db"
)

// Compile-time check: Store implements db.Engine.
var _ db.Engine = (*Store)(nil)

var errClosed = errors.New("bleve store is closed")

// Config holds bleve store parameters.
type Config struct {
	// Path is the directory holding one sub-directory per index.
	// Empty keeps every index in memory.
	Path string
}

type openIndex struct {
	index  bleve.Index
	fields map[string]bool // source fields returned in hits
}

// Store implements db.Engine on bleve indexes.
type Store struct {
	cfg Config

	// mu guards indexes and serializes writes so Merge is read-modify-write safe.
	mu      sync.RWMutex
	indexes map[string]*openIndex
	closed  bool
}

// NewStore creates a bleve store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path != "" {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	}
	return &Store{cfg: cfg, indexes: make(map[string]*openIndex)}, nil
}

// Ping fails only once the store is closed.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errClosed
	}
	return nil
}

// WaitForReady returns at once: the engine is in-process.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Health reports a single green node with one shard per open index.
func (s *Store) Health(ctx context.Context) (db.Health, error) {
	if err := s.Ping(ctx); err != nil {
		return db.Health{Status: db.HealthRed}, &db.Error{Op: db.OpPing, Err: err}
	}
	s.mu.RLock()
	shards := len(s.indexes)
	s.mu.RUnlock()
	return db.Health{
		Status:              db.HealthGreen,
		NodeCount:           1,
		ActivePrimaryShards: shards,
		ActiveShards:        shards,
	}, nil
}

// Close closes every open index.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for name, oi := range s.indexes {
		_ = oi.index.Close()
		delete(s.indexes, name)
	}
}

// CreateIndex builds the bleve mapping for def and opens a new index.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpCreateIndex, Err: errClosed}
	}
	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}

	im := buildMapping(def)
	var (
		idx bleve.Index
		err error
	)
	if s.cfg.Path == "" {
		idx, err = bleve.NewMemOnly(im)
	} else {
		idx, err = bleve.New(s.indexPath(def.Name), im)
		if errors.Is(err, bleve.ErrorIndexPathExists) {
			return db.ErrIndexExists
		}
	}
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	s.indexes[def.Name] = &openIndex{index: idx, fields: sourceFields(im)}
	return nil
}

// DropIndex closes the index and removes its files.
func (s *Store) DropIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	oi, err := s.lookupLocked(name)
	if err != nil {
		return err
	}
	delete(s.indexes, name)
	if err := oi.index.Close(); err != nil {
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	if s.cfg.Path != "" {
		if err := os.RemoveAll(s.indexPath(name)); err != nil {
			return &db.Error{Op: db.OpDropIndex, Err: err}
		}
	}
	return nil
}

// IndexExists reports whether the index is open or present on disk.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.lookupLocked(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, db.ErrIndexNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *Store) indexPath(name string) string {
	return filepath.Join(s.cfg.Path, name)
}

// lookupLocked returns an open index, opening it from disk on first use.
// Caller must hold mu for writing.
func (s *Store) lookupLocked(name string) (*openIndex, error) {
	if s.closed {
		return nil, errClosed
	}
	if oi, ok := s.indexes[name]; ok {
		return oi, nil
	}
	if s.cfg.Path == "" {
		return nil, db.ErrIndexNotFound
	}

	idx, err := bleve.Open(s.indexPath(name))
	if err != nil {
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpOpen, Err: err}
	}
	oi := &openIndex{index: idx, fields: map[string]bool{}}
	if im, ok := idx.Mapping().(*mapping.IndexMappingImpl); ok {
		oi.fields = sourceFields(im)
	}
	s.indexes[name] = oi
	return oi, nil
}

// lookup resolves an index for a read.
func (s *Store) lookup(name string) (*openIndex, error) {
	s.mu.RLock()
	oi, ok := s.indexes[name]
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, errClosed
	}
	if ok {
		return oi, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(name)
}

// buildMapping maps every source field once, with all its index fields
// (aliases become bleve field names).
func buildMapping(def *db.IndexDefinition) *mapping.IndexMappingImpl {
	dm := bleve.NewDocumentStaticMapping()

	byName := make(map[string][]*mapping.FieldMapping)
	for i := range def.Fields {
		f := &def.Fields[i]
		fm := fieldMapping(f)
		fm.Name = f.Key()
		byName[f.Name] = append(byName[f.Name], fm)
	}
	for _, name := range def.SourceFields() {
		dm.AddFieldMappingsAt(name, byName[name]...)
	}

	im := bleve.NewIndexMapping()
	im.DefaultMapping = dm
	return im
}

func fieldMapping(f *db.IndexField) *mapping.FieldMapping {
	switch f.Type {
	case db.IndexFieldText:
		return bleve.NewTextFieldMapping()
	case db.IndexFieldTag:
		return bleve.NewKeywordFieldMapping()
	default:
		return bleve.NewNumericFieldMapping()
	}
}

func sourceFields(im *mapping.IndexMappingImpl) map[string]bool {
	out := make(map[string]bool)
	if im.DefaultMapping == nil {
		return out
	}
	for name := range im.DefaultMapping.Properties {
		out[name] = true
	}
	return out
}
