package bleve

import (
	"context"
	"maps"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"github.com/kailas-cloud/itemdex/internal/db"
)

const listPageSize = 1000

// Upsert indexes doc under key, replacing any previous document.
func (s *Store) Upsert(_ context.Context, index, key string, doc db.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	oi, err := s.lookupLocked(index)
	if err != nil {
		return err
	}
	if err := oi.index.Index(key, map[string]any(doc)); err != nil {
		return &db.Error{Op: db.OpIndex, Err: err}
	}
	return nil
}

// Merge reads the stored fields of key, overwrites the given ones and
// re-indexes the document.
func (s *Store) Merge(ctx context.Context, index, key string, fields db.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	oi, err := s.lookupLocked(index)
	if err != nil {
		return err
	}

	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{key}))
	req.Fields = []string{"*"}
	res, err := oi.index.SearchInContext(ctx, req)
	if err != nil {
		return &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(res.Hits) == 0 {
		return db.ErrKeyNotFound
	}

	doc := oi.source(res.Hits[0].Fields)
	maps.Copy(doc, fields)
	if err := oi.index.Index(key, map[string]any(doc)); err != nil {
		return &db.Error{Op: db.OpIndex, Err: err}
	}
	return nil
}

// Delete removes the document stored under key.
func (s *Store) Delete(_ context.Context, index, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	oi, err := s.lookupLocked(index)
	if err != nil {
		return err
	}
	existing, err := oi.index.Document(key)
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	if existing == nil {
		return db.ErrKeyNotFound
	}
	if err := oi.index.Delete(key); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// ListKeys pages through every document id in id order and keeps those
// starting with prefix.
func (s *Store) ListKeys(ctx context.Context, index, prefix string) ([]string, error) {
	oi, err := s.lookup(index)
	if err != nil {
		return nil, err
	}

	var keys []string
	for from := 0; ; from += listPageSize {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), listPageSize, from, false)
		req.SortBy([]string{"_id"})
		res, err := oi.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: err}
		}
		for _, hit := range res.Hits {
			if strings.HasPrefix(hit.ID, prefix) {
				keys = append(keys, hit.ID)
			}
		}
		if len(res.Hits) < listPageSize {
			return keys, nil
		}
	}
}

// source keeps the source fields of a stored hit, dropping alias fields.
func (oi *openIndex) source(stored map[string]any) db.Document {
	doc := make(db.Document, len(oi.fields))
	for name, v := range stored {
		if oi.fields[name] {
			doc[name] = v
		}
	}
	return doc
}
