package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/itemdex/internal/db"
)

// Upsert stores doc as the JSON document at key, replacing any previous one.
func (s *Store) Upsert(ctx context.Context, _ string, key string, doc db.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return s.jsonSet(ctx, key, string(data))
}

// mergeScript applies a JSON.MERGE patch only when the key exists. A false
// return surfaces as a nil reply.
const mergeScript = `if redis.call('EXISTS', KEYS[1]) == 0 then return false end
return redis.call('JSON.MERGE', KEYS[1], '$', ARGV[1])`

// Merge overwrites the given fields of the document at key in one atomic
// server-side step. A missing key is never created.
func (s *Store) Merge(ctx context.Context, _ string, key string, fields db.Document) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	cmd := s.b().Arbitrary("EVAL", mergeScript, "1").Keys(key).Args(string(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return db.ErrKeyNotFound
		}
		return &db.Error{Op: db.OpJSONMerge, Err: err}
	}
	return nil
}

// Delete removes the document at key.
func (s *Store) Delete(ctx context.Context, _ string, key string) error {
	cmd := s.b().Del().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	if n == 0 {
		return db.ErrKeyNotFound
	}
	return nil
}

func (s *Store) jsonSet(ctx context.Context, key, data string) error {
	cmd := s.b().Arbitrary("JSON.SET").Keys(key).Args("$", data).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	return nil
}
