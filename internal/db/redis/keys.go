package redis

import (
	"context"
	"strings"

	"github.com/kailas-cloud/itemdex/internal/db"
)

// ListKeys iterates keys starting with prefix via SCAN.
func (s *Store) ListKeys(ctx context.Context, _ string, prefix string) ([]string, error) {
	var keys []string
	var cursor uint64

	pattern := globEscaper.Replace(prefix) + "*"
	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

var globEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
)
