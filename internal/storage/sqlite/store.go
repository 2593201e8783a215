// Package sqlite is the embedded SQLite primary item store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/kailas-cloud/itemdex/internal/domain"
	"github.com/kailas-cloud/itemdex/internal/domain/item"
	"github.com/kailas-cloud/itemdex/internal/domain/item/patch"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const itemColumns = "id, name, category, year, created_at, updated_at"

// Store keeps items in the "items" table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and applies the schema.
// An empty path or MemoryPath opens an in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	memory := path == "" || path == MemoryPath

	dsn := "file::memory:?_pragma=foreign_keys(ON)"
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			category   TEXT NOT NULL,
			year       INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS items_category_idx ON items (category)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate items: %w", err)
		}
	}
	return nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() {
	_ = s.db.Close()
}

// Create inserts a new item with a fresh UUID.
func (s *Store) Create(ctx context.Context, f item.Fields) (item.Item, error) {
	return s.insert(ctx, uuid.NewString(), f)
}

func (s *Store) insert(ctx context.Context, id string, f item.Fields) (item.Item, error) {
	now := s.now().UTC().Truncate(time.Millisecond)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		id, f.Name, f.Category.String(), f.Year, now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return item.Item{}, fmt.Errorf("item %s: %w", id, domain.ErrDuplicate)
		}
		return item.Item{}, fmt.Errorf("insert item: %w", err)
	}
	return item.Reconstruct(id, f.Name, f.Category, f.Year, now, now), nil
}

// Get reads one item.
func (s *Store) Get(ctx context.Context, id string) (item.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if err != nil {
		return item.Item{}, notFound(id, err)
	}
	return it, nil
}

// FindMany returns up to limit items with id > afterID in id order.
func (s *Store) FindMany(ctx context.Context, afterID string, limit int) ([]item.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id > ? ORDER BY id LIMIT ?`,
		afterID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := make([]item.Item, 0, limit)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// Exists reports whether the item is stored.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM items WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check item %s: %w", id, err)
	}
	return n > 0, nil
}

// Update sets the patch fields and updated_at, returning the stored item.
func (s *Store) Update(ctx context.Context, id string, p patch.Patch) (item.Item, error) {
	var (
		sets []string
		args []any
	)
	if v := p.Name(); v != nil {
		sets, args = append(sets, "name = ?"), append(args, *v)
	}
	if v := p.Category(); v != nil {
		sets, args = append(sets, "category = ?"), append(args, v.String())
	}
	if v := p.Year(); v != nil {
		sets, args = append(sets, "year = ?"), append(args, *v)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.now().UTC().UnixMilli(), id)

	row := s.db.QueryRowContext(ctx,
		`UPDATE items SET `+strings.Join(sets, ", ")+` WHERE id = ? RETURNING `+itemColumns,
		args...,
	)
	it, err := scanItem(row)
	if err != nil {
		return item.Item{}, notFound(id, err)
	}
	return it, nil
}

// Delete removes the item.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Count returns the number of items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// Stats summarizes the table: totals per category and the year range.
func (s *Store) Stats(ctx context.Context) (item.Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM items GROUP BY category ORDER BY category`)
	if err != nil {
		return item.Stats{}, fmt.Errorf("query category counts: %w", err)
	}
	defer rows.Close()

	st := item.Stats{ByCategory: make(map[item.Category]int)}
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return item.Stats{}, fmt.Errorf("scan category count: %w", err)
		}
		st.ByCategory[item.Category(category)] = n
		st.Total += n
	}
	if err := rows.Err(); err != nil {
		return item.Stats{}, fmt.Errorf("iterate category counts: %w", err)
	}
	rows.Close()

	err = s.db.QueryRowContext(ctx, `SELECT COALESCE(MIN(year), 0), COALESCE(MAX(year), 0) FROM items`).
		Scan(&st.MinYear, &st.MaxYear)
	if err != nil {
		return item.Stats{}, fmt.Errorf("query year range: %w", err)
	}
	return st, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (item.Item, error) {
	var (
		id, name, category   string
		year                 int
		createdAt, updatedAt int64
	)
	if err := row.Scan(&id, &name, &category, &year, &createdAt, &updatedAt); err != nil {
		return item.Item{}, err
	}
	return item.Reconstruct(id, name, item.Category(category), year,
		time.UnixMilli(createdAt).UTC(), time.UnixMilli(updatedAt).UTC()), nil
}

func notFound(id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return fmt.Errorf("read item %s: %w", id, err)
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	}
	return false
}
