// Package postgres is the PostgreSQL primary item store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kailas-cloud/itemdex/internal/domain"
	"github.com/kailas-cloud/itemdex/internal/domain/item"
	"github.com/kailas-cloud/itemdex/internal/domain/item/patch"
)

// uniqueViolation is the SQLSTATE of a unique constraint violation.
const uniqueViolation = "23505"

const itemColumns = "id, name, category, year, created_at, updated_at"

// pool is the subset of pgxpool.Pool used by the store.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Config holds connection parameters.
type Config struct {
	DSN      string
	MaxConns int32
}

// Store keeps items in the "items" table.
type Store struct {
	pool pool
	now  func() time.Time
}

// Open creates a pgx pool. Connections are established lazily; call
// WaitForReady before first use.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}

	p, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	return New(p), nil
}

// New wraps an existing pool.
func New(p pool) *Store {
	return &Store{pool: p, now: time.Now}
}

// Migrate creates the items table if absent.
func (s *Store) Migrate(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS items (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			category   TEXT NOT NULL,
			year       INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS items_category_idx ON items (category)`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("migrate items: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.pool.Ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for postgres: %w", ctx.Err())
		case <-ticker.C:
			if err := s.pool.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Create inserts a new item with a fresh UUID.
func (s *Store) Create(ctx context.Context, f item.Fields) (item.Item, error) {
	id := uuid.NewString()
	now := s.now().UTC().Truncate(time.Microsecond)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO items (`+itemColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, f.Name, f.Category.String(), f.Year, now, now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return item.Item{}, fmt.Errorf("item %s: %w", id, domain.ErrDuplicate)
		}
		return item.Item{}, fmt.Errorf("insert item: %w", err)
	}
	return item.Reconstruct(id, f.Name, f.Category, f.Year, now, now), nil
}

// Get reads one item.
func (s *Store) Get(ctx context.Context, id string) (item.Item, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	it, err := scanItem(row)
	if err != nil {
		return item.Item{}, notFound(id, err)
	}
	return it, nil
}

// FindMany returns up to limit items with id > afterID in id order.
func (s *Store) FindMany(ctx context.Context, afterID string, limit int) ([]item.Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id > $1 ORDER BY id LIMIT $2`,
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
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM items WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check item %s: %w", id, err)
	}
	return ok, nil
}

// Update sets the patch fields and updated_at, returning the stored item.
func (s *Store) Update(ctx context.Context, id string, p patch.Patch) (item.Item, error) {
	sets, args := updateSet(p)
	args = append(args, s.now().UTC().Truncate(time.Microsecond), id)
	n := len(args)
	sets = append(sets, "updated_at = $"+strconv.Itoa(n-1))

	sql := `UPDATE items SET ` + strings.Join(sets, ", ") +
		` WHERE id = $` + strconv.Itoa(n) + ` RETURNING ` + itemColumns
	it, err := scanItem(s.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		return item.Item{}, notFound(id, err)
	}
	return it, nil
}

// Delete removes the item.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Count returns the number of items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// Stats summarizes the table: totals per category and the year range.
func (s *Store) Stats(ctx context.Context) (item.Stats, error) {
	rows, err := s.pool.Query(ctx, `SELECT category, COUNT(*) FROM items GROUP BY category ORDER BY category`)
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

	err = s.pool.QueryRow(ctx, `SELECT COALESCE(MIN(year), 0), COALESCE(MAX(year), 0) FROM items`).
		Scan(&st.MinYear, &st.MaxYear)
	if err != nil {
		return item.Stats{}, fmt.Errorf("query year range: %w", err)
	}
	return st, nil
}

// updateSet renders "col = $n" assignments for the present patch fields.
func updateSet(p patch.Patch) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if v := p.Name(); v != nil {
		add("name", *v)
	}
	if v := p.Category(); v != nil {
		add("category", v.String())
	}
	if v := p.Year(); v != nil {
		add("year", *v)
	}
	return sets, args
}

func scanItem(row pgx.Row) (item.Item, error) {
	var (
		id, name, category   string
		year                 int
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &name, &category, &year, &createdAt, &updatedAt); err != nil {
		return item.Item{}, err
	}
	return item.Reconstruct(id, name, item.Category(category), year, createdAt.UTC(), updatedAt.UTC()), nil
}

func notFound(id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return fmt.Errorf("read item %s: %w", id, err)
}
