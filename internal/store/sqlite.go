// SPDX-License-Identifier: AGPL-3.0-only
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hli-yohan-lee/dev-mcp/internal/singleton"

	_ "modernc.org/sqlite"
)

// Record is one row keyed by column name.
type Record map[string]interface{}

// SQLiteStore serves the users and guides tables from a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// busy_timeout is per connection, so it goes in the DSN.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Seed inserts the initial users and guides when their tables are empty.
// A file lock next to the database keeps concurrent first starts from
// seeding twice.
func (s *SQLiteStore) Seed(ctx context.Context) error {
	lock, err := singleton.Acquire(ctx, s.path)
	if err != nil {
		return fmt.Errorf("lock database for seeding: %w", err)
	}
	defer func() { _ = lock.Release() }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, seed := range seeds {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+seed.table).Scan(&count); err != nil {
			return fmt.Errorf("count %s: %w", seed.table, err)
		}
		if count > 0 {
			continue
		}
		for _, row := range seed.rows {
			if _, err := tx.ExecContext(ctx, seed.insert, row...); err != nil {
				return fmt.Errorf("seed %s: %w", seed.table, err)
			}
		}
	}
	return tx.Commit()
}

// Query returns rows of table matching all equality filters, ordered by id.
func (s *SQLiteStore) Query(ctx context.Context, table string, filters map[string]interface{}) ([]Record, error) {
	q, err := buildQuery(table, filters)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, q.sql, q.args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		values := make([]interface{}, len(q.columns))
		ptrs := make([]interface{}, len(q.columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		rec := make(Record, len(q.columns))
		for i, col := range q.columns {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
			} else {
				rec[col] = values[i]
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", table, err)
	}
	return records, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
