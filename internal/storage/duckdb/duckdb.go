// Package duckdb implements the analytical sink on an embedded DuckDB
// database via database/sql.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// DB wraps *sql.DB for dependency injection.
type DB struct {
	*sql.DB
}

// Open opens (or creates) a DuckDB database at path. An empty path opens an
// in-memory database.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	// Verify connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	return &DB{DB: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.DB.Close()
}
