// Package library is an optional Postgres catalog of analyzed documents
// and their chunks. The pipeline never requires it; the CLI wires it in
// when a DSN is configured so repeated runs can list and reuse prior
// analyses.
package library

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps the catalog connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the catalog database and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse catalog dsn: %w", err)
	}
	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create catalog pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL DEFAULT '',
    path       TEXT NOT NULL,
    page_count INTEGER NOT NULL,
    added_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS chunks (
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    order_index INTEGER NOT NULL,
    page_index  INTEGER NOT NULL,
    text        TEXT NOT NULL,
    boxes       JSONB NOT NULL DEFAULT '[]',
    start_ms    BIGINT,
    end_ms      BIGINT,
    voice       TEXT NOT NULL DEFAULT '',
    speed       DOUBLE PRECISION NOT NULL DEFAULT 1.0,
    PRIMARY KEY (document_id, order_index)
);
`

// Migrate creates the catalog tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}
	return nil
}
