package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"

	"chatbot-studio/internal/domain"
)

// Connect returns a live *pgxpool.Pool or an error within 5 seconds.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return pgxpool.Connect(ctx, dsn)
}

// EnsureSchema creates the tables on first boot. Histories are stored as
// JSONB blobs: every mutation rewrites the whole aggregate, so a row is
// always internally consistent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS chatbots (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    context_text    TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    knowledge_scope TEXT NOT NULL,
    source_type     TEXT NOT NULL DEFAULT '',
    summary         TEXT NOT NULL DEFAULT '',
    persona         TEXT NOT NULL DEFAULT '',
    sample_queries  JSONB NOT NULL DEFAULT '[]'::jsonb,
    history         JSONB NOT NULL DEFAULT '[]'::jsonb
);
CREATE TABLE IF NOT EXISTS general_sessions (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    personality TEXT NOT NULL,
    messages    JSONB NOT NULL DEFAULT '[]'::jsonb
);`
	_, err := pool.Exec(ctx, ddl)
	return err
}

// asDomainErr maps driver errors onto the domain taxonomy.
func asDomainErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrAlreadyExists
	}
	return err
}
