package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Tables holds prefixed table names.
type Tables struct {
	Documents string
	Versions  string
}

// NewTables creates table names with the given prefix.
func NewTables(prefix string) Tables {
	return Tables{
		Documents: prefix + "documents",
		Versions:  prefix + "document_versions",
	}
}

// Schema returns the DDL statements for the given tables. The embedding
// column has no fixed dimension so the embedding model can change.
func Schema(t Tables) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id              TEXT PRIMARY KEY,
			title           TEXT NOT NULL,
			content         TEXT NOT NULL,
			tags            TEXT[] NOT NULL DEFAULT '{}',
			summary         TEXT NOT NULL DEFAULT '',
			embedding       vector,
			author_id       TEXT NOT NULL,
			author_name     TEXT NOT NULL DEFAULT '',
			author_email    TEXT NOT NULL DEFAULT '',
			current_version INTEGER NOT NULL,
			revision        INTEGER NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL,
			updated_at      TIMESTAMPTZ NOT NULL
		)`, t.Documents),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_updated_at_idx ON %[1]s (updated_at DESC)`, t.Documents),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_tags_idx ON %[1]s USING GIN (tags)`, t.Documents),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			document_id    TEXT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
			version_number INTEGER NOT NULL,
			title          TEXT NOT NULL,
			content        TEXT NOT NULL,
			tags           TEXT[] NOT NULL DEFAULT '{}',
			summary        TEXT NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (document_id, version_number)
		)`, t.Versions, t.Documents),
	}
}

// Migrate applies the schema idempotently inside a single transaction.
func Migrate(ctx context.Context, pool *pgxpool.Pool, t Tables) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range Schema(t) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
