package postgres

import (
	"context"
	"fmt"
)

// schema is the full database schema. Statements are idempotent so
// EnsureSchema can run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS licenses (
	id UUID PRIMARY KEY,
	holder TEXT NOT NULL,
	tier TEXT NOT NULL,
	issued_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	project_limit INT NOT NULL,
	features TEXT[] NOT NULL DEFAULT '{}',
	revoked BOOLEAN NOT NULL DEFAULT FALSE,
	revoked_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_licenses_holder ON licenses (holder, issued_at DESC);

CREATE TABLE IF NOT EXISTS trials (
	holder TEXT PRIMARY KEY,
	started_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS usage_counters (
	holder TEXT NOT NULL,
	metric TEXT NOT NULL,
	count INT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (holder, metric)
);

CREATE TABLE IF NOT EXISTS admins (
	id UUID PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS admin_sessions (
	token_hash TEXT PRIMARY KEY,
	admin_id UUID NOT NULL REFERENCES admins(id) ON DELETE CASCADE,
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
