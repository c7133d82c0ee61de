package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// schema is applied on startup. Items and history are stored as JSONB documents on the
// order row because every mutation is a full snapshot write.
const schema = `
CREATE TABLE IF NOT EXISTS catalog_entries (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	base_price  BIGINT NOT NULL,
	groups      JSONB NOT NULL DEFAULT '[]',
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS orders (
	id              UUID PRIMARY KEY,
	external_ref    TEXT NOT NULL DEFAULT '',
	patient_ref     TEXT NOT NULL DEFAULT '',
	customer_id     TEXT NOT NULL DEFAULT '',
	customer_name   TEXT NOT NULL DEFAULT '',
	channel         TEXT NOT NULL DEFAULT 'front_desk',
	status          TEXT NOT NULL,
	urgency         TEXT NOT NULL,
	items           JSONB NOT NULL,
	history         JSONB NOT NULL,
	attachments     JSONB NOT NULL DEFAULT '[]',
	created_at      TIMESTAMPTZ NOT NULL,
	due_date        TIMESTAMPTZ NOT NULL,
	container_ref   TEXT NOT NULL DEFAULT '',
	container_color TEXT NOT NULL DEFAULT '',
	current_sector  TEXT NOT NULL DEFAULT '',
	total_value     BIGINT NOT NULL,
	notes           TEXT NOT NULL DEFAULT '',
	internal_notes  TEXT NOT NULL DEFAULT '',
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS orders_external_ref_idx ON orders (external_ref);
CREATE INDEX IF NOT EXISTS orders_status_idx ON orders (status);
CREATE INDEX IF NOT EXISTS orders_current_sector_idx ON orders (current_sector);
`

func New(connStr string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// Migrate creates the tables the stores expect.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}

	return nil
}
