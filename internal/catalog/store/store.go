package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/labtrack/internal/catalog"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// Expected column order: id, name, category, base_price, groups
func scanEntry(s scanner) (*catalog.Entry, error) {
	var (
		e      catalog.Entry
		groups []byte
	)

	if err := s.Scan(&e.ID, &e.Name, &e.Category, &e.BasePrice, &groups); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(groups, &e.Groups); err != nil {
		return nil, fmt.Errorf("decoding groups of %s: %w", e.ID, err)
	}

	return &e, nil
}

func (s *Store) GetEntry(ctx context.Context, id string) (*catalog.Entry, error) {
	query := `SELECT id, name, category, base_price, groups FROM catalog_entries WHERE id = $1`

	e, err := scanEntry(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}

		return nil, fmt.Errorf("getting catalog entry: %w", err)
	}

	return e, nil
}

func (s *Store) ListEntries(ctx context.Context) ([]*catalog.Entry, error) {
	query := `SELECT id, name, category, base_price, groups FROM catalog_entries ORDER BY category, name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []*catalog.Entry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning catalog entry: %w", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog rows: %w", err)
	}

	return entries, nil
}

// UpsertEntries writes all entries in one database transaction.
func (s *Store) UpsertEntries(ctx context.Context, entries []*catalog.Entry) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		INSERT INTO catalog_entries (id, name, category, base_price, groups, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			base_price = EXCLUDED.base_price,
			groups = EXCLUDED.groups,
			updated_at = NOW()
	`

	for _, e := range entries {
		groups := e.Groups
		if groups == nil {
			groups = []catalog.Group{}
		}

		raw, err := json.Marshal(groups)
		if err != nil {
			return fmt.Errorf("encoding groups of %s: %w", e.ID, err)
		}

		if _, err := dbTx.ExecContext(ctx, query, e.ID, e.Name, e.Category, e.BasePrice, raw); err != nil {
			return fmt.Errorf("upserting catalog entry %s: %w", e.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
