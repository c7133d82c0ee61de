package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/labtrack/internal/order"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectOrderColumns = `
	id, external_ref, patient_ref, customer_id, customer_name, channel, status, urgency,
	items, history, attachments, created_at, due_date, container_ref, container_color,
	current_sector, total_value, notes, internal_notes, updated_at
`

func scanOrder(s scanner) (*order.Order, error) {
	var (
		o                           order.Order
		channel, status, urgency    string
		items, history, attachments []byte
	)

	if err := s.Scan(
		&o.ID, &o.ExternalRef, &o.PatientRef, &o.CustomerID, &o.CustomerName, &channel, &status, &urgency,
		&items, &history, &attachments, &o.CreatedAt, &o.DueDate, &o.ContainerRef, &o.ContainerColor,
		&o.CurrentSector, &o.TotalValue, &o.Notes, &o.InternalNotes, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}

	o.Channel = order.Channel(channel)
	o.Status = order.Status(status)
	o.Urgency = order.Urgency(urgency)

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decoding items of %s: %w", o.ID, err)
	}

	if err := json.Unmarshal(history, &o.History); err != nil {
		return nil, fmt.Errorf("decoding history of %s: %w", o.ID, err)
	}

	if err := json.Unmarshal(attachments, &o.Attachments); err != nil {
		return nil, fmt.Errorf("decoding attachments of %s: %w", o.ID, err)
	}

	return &o, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	query := `SELECT ` + selectOrderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrNotFound
		}

		return nil, fmt.Errorf("getting order: %w", err)
	}

	return o, nil
}

// FindByCode accepts either the order UUID or its external reference. When several
// orders share a reference the most recent one wins.
func (s *Store) FindByCode(ctx context.Context, code string) (*order.Order, error) {
	if id, err := uuid.Parse(code); err == nil {
		return s.Get(ctx, id)
	}

	query := `SELECT ` + selectOrderColumns + ` FROM orders WHERE external_ref = $1 ORDER BY created_at DESC LIMIT 1`

	o, err := scanOrder(s.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrNotFound
		}

		return nil, fmt.Errorf("finding order by code: %w", err)
	}

	return o, nil
}

// buildFindQuery translates a filter into SQL with positional arguments.
func buildFindQuery(filter order.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}

		conds = append(conds, "status = ANY("+arg(statuses)+")")
	}

	if filter.Sector != "" {
		conds = append(conds, "current_sector = "+arg(filter.Sector))
	}

	if filter.CustomerID != "" {
		conds = append(conds, "customer_id = "+arg(filter.CustomerID))
	}

	if filter.DueBefore != nil {
		conds = append(conds, "due_date < "+arg(*filter.DueBefore))
	}

	query := `SELECT ` + selectOrderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY created_at DESC"

	return query, args
}

func (s *Store) Find(ctx context.Context, filter order.Filter) ([]*order.Order, error) {
	query, args := buildFindQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.Order

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}

	return orders, nil
}

// Persist writes the full snapshot. Last write wins.
func (s *Store) Persist(ctx context.Context, o *order.Order) error {
	items, err := json.Marshal(nonNil(o.Items))
	if err != nil {
		return fmt.Errorf("encoding items: %w", err)
	}

	history, err := json.Marshal(nonNil(o.History))
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	attachments, err := json.Marshal(nonNil(o.Attachments))
	if err != nil {
		return fmt.Errorf("encoding attachments: %w", err)
	}

	query := `
		INSERT INTO orders (
			id, external_ref, patient_ref, customer_id, customer_name, channel, status, urgency,
			items, history, attachments, created_at, due_date, container_ref, container_color,
			current_sector, total_value, notes, internal_notes, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW())
		ON CONFLICT (id) DO UPDATE SET
			external_ref = EXCLUDED.external_ref,
			patient_ref = EXCLUDED.patient_ref,
			customer_id = EXCLUDED.customer_id,
			customer_name = EXCLUDED.customer_name,
			channel = EXCLUDED.channel,
			status = EXCLUDED.status,
			urgency = EXCLUDED.urgency,
			items = EXCLUDED.items,
			history = EXCLUDED.history,
			attachments = EXCLUDED.attachments,
			due_date = EXCLUDED.due_date,
			container_ref = EXCLUDED.container_ref,
			container_color = EXCLUDED.container_color,
			current_sector = EXCLUDED.current_sector,
			total_value = EXCLUDED.total_value,
			notes = EXCLUDED.notes,
			internal_notes = EXCLUDED.internal_notes,
			updated_at = NOW()
	`

	_, err = s.db.ExecContext(ctx, query,
		o.ID, o.ExternalRef, o.PatientRef, o.CustomerID, o.CustomerName, o.Channel, o.Status, o.Urgency,
		items, history, attachments, o.CreatedAt, o.DueDate, o.ContainerRef, o.ContainerColor,
		o.CurrentSector, o.TotalValue, o.Notes, o.InternalNotes,
	)
	if err != nil {
		return fmt.Errorf("persisting order %s: %w", o.ID, err)
	}

	return nil
}

func nonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}

	return s
}
