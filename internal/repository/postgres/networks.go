// Package postgres implements the relational store for the dashboard's
// network registry and sync log.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// Network is a registered advertising network.
type Network struct {
	ID        string
	Name      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NetworkRepo provides access to the networks table.
type NetworkRepo struct{ db *sql.DB }

// NewNetworkRepo creates a Postgres-backed network repository.
func NewNetworkRepo(db *sql.DB) *NetworkRepo { return &NetworkRepo{db: db} }

// List returns all networks ordered by name.
func (r *NetworkRepo) List(ctx context.Context) ([]Network, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, status, created_at, updated_at
		FROM networks
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list networks: %w", err)
	}
	defer rows.Close()

	var out []Network
	for rows.Next() {
		var n Network
		if err := rows.Scan(&n.ID, &n.Name, &n.Status, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan network: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list networks: %w", err)
	}
	return out, nil
}

// Get returns one network by id.
func (r *NetworkRepo) Get(ctx context.Context, id string) (*Network, error) {
	n := &Network{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, status, created_at, updated_at
		FROM networks
		WHERE id = $1
	`, id).Scan(&n.ID, &n.Name, &n.Status, &n.CreatedAt, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get network: %w", err)
	}
	return n, nil
}

// Upsert inserts or updates a network by id.
func (r *NetworkRepo) Upsert(ctx context.Context, n Network) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO networks (id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, status = EXCLUDED.status, updated_at = NOW()
	`, n.ID, n.Name, n.Status)
	if err != nil {
		return fmt.Errorf("upsert network: %w", err)
	}
	return nil
}

// SetStatus updates just the status column.
func (r *NetworkRepo) SetStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE networks SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("set network status: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}
