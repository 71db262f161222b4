package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SyncRun is one row of the sync_logs table: a single network data sync,
// running or finished.
type SyncRun struct {
	ID          string
	NetworkID   string
	Status      string // running, completed, failed
	StartedAt   time.Time
	CompletedAt *time.Time
	RecordCount int64
	Error       string
}

// SyncLogRepo provides access to the sync_logs table.
type SyncLogRepo struct{ db *sql.DB }

// NewSyncLogRepo creates a Postgres-backed sync log repository.
func NewSyncLogRepo(db *sql.DB) *SyncLogRepo { return &SyncLogRepo{db: db} }

// Start records the beginning of a sync run and returns its id.
func (r *SyncLogRepo) Start(ctx context.Context, networkID string) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_logs (id, network_id, status, started_at, record_count)
		VALUES ($1, $2, 'running', NOW(), 0)
	`, id, networkID)
	if err != nil {
		return "", fmt.Errorf("start sync run: %w", err)
	}
	return id, nil
}

// Complete marks a sync run finished with its record count.
func (r *SyncLogRepo) Complete(ctx context.Context, id string, records int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sync_logs
		SET status = 'completed', completed_at = NOW(), record_count = $2
		WHERE id = $1
	`, id, records)
	if err != nil {
		return fmt.Errorf("complete sync run: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Fail marks a sync run failed with its error message.
func (r *SyncLogRepo) Fail(ctx context.Context, id, message string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sync_logs
		SET status = 'failed', completed_at = NOW(), error = $2
		WHERE id = $1
	`, id, message)
	if err != nil {
		return fmt.Errorf("fail sync run: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Recent returns the most recent sync runs, newest first.
func (r *SyncLogRepo) Recent(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, network_id, status, started_at, completed_at, record_count, COALESCE(error, '')
		FROM sync_logs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent sync runs: %w", err)
	}
	defer rows.Close()

	var out []SyncRun
	for rows.Next() {
		var s SyncRun
		if err := rows.Scan(&s.ID, &s.NetworkID, &s.Status, &s.StartedAt, &s.CompletedAt, &s.RecordCount, &s.Error); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent sync runs: %w", err)
	}
	return out, nil
}

// ActiveCount returns the number of currently running syncs.
func (r *SyncLogRepo) ActiveCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sync_logs WHERE status = 'running'
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("active sync count: %w", err)
	}
	return n, nil
}

// LastCompleted returns the completion time of the most recent successful
// sync, or nil when none exists.
func (r *SyncLogRepo) LastCompleted(ctx context.Context) (*time.Time, error) {
	var t time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT completed_at FROM sync_logs
		WHERE status = 'completed'
		ORDER BY completed_at DESC
		LIMIT 1
	`).Scan(&t)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last completed sync: %w", err)
	}
	return &t, nil
}
