package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSyncLogLifecycle(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO sync_logs").
		WithArgs(sqlmock.AnyArg(), "aff1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE sync_logs").
		WithArgs(sqlmock.AnyArg(), int64(1200)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSyncLogRepo(db)
	ctx := context.Background()

	id, err := repo.Start(ctx, "aff1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if id == "" {
		t.Fatal("Start returned empty id")
	}
	if err := repo.Complete(ctx, id, 1200); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSyncLogFailUnknownRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE sync_logs").
		WithArgs("ghost", "timeout").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewSyncLogRepo(db)
	if err := repo.Fail(context.Background(), "ghost", "timeout"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSyncLogRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	started := time.Now().Add(-time.Hour)
	completed := time.Now()
	mock.ExpectQuery("SELECT id, network_id, status").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "network_id", "status", "started_at", "completed_at", "record_count", "error"}).
			AddRow("s2", "aff1", "running", completed, nil, int64(0), "").
			AddRow("s1", "aff1", "completed", started, completed, int64(900), ""))

	repo := NewSyncLogRepo(db)
	runs, err := repo.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len = %d, want 2", len(runs))
	}
	if runs[0].CompletedAt != nil {
		t.Error("running sync must have nil completed_at")
	}
	if runs[1].RecordCount != 900 {
		t.Errorf("record count = %d, want 900", runs[1].RecordCount)
	}
}

func TestSyncLogActiveCountAndLastCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	last := time.Now().Add(-30 * time.Minute)
	mock.ExpectQuery("SELECT completed_at FROM sync_logs").
		WillReturnRows(sqlmock.NewRows([]string{"completed_at"}).AddRow(last))

	repo := NewSyncLogRepo(db)
	ctx := context.Background()

	n, err := repo.ActiveCount(ctx)
	if err != nil {
		t.Fatalf("ActiveCount: %v", err)
	}
	if n != 2 {
		t.Errorf("active = %d, want 2", n)
	}

	got, err := repo.LastCompleted(ctx)
	if err != nil {
		t.Fatalf("LastCompleted: %v", err)
	}
	if got == nil || !got.Equal(last) {
		t.Errorf("last completed = %v, want %v", got, last)
	}
}
