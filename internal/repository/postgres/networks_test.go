package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestNetworkRepoList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT id, name, status, created_at, updated_at").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status", "created_at", "updated_at"}).
			AddRow("aff1", "Affluent", "active", now, now).
			AddRow("cly", "Clickly", "paused", now, now))

	repo := NewNetworkRepo(db)
	networks, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(networks) != 2 {
		t.Fatalf("len = %d, want 2", len(networks))
	}
	if networks[0].ID != "aff1" || networks[0].Status != "active" {
		t.Errorf("first = %+v", networks[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestNetworkRepoGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, status").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status", "created_at", "updated_at"}))

	repo := NewNetworkRepo(db)
	if _, err := repo.Get(context.Background(), "ghost"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestNetworkRepoUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO networks").
		WithArgs("aff1", "Affluent", "active").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewNetworkRepo(db)
	if err := repo.Upsert(context.Background(), Network{ID: "aff1", Name: "Affluent", Status: "active"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestNetworkRepoSetStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE networks SET status").
		WithArgs("ghost", "paused").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewNetworkRepo(db)
	if err := repo.SetStatus(context.Background(), "ghost", "paused"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
