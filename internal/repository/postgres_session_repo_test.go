package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hitoshi/playdex/internal/model"
)

// Recordが追記したセッションのIDを反映することを検証
func TestSessionRepo_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sessions")).
		WithArgs("server-1", "player-1", int64(0), int64(100), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	repo := NewPostgresSessionRepo(db)

	s := &model.Session{
		ServerID: "server-1",
		PlayerID: "player-1",
		Start:    0,
		End:      100,
		AFKMs:    10,
	}
	if err := repo.Record(context.Background(), s); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if s.ID != 42 {
		t.Errorf("s.ID = %d, want 42", s.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// Recordがストアエラーをラップして返すことを検証
func TestSessionRepo_Record_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	constraintErr := errors.New("violates check constraint")
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sessions")).
		WillReturnError(constraintErr)

	repo := NewPostgresSessionRepo(db)

	err = repo.Record(context.Background(), &model.Session{
		ServerID: "server-1",
		PlayerID: "player-1",
		Start:    100,
		End:      50, // end < start
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, constraintErr) {
		t.Errorf("error should wrap the store error, got: %v", err)
	}
}

// DeleteEndedBeforeが削除件数を返すことを検証
func TestSessionRepo_DeleteEndedBefore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE session_end < $1")).
		WithArgs(int64(1600000000000)).
		WillReturnResult(sqlmock.NewResult(0, 7))

	repo := NewPostgresSessionRepo(db)

	deleted, err := repo.DeleteEndedBefore(context.Background(), 1600000000000)
	if err != nil {
		t.Fatalf("DeleteEndedBefore() error = %v", err)
	}
	if deleted != 7 {
		t.Errorf("deleted = %d, want 7", deleted)
	}
}
