package accounts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	insertQ   = `(?s)^INSERT\s+INTO\s+accounts\s*\(first_name,\s*last_name,\s*username,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at\s*$`
	byNameQ   = `(?s)^SELECT\s+id,.*is_admin,\s*created_at\s+FROM\s+accounts\s+WHERE\s+username\s*=\s*\$1\s*$`
	byIDQ     = `(?s)^SELECT\s+id,.*is_admin,\s*created_at\s+FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1\s*$`
	memberQ   = `^UPDATE\s+accounts\s+SET\s+membership_status\s*=\s*TRUE\s+WHERE\s+id\s*=\s*\$1$`
	adminQ    = `^UPDATE\s+accounts\s+SET\s+is_admin\s*=\s*TRUE\s+WHERE\s+id\s*=\s*\$1$`
	accountID = "8c1f7a5e-0d5b-4d6e-9a8e-2f0c6a1b9d11"
)

var accountCols = []string{"id", "first_name", "last_name", "username", "password_hash", "membership_status", "is_admin", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(insertQ).
		WithArgs("Alice", "Liddell", "alice@example.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(accountID, now))

	a := &models.Account{FirstName: "Alice", LastName: "Liddell", UserName: "alice@example.com", PasswordHash: "hash"}
	got, err := repo.Create(context.Background(), a)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != accountID || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected account: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreate_DuplicateUserName(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := repo.Create(context.Background(), &models.Account{UserName: "alice@example.com"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Account{UserName: "alice@example.com"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByUserName_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(accountCols).
		AddRow(accountID, "Alice", "Liddell", "alice@example.com", "hash", true, false, time.Now())
	mock.ExpectQuery(byNameQ).WithArgs("alice@example.com").WillReturnRows(rows)

	got, err := repo.GetByUserName(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByUserName error: %v", err)
	}
	if got.ID != accountID || got.FirstName != "Alice" || !got.IsMember || got.IsAdmin {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestGetByUserName_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byNameQ).WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUserName(context.Background(), "ghost@example.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(accountCols).
		AddRow(accountID, "Alice", "Liddell", "alice@example.com", "hash", false, true, time.Now())
	mock.ExpectQuery(byIDQ).WithArgs(accountID).WillReturnRows(rows)
	mock.ExpectQuery(byIDQ).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByID(context.Background(), accountID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if !got.IsAdmin {
		t.Fatalf("expected admin flag, got %+v", got)
	}

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestSetFlags(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(memberQ).WithArgs(accountID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(adminQ).WithArgs(accountID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(adminQ).WithArgs(accountID).WillReturnError(errors.New("db err"))

	if err := repo.SetMember(context.Background(), accountID); err != nil {
		t.Fatalf("SetMember error: %v", err)
	}
	if err := repo.SetAdmin(context.Background(), accountID); err != nil {
		t.Fatalf("SetAdmin error: %v", err)
	}
	err := repo.SetAdmin(context.Background(), accountID)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}
