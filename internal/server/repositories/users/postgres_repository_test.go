package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	qInsert     = `(?s)^\s*INSERT\s+INTO\s+users\s*\(id,\s*username,\s*password_hash,\s*role\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+created_at\s*$`
	qByLogin    = `(?s)^\s*SELECT\s+id,\s*username,\s*password_hash,\s*role,\s*refresh_token_hash,\s*refresh_token_expires_at,\s*created_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`
	qByID       = `(?s)^\s*SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	qSetRefresh = `(?s)^\s*UPDATE\s+users\s+SET\s+refresh_token_hash\s*=\s*\$2,\s*refresh_token_expires_at\s*=\s*\$3\s+WHERE\s+id\s*=\s*\$1\s*$`
	qSwap       = `(?s)^\s*UPDATE\s+users\s+SET\s+refresh_token_hash\s*=\s*\$3,\s*refresh_token_expires_at\s*=\s*\$4\s+WHERE\s+id\s*=\s*\$1\s+AND\s+refresh_token_hash\s*=\s*\$2\s+AND\s+refresh_token_expires_at\s*>\s*\$5\s*$`
	qClear      = `(?s)^\s*UPDATE\s+users\s+SET\s+refresh_token_hash\s*=\s*NULL,\s*refresh_token_expires_at\s*=\s*NULL\s+WHERE\s+id\s*=\s*\$1\s*$`
)

var userColumns = []string{"id", "username", "password_hash", "role", "refresh_token_hash", "refresh_token_expires_at", "created_at"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(qInsert).
		WithArgs("u-1", "alice", "$argon2id$hash", "User").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	u := &models.User{ID: "u-1", UserName: "alice", PasswordHash: "$argon2id$hash", Role: models.RoleUser}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_GeneratesID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qInsert).
		WithArgs(sqlmock.AnyArg(), "bob", "h", "Admin").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	got, err := repo.Create(context.Background(), &models.User{UserName: "bob", PasswordHash: "h", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if len(got.ID) != 36 {
		t.Fatalf("expected uuid id, got %q", got.ID)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qInsert).
		WillReturnError(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}))

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice", PasswordHash: "h", Role: models.RoleUser})
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want common.ErrorConflict, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qInsert).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice", PasswordHash: "h", Role: models.RoleUser})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	if errors.Is(err, common.ErrorConflict) {
		t.Fatalf("generic db failure must not look like a conflict")
	}
}

func TestGetUserByLogin_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Hour).UTC()
	mock.ExpectQuery(qByLogin).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "alice", "h", "SuperAdmin", "abc", exp, time.Now()))

	got, err := repo.GetUserByLogin(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUserByLogin error: %v", err)
	}
	if got.ID != "u-1" || got.Role != models.RoleSuperAdmin || got.RefreshTokenHash != "abc" || !got.RefreshTokenExpiresAt.Equal(exp) {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetUserByLogin_NullRefreshColumns(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qByLogin).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "alice", "h", "User", nil, nil, time.Now()))

	got, err := repo.GetUserByLogin(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUserByLogin error: %v", err)
	}
	if got.HasRefreshToken() || !got.RefreshTokenExpiresAt.IsZero() {
		t.Fatalf("expected no refresh token, got %+v", got)
	}
}

func TestGetUserByLogin_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qByLogin).WithArgs("nobody").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByLogin(context.Background(), "nobody")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetUserByID_UnknownRole(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qByID).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "alice", "h", "root", nil, nil, time.Now()))

	_, err := repo.GetUserByID(context.Background(), "u-1")
	if err == nil || !regexp.MustCompile(`unknown role`).MatchString(err.Error()) {
		t.Fatalf("expected unknown role error, got %v", err)
	}
}

func TestGetUserByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qByID).WithArgs("u-1").WillReturnError(errors.New("conn reset"))

	_, err := repo.GetUserByID(context.Background(), "u-1")
	if err == nil || errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestSetRefreshToken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Hour)
	mock.ExpectExec(qSetRefresh).
		WithArgs("u-1", "hash", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qSetRefresh).
		WithArgs("ghost", "hash", exp).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SetRefreshToken(context.Background(), "u-1", "hash", exp); err != nil {
		t.Fatalf("SetRefreshToken error: %v", err)
	}
	if err := repo.SetRefreshToken(context.Background(), "ghost", "hash", exp); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSwapRefreshToken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	exp := now.Add(time.Hour)

	mock.ExpectExec(qSwap).
		WithArgs("u-1", "old", "new", exp, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qSwap).
		WithArgs("u-1", "old", "newer", exp, now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(qSwap).
		WillReturnError(errors.New("db err"))

	ok, err := repo.SwapRefreshToken(context.Background(), "u-1", "old", "new", exp, now)
	if err != nil || !ok {
		t.Fatalf("first swap: ok=%v err=%v", ok, err)
	}

	ok, err = repo.SwapRefreshToken(context.Background(), "u-1", "old", "newer", exp, now)
	if err != nil || ok {
		t.Fatalf("stale swap must not apply: ok=%v err=%v", ok, err)
	}

	_, err = repo.SwapRefreshToken(context.Background(), "u-1", "old", "x", exp, now)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestClearRefreshToken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(qClear).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qClear).WithArgs("u-1").WillReturnError(errors.New("db err"))

	if err := repo.ClearRefreshToken(context.Background(), "u-1"); err != nil {
		t.Fatalf("ClearRefreshToken error: %v", err)
	}
	if err := repo.ClearRefreshToken(context.Background(), "u-1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestMalformedUserID_NamesNoUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	malformed := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "nobody"`}
	now := time.Now()
	exp := now.Add(time.Hour)

	mock.ExpectQuery(qByID).WithArgs("nobody").WillReturnError(malformed)
	mock.ExpectExec(qSetRefresh).WithArgs("nobody", "hash", exp).WillReturnError(malformed)
	mock.ExpectExec(qSwap).WithArgs("nobody", "old", "new", exp, now).WillReturnError(malformed)
	mock.ExpectExec(qClear).WithArgs("nobody").WillReturnError(malformed)

	ctx := context.Background()
	if _, err := repo.GetUserByID(ctx, "nobody"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("GetUserByID: want common.ErrorNotFound, got %v", err)
	}
	if err := repo.SetRefreshToken(ctx, "nobody", "hash", exp); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("SetRefreshToken: want common.ErrorNotFound, got %v", err)
	}
	ok, err := repo.SwapRefreshToken(ctx, "nobody", "old", "new", exp, now)
	if err != nil || ok {
		t.Fatalf("SwapRefreshToken: ok=%v err=%v", ok, err)
	}
	if err := repo.ClearRefreshToken(ctx, "nobody"); err != nil {
		t.Fatalf("ClearRefreshToken error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
