package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/dbx"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

// badID reports whether Postgres refused the id argument itself, as it
// does for a string that is not a UUID. Such an id names no user.
func badID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query := `
		INSERT INTO users (id, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, user.ID, user.UserName, user.PasswordHash, user.Role.String()).
		Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const selectUser = `
		SELECT id, username, password_hash, role, refresh_token_hash, refresh_token_expires_at, created_at
		FROM users
	`

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	return r.getOne(ctx, selectUser+`WHERE username = $1`, login)
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectUser+`WHERE id = $1`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	var (
		user        models.User
		role        string
		refreshHash sql.NullString
		refreshExp  sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.UserName, &user.PasswordHash, &role, &refreshHash, &refreshExp, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || badID(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Role, err = models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("db error: user %s: %w", user.ID, err)
	}
	if refreshHash.Valid {
		user.RefreshTokenHash = refreshHash.String
	}
	if refreshExp.Valid {
		user.RefreshTokenExpiresAt = refreshExp.Time
	}

	return &user, nil
}

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET refresh_token_hash = $2, refresh_token_expires_at = $3
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, userID, tokenHash, expiresAt)
	if badID(err) {
		return common.ErrorNotFound
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// SwapRefreshToken relies on row-level locking of a single conditional
// UPDATE: of two concurrent swaps from the same oldHash, the second
// re-evaluates its WHERE clause after the first commits and matches nothing.
func (r *PostgresRepository) SwapRefreshToken(ctx context.Context, userID, oldHash, newHash string, newExpiresAt, now time.Time) (bool, error) {
	query := `
		UPDATE users
		SET refresh_token_hash = $3, refresh_token_expires_at = $4
		WHERE id = $1 AND refresh_token_hash = $2 AND refresh_token_expires_at > $5
	`
	res, err := r.db.ExecContext(ctx, query, userID, oldHash, newHash, newExpiresAt, now)
	if badID(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET refresh_token_hash = NULL, refresh_token_expires_at = NULL
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil && !badID(err) {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
