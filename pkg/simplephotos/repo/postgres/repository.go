// Package postgres implements the user repository on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-photos/pkg/simplephotos"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements simplephotos.UserRepository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) simplephotos.UserRepository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) simplephotos.UserRepository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return simplephotos.ErrNicknameTaken
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return simplephotos.ErrUserNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const userColumns = `
	cognito_id, nickname, nickname_normalized,
	thumbnail_url, standard_s3_key, high_res_s3_key, image_url,
	created_at, updated_at`

func (r *Repository) scanUser(row pgx.Row) (*simplephotos.User, error) {
	var u simplephotos.User
	err := row.Scan(
		&u.CognitoID, &u.Nickname, &u.NicknameNormalized,
		&u.ThumbnailURL, &u.StandardKey, &u.HighResKey, &u.LegacyImageURL,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) Get(ctx context.Context, cognitoID string) (*simplephotos.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE cognito_id = $1`

	user, err := r.scanUser(r.db.QueryRow(ctx, query, cognitoID))
	if err != nil {
		return nil, r.handlePostgresError("Get", err)
	}
	return user, nil
}

func (r *Repository) Save(ctx context.Context, user *simplephotos.User) error {
	query := `
		INSERT INTO users (
			cognito_id, nickname, nickname_normalized,
			thumbnail_url, standard_s3_key, high_res_s3_key, image_url,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (cognito_id) DO UPDATE SET
			nickname = EXCLUDED.nickname,
			nickname_normalized = EXCLUDED.nickname_normalized,
			thumbnail_url = EXCLUDED.thumbnail_url,
			standard_s3_key = EXCLUDED.standard_s3_key,
			high_res_s3_key = EXCLUDED.high_res_s3_key,
			image_url = EXCLUDED.image_url,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		user.CognitoID, user.Nickname, user.NicknameNormalized,
		user.ThumbnailURL, user.StandardKey, user.HighResKey, user.LegacyImageURL,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return r.handlePostgresError("Save", err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, cognitoID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE cognito_id = $1`, cognitoID)
	if err != nil {
		return r.handlePostgresError("Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return simplephotos.ErrUserNotFound
	}
	return nil
}

func (r *Repository) FindByNickname(ctx context.Context, nickname string) (*simplephotos.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE nickname_normalized = $1`

	user, err := r.scanUser(r.db.QueryRow(ctx, query, nickname))
	if err != nil {
		return nil, r.handlePostgresError("FindByNickname", err)
	}
	return user, nil
}
