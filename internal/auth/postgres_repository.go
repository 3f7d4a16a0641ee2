package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// PostgresRepository implements Repository on the app_user table.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByIdentity looks up a user by provider and external id.
func (r *PostgresRepository) FindByIdentity(ctx context.Context, provider, externalID string) (*User, error) {
	const query = `
		SELECT id, provider, external_id, email, name, created_at, last_login_at
		FROM app_user
		WHERE provider = $1 AND external_id = $2
	`

	var row userRow
	if err := r.db.GetContext(ctx, &row, query, provider, externalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	user := row.toUser()
	return &user, nil
}

// Create inserts user and returns it with the generated id.
func (r *PostgresRepository) Create(ctx context.Context, user User) (User, error) {
	const query = `
		INSERT INTO app_user (provider, external_id, email, name, created_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id
	`

	err := r.db.QueryRowxContext(ctx, query,
		user.Provider,
		user.ExternalID,
		user.Email,
		user.Name,
		user.LastLoginAt,
	).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return User{}, ErrDuplicateIdentity
		}
		return User{}, err
	}

	user.CreatedAt = user.LastLoginAt
	return user, nil
}

// UpdateLogin overwrites email and name and stamps the login time.
func (r *PostgresRepository) UpdateLogin(ctx context.Context, id int64, email, name *string, at time.Time) error {
	const query = `
		UPDATE app_user
		SET email = $2, name = $3, last_login_at = $4
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, email, name, at)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

type userRow struct {
	ID          int64     `db:"id"`
	Provider    string    `db:"provider"`
	ExternalID  string    `db:"external_id"`
	Email       *string   `db:"email"`
	Name        *string   `db:"name"`
	CreatedAt   time.Time `db:"created_at"`
	LastLoginAt time.Time `db:"last_login_at"`
}

func (r userRow) toUser() User {
	return User{
		ID:          r.ID,
		Provider:    r.Provider,
		ExternalID:  r.ExternalID,
		Email:       r.Email,
		Name:        r.Name,
		CreatedAt:   r.CreatedAt,
		LastLoginAt: r.LastLoginAt,
	}
}
