package auth

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateIdentity is returned by Create when (provider, external_id) already exists.
var ErrDuplicateIdentity = errors.New("identity already registered")

// ErrUserNotFound is returned by UpdateLogin when no user has the given id.
var ErrUserNotFound = errors.New("user not found")

// Repository persists users.
type Repository interface {
	// FindByIdentity returns nil, nil when no user matches.
	FindByIdentity(ctx context.Context, provider, externalID string) (*User, error)
	Create(ctx context.Context, user User) (User, error)
	// UpdateLogin returns ErrUserNotFound when id matches no user.
	UpdateLogin(ctx context.Context, id int64, email, name *string, at time.Time) error
}
