package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service provides the login upsert.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new auth Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Upsert records a login for identity. An existing user gets email and name
// overwritten; otherwise a user is created. A concurrent first login that wins
// the insert turns this call into an update.
func (s *Service) Upsert(ctx context.Context, provider string, identity Identity) (User, error) {
	now := s.now()

	existing, err := s.repo.FindByIdentity(ctx, provider, identity.ExternalID)
	if err != nil {
		return User{}, fmt.Errorf("find user: %w", err)
	}
	if existing != nil {
		return s.refresh(ctx, *existing, identity, now)
	}

	created, err := s.repo.Create(ctx, User{
		Provider:    provider,
		ExternalID:  identity.ExternalID,
		Email:       identity.Email,
		Name:        identity.Name,
		LastLoginAt: now,
	})
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, ErrDuplicateIdentity) {
		return User{}, fmt.Errorf("create user: %w", err)
	}

	existing, err = s.repo.FindByIdentity(ctx, provider, identity.ExternalID)
	if err != nil {
		return User{}, fmt.Errorf("find user after conflict: %w", err)
	}
	if existing == nil {
		return User{}, fmt.Errorf("create user: %w", ErrDuplicateIdentity)
	}
	return s.refresh(ctx, *existing, identity, now)
}

func (s *Service) refresh(ctx context.Context, user User, identity Identity, now time.Time) (User, error) {
	if err := s.repo.UpdateLogin(ctx, user.ID, identity.Email, identity.Name, now); err != nil {
		return User{}, fmt.Errorf("update user login: %w", err)
	}
	user.Email = identity.Email
	user.Name = identity.Name
	user.LastLoginAt = now
	return user, nil
}
