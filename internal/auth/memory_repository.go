package auth

import (
	"context"
	"sync"
	"time"
)

type identityKey struct {
	provider   string
	externalID string
}

// InMemoryRepository keeps users in process memory. Used when DATA_STORE=memory.
type InMemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[identityKey]User
}

// NewInMemoryRepository creates an empty InMemoryRepository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{users: make(map[identityKey]User)}
}

func (r *InMemoryRepository) FindByIdentity(_ context.Context, provider, externalID string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[identityKey{provider, externalID}]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (r *InMemoryRepository) Create(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := identityKey{user.Provider, user.ExternalID}
	if _, exists := r.users[key]; exists {
		return User{}, ErrDuplicateIdentity
	}

	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = user.LastLoginAt
	r.users[key] = user
	return user, nil
}

func (r *InMemoryRepository) UpdateLogin(_ context.Context, id int64, email, name *string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, user := range r.users {
		if user.ID != id {
			continue
		}
		user.Email = email
		user.Name = name
		user.LastLoginAt = at
		r.users[key] = user
		return nil
	}
	return ErrUserNotFound
}
