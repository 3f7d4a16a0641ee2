package auth

import "time"

// User is a row of app_user. (Provider, ExternalID) is the identity key; email is
// not, since providers may withhold it.
type User struct {
	ID          int64
	Provider    string
	ExternalID  string
	Email       *string
	Name        *string
	CreatedAt   time.Time
	LastLoginAt time.Time
}
