package user

import (
	"fmt"
	"time"

	appErrors "github.com/sebuszqo/FinanceTracker/internal/errors"
)

// Identity providers an account can be bound to.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
	ProviderApple  = "apple"
)

var (
	ErrUserNotFound          = fmt.Errorf("user not found: %w", appErrors.ErrNotFound)
	ErrEmailAlreadyExists    = fmt.Errorf("email already exists: %w", appErrors.ErrConflict)
	ErrUsernameAlreadyExists = fmt.Errorf("username already exists: %w", appErrors.ErrConflict)
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Provider     string    `json:"provider"`
	ProviderID   *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether the account can sign in with a local password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Public is the shape returned to clients after login.
type Public struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u *User) Public() Public {
	return Public{ID: u.ID, Username: u.Username, Email: u.Email}
}
