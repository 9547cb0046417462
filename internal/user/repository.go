package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode = "23505"

	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

// Repository is the credential store. Email and username uniqueness is
// enforced by the database, never by application locks.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	// FindOrCreateByEmail inserts defaults unless a user with email already
	// exists. The bool reports whether a row was created.
	FindOrCreateByEmail(ctx context.Context, email string, defaults User) (*User, bool, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) Repository {
	return &userRepository{
		db: db,
	}
}

const userColumns = `id, username, email, password_hash, provider, provider_id, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (username, email, password_hash, provider, provider_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, providerOrDefault(user.Provider), user.ProviderID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	user.Provider = providerOrDefault(user.Provider)
	return nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) FindOrCreateByEmail(ctx context.Context, email string, defaults User) (*User, bool, error) {
	query := `
		INSERT INTO users (username, email, password_hash, provider, provider_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
		RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRowContext(ctx, query,
		defaults.Username, email, defaults.PasswordHash, providerOrDefault(defaults.Provider), defaults.ProviderID,
	))
	switch {
	case err == nil:
		return created, true, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, false, mapWriteError(err)
	}

	// The conflicting row was committed by someone else; read it back.
	existing, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		user       User
		providerID sql.NullString
	)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Provider, &providerID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not read user: %w", err)
	}
	if providerID.Valid {
		user.ProviderID = &providerID.String
	}
	return &user, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		switch pgErr.ConstraintName {
		case usernameConstraint:
			return ErrUsernameAlreadyExists
		case emailConstraint:
			return ErrEmailAlreadyExists
		}
	}
	return fmt.Errorf("could not write user: %w", err)
}

func providerOrDefault(provider string) string {
	if provider == "" {
		return ProviderLocal
	}
	return provider
}
