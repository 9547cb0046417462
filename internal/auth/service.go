package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sebuszqo/FinanceTracker/internal/user"
)

const maxUsernameAttempts = 10

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrProviderOnlyAccount = errors.New("account uses an external identity provider")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrInternalError       = errors.New("internal server error")
)

// Session is the result of a successful sign-in.
type Session struct {
	User                  *user.User
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	IsNewUser             bool
}

type Service interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	GoogleLogin(ctx context.Context, assertion string) (*Session, error)
	// Refresh exchanges a refresh token for a new access token. The refresh
	// token itself is not rotated.
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	// Authenticate resolves an access token to a user that currently exists.
	Authenticate(ctx context.Context, accessToken string) (*user.User, error)
}

type service struct {
	users    user.Repository
	hasher   user.PasswordHasher
	tokens   *TokenService
	verifier IdentityVerifier

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users user.Repository, hasher user.PasswordHasher, tokens *TokenService, verifier IdentityVerifier) Service {
	return &service{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		verifier: verifier,
	}
}

func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	existing, err := s.users.FindByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			// Spend the same hashing time as a real check.
			s.hasher.Verify(password, s.dummyPasswordHash())
			return nil, ErrInvalidCredentials
		}
		slog.Error("failed to look up user for login", slog.String("error", err.Error()))
		return nil, ErrInternalError
	}

	if !existing.HasPassword() {
		if existing.Provider != user.ProviderLocal {
			return nil, ErrProviderOnlyAccount
		}
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, existing.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.newSession(existing, false)
}

// GoogleLogin never modifies an existing account: a local account with the
// same email keeps its provider and is simply signed in.
func (s *service) GoogleLogin(ctx context.Context, assertion string) (*Session, error) {
	if s.verifier == nil {
		return nil, fmt.Errorf("%w: no verifier configured", ErrExternalAuthFailure)
	}
	identity, err := s.verifier.Verify(ctx, assertion)
	if err != nil {
		return nil, err
	}

	email := user.NormalizeEmail(identity.Email)
	subject := identity.SubjectID

	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		defaults := user.User{
			Username:   user.DeriveUsername(identity.DisplayName, email, attempt),
			Provider:   user.ProviderGoogle,
			ProviderID: &subject,
		}

		u, created, err := s.users.FindOrCreateByEmail(ctx, email, defaults)
		switch {
		case err == nil:
			if created {
				slog.Info("user created from google identity", slog.Int64("user_id", u.ID))
			}
			return s.newSession(u, created)
		case errors.Is(err, user.ErrUsernameAlreadyExists):
			continue
		default:
			slog.Error("failed to find or create google user", slog.String("error", err.Error()))
			return nil, ErrInternalError
		}
	}

	slog.Error("could not derive a free username for google user", slog.Int("attempts", maxUsernameAttempts))
	return nil, ErrInternalError
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	u, err := s.users.FindByID(ctx, claims.Identity())
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		slog.Error("failed to look up user for refresh", slog.String("error", err.Error()))
		return nil, ErrInternalError
	}

	access, expiresAt, err := s.tokens.IssueAccess(u)
	if err != nil {
		slog.Error("failed to issue access token", slog.String("error", err.Error()))
		return nil, ErrInternalError
	}
	return &Session{User: u, AccessToken: access, AccessTokenExpiresAt: expiresAt}, nil
}

func (s *service) Authenticate(ctx context.Context, accessToken string) (*user.User, error) {
	claims, err := s.tokens.ValidateAccess(accessToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	u, err := s.users.FindByID(ctx, claims.Identity())
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("could not resolve token subject: %w", err)
	}
	return u, nil
}

func (s *service) newSession(u *user.User, isNew bool) (*Session, error) {
	access, accessExp, err := s.tokens.IssueAccess(u)
	if err != nil {
		slog.Error("failed to issue access token", slog.String("error", err.Error()))
		return nil, ErrInternalError
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(u)
	if err != nil {
		slog.Error("failed to issue refresh token", slog.String("error", err.Error()))
		return nil, ErrInternalError
	}
	return &Session{
		User:                  u,
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: refreshExp,
		IsNewUser:             isNew,
	}, nil
}

func (s *service) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("dummy-password-for-timing")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
