package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/badoux/checkmail"
	appErrors "github.com/sebuszqo/FinanceTracker/internal/errors"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	maxEmailLength    = 254
	minPasswordLength = 8
	maxPasswordLength = 72
)

var (
	ErrInternalError = errors.New("internal server error")

	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

type Service interface {
	Register(ctx context.Context, username, email, password string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
}

type service struct {
	repo   Repository
	hasher PasswordHasher
}

func NewUserService(repo Repository, hasher PasswordHasher) Service {
	return &service{
		repo:   repo,
		hasher: hasher,
	}
}

// NormalizeEmail trims and lowercases an address before it touches the store.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Register(ctx context.Context, username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	email = NormalizeEmail(email)

	var ve appErrors.ValidationErrors
	validateUsername(&ve, username)
	validateEmail(&ve, email)
	validatePassword(&ve, password)
	if err := ve.Err(); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		slog.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, ErrInternalError
	}

	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Provider:     ProviderLocal,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) || errors.Is(err, ErrUsernameAlreadyExists) {
			return nil, err
		}
		slog.Error("failed to create user", slog.String("error", err.Error()))
		return nil, ErrInternalError
	}

	slog.Info("user registered", slog.Int64("user_id", user.ID))
	return user, nil
}

func (s *service) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func validateUsername(ve *appErrors.ValidationErrors, username string) {
	switch {
	case username == "":
		ve.Add("username", "username is required")
	case len(username) < minUsernameLength || len(username) > maxUsernameLength:
		ve.Add("username", fmt.Sprintf("username must be between %d and %d characters", minUsernameLength, maxUsernameLength))
	case !usernamePattern.MatchString(username):
		ve.Add("username", "username may contain only letters, digits and underscores")
	}
}

func validateEmail(ve *appErrors.ValidationErrors, email string) {
	switch {
	case email == "":
		ve.Add("email", "email is required")
	case len(email) > maxEmailLength:
		ve.Add("email", fmt.Sprintf("email must be at most %d characters", maxEmailLength))
	case checkmail.ValidateFormat(email) != nil:
		ve.Add("email", "email address is not valid")
	}
}

func validatePassword(ve *appErrors.ValidationErrors, password string) {
	switch {
	case password == "":
		ve.Add("password", "password is required")
	case len(password) < minPasswordLength || len(password) > maxPasswordLength:
		ve.Add("password", fmt.Sprintf("password must be between %d and %d bytes", minPasswordLength, maxPasswordLength))
	case !strings.ContainsFunc(password, unicode.IsUpper):
		ve.Add("password", "password must contain at least one uppercase letter")
	case !strings.ContainsFunc(password, unicode.IsDigit):
		ve.Add("password", "password must contain at least one digit")
	}
}

// DeriveUsername builds a valid username candidate from a display name, falling
// back to the local part of email. suffix > 0 is appended to resolve collisions.
func DeriveUsername(displayName, email string, suffix int) string {
	base := sanitizeUsername(displayName)
	if base == "" {
		local, _, _ := strings.Cut(email, "@")
		base = sanitizeUsername(local)
	}
	if base == "" {
		base = "user"
	}
	for len(base) < minUsernameLength {
		base += "_"
	}

	tail := ""
	if suffix > 0 {
		tail = fmt.Sprintf("_%d", suffix)
	}
	if len(base)+len(tail) > maxUsernameLength {
		base = base[:maxUsernameLength-len(tail)]
	}
	return base + tail
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
		case !lastUnderscore && b.Len() > 0:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}
