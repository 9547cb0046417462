package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"github.com/sebuszqo/FinanceTracker/internal/user"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	claimsVersion = 1
	clockSkew     = 30 * time.Second
)

// ErrInvalidToken covers every non-valid state: malformed, bad signature,
// expired and wrong token type.
var ErrInvalidToken = errors.New("token is invalid")

// Claims is the payload of every token this service signs. UserID is the
// canonical identity key; LegacyID mirrors it under the older "id" key so
// clients still decoding that key keep working.
type Claims struct {
	UserID    int64  `json:"user_id,omitempty"`
	LegacyID  int64  `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Version   int    `json:"ver,omitempty"`
	jwt.StandardClaims
}

// Identity returns user_id, falling back to the legacy id key.
func (c *Claims) Identity() int64 {
	if c.UserID != 0 {
		return c.UserID
	}
	return c.LegacyID
}

type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenService issues and validates HS256 tokens. It keeps no server-side state.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	return &TokenService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

// IssueAccess returns a signed access token and its expiry.
func (s *TokenService) IssueAccess(u *user.User) (string, time.Time, error) {
	return s.issue(u, TokenTypeAccess, s.accessTTL)
}

func (s *TokenService) IssueRefresh(u *user.User) (string, time.Time, error) {
	return s.issue(u, TokenTypeRefresh, s.refreshTTL)
}

func (s *TokenService) issue(u *user.User, tokenType string, ttl time.Duration) (string, time.Time, error) {
	if u == nil || u.ID <= 0 {
		return "", time.Time{}, errors.New("cannot issue a token without a user id")
	}
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		UserID:    u.ID,
		LegacyID:  u.ID,
		Email:     u.Email,
		Username:  u.Username,
		TokenType: tokenType,
		Version:   claimsVersion,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("could not sign token: %w", err)
	}
	return signed, time.Unix(expiresAt.Unix(), 0), nil
}

// ValidateAccess accepts access tokens and legacy tokens that predate token_type.
func (s *TokenService) ValidateAccess(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess && claims.TokenType != "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) ValidateRefresh(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// parse verifies the signature first; no claim is read until it passes. Time
// checks run against the service clock instead of the library's.
func (s *TokenService) parse(tokenString string) (*Claims, error) {
	if !canonicalSegments(tokenString) {
		return nil, ErrInvalidToken
	}

	parser := &jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}

	now := s.now().Unix()
	switch {
	case claims.ExpiresAt == 0 || now >= claims.ExpiresAt:
		return nil, ErrInvalidToken
	case claims.IssuedAt > now+int64(clockSkew.Seconds()):
		return nil, ErrInvalidToken
	case !claims.VerifyNotBefore(now, false):
		return nil, ErrInvalidToken
	case claims.Issuer != "" && s.issuer != "" && claims.Issuer != s.issuer:
		return nil, ErrInvalidToken
	case claims.Version > claimsVersion:
		return nil, ErrInvalidToken
	case claims.Identity() <= 0:
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// canonicalSegments rejects segments with non-zero trailing bits. The jwt
// decoder ignores those bits, so two distinct strings could carry the same
// signature.
func canonicalSegments(tokenString string) bool {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts {
		if _, err := base64.RawURLEncoding.Strict().DecodeString(part); err != nil {
			return false
		}
	}
	return true
}
