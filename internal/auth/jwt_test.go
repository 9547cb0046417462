package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebuszqo/FinanceTracker/internal/user"
)

const testSecret = "test-secret-test-secret-test-secret"

var testUser = &user.User{ID: 42, Username: "alice", Email: "a@x.com", Provider: user.ProviderLocal}

func newTestTokenService(t *testing.T, now time.Time) *TokenService {
	t.Helper()
	svc, err := NewTokenService(TokenConfig{
		Secret:     testSecret,
		Issuer:     "finance-tracker",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
	require.NoError(t, err)
	svc.now = func() time.Time { return now }
	return svc
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, now)

	token, expiresAt, err := svc.IssueAccess(testUser)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), expiresAt.UTC())

	claims, err := svc.ValidateAccess(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.Identity())
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, int64(42), claims.LegacyID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.Id)
}

func TestTokenService_WritesBothIdentityKeys(t *testing.T) {
	svc := newTestTokenService(t, time.Now())

	token, _, err := svc.IssueAccess(testUser)
	require.NoError(t, err)

	raw := jwt.MapClaims{}
	_, _, err = new(jwt.Parser).ParseUnverified(token, raw)
	require.NoError(t, err)
	assert.Equal(t, float64(42), raw["user_id"])
	assert.Equal(t, float64(42), raw["id"])
}

func TestTokenService_UniqueTokenIDs(t *testing.T) {
	svc := newTestTokenService(t, time.Now())

	first, _, err := svc.IssueAccess(testUser)
	require.NoError(t, err)
	second, _, err := svc.IssueAccess(testUser)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenService_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, now)

	token, _, err := svc.IssueAccess(testUser)
	require.NoError(t, err)

	svc.now = func() time.Time { return now.Add(29 * time.Minute) }
	_, err = svc.ValidateAccess(token)
	assert.NoError(t, err)

	svc.now = func() time.Time { return now.Add(30 * time.Minute) }
	_, err = svc.ValidateAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_TamperedSignature(t *testing.T) {
	svc := newTestTokenService(t, time.Now())

	token, _, err := svc.IssueAccess(testUser)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := strings.Join([]string{parts[0], parts[1], string(sig)}, ".")

	_, err = svc.ValidateAccess(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_TamperedLastSignatureCharacter(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	svc := newTestTokenService(t, time.Now())

	for i := 0; i < 20; i++ {
		token, _, err := svc.IssueAccess(testUser)
		require.NoError(t, err)

		last := strings.IndexByte(alphabet, token[len(token)-1])
		require.GreaterOrEqual(t, last, 0)
		tampered := token[:len(token)-1] + string(alphabet[last^1])

		_, err = svc.ValidateAccess(tampered)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %d", i)
	}
}

func TestTokenService_TamperedPayload(t *testing.T) {
	svc := newTestTokenService(t, time.Now())

	token, _, err := svc.IssueAccess(testUser)
	require.NoError(t, err)

	other, _, err := svc.IssueAccess(&user.User{ID: 7, Username: "bob", Email: "b@x.com"})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	spliced := strings.Join([]string{parts[0], otherParts[1], parts[2]}, ".")

	_, err = svc.ValidateAccess(spliced)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Malformed(t *testing.T) {
	svc := newTestTokenService(t, time.Now())

	for _, token := range []string{"", "abc", "a.b.c", "a.b"} {
		_, err := svc.ValidateAccess(token)
		assert.ErrorIs(t, err, ErrInvalidToken, token)
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	now := time.Now()
	svc := newTestTokenService(t, now)
	other, err := NewTokenService(TokenConfig{Secret: "another-secret-another-secret-1234", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	require.NoError(t, err)

	token, _, err := other.IssueAccess(testUser)
	require.NoError(t, err)

	_, err = svc.ValidateAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	svc := newTestTokenService(t, time.Now())

	claims := jwt.MapClaims{"user_id": 42, "exp": time.Now().Add(time.Hour).Unix()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.ValidateAccess(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateAccess(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_LegacyIDFallback(t *testing.T) {
	now := time.Now()
	svc := newTestTokenService(t, now)

	legacy := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  42,
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Unix(),
	})
	signed, err := legacy.SignedString([]byte(testSecret))
	require.NoError(t, err)

	claims, err := svc.ValidateAccess(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(0), claims.UserID)
	assert.Equal(t, int64(42), claims.Identity())
}

func TestTokenService_UserIDWinsOverLegacyID(t *testing.T) {
	now := time.Now()
	svc := newTestTokenService(t, now)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 42,
		"id":      7,
		"exp":     now.Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	claims, err := svc.ValidateAccess(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.Identity())
}

func TestTokenService_RequiresExpiryAndIdentity(t *testing.T) {
	now := time.Now()
	svc := newTestTokenService(t, now)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 42})
	signed, err := noExp.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.ValidateAccess(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noID := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
	signed, err = noID.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.ValidateAccess(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_WrongIssuer(t *testing.T) {
	now := time.Now()
	svc := newTestTokenService(t, now)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 42,
		"iss":     "someone-else",
		"exp":     now.Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ValidateAccess(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_TokenTypesAreNotInterchangeable(t *testing.T) {
	svc := newTestTokenService(t, time.Now())

	access, _, err := svc.IssueAccess(testUser)
	require.NoError(t, err)
	refresh, _, err := svc.IssueRefresh(testUser)
	require.NoError(t, err)

	_, err = svc.ValidateRefresh(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.ValidateAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := svc.ValidateRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.Identity())
}

func TestNewTokenService_RejectsBadConfig(t *testing.T) {
	_, err := NewTokenService(TokenConfig{AccessTTL: time.Minute, RefreshTTL: time.Hour})
	assert.Error(t, err)

	_, err = NewTokenService(TokenConfig{Secret: testSecret})
	assert.Error(t, err)
}
