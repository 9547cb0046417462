package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("Passw0rd")
	require.NoError(t, err)

	assert.NotEqual(t, "Passw0rd", hash)
	assert.True(t, h.Verify("Passw0rd", hash))
	assert.False(t, h.Verify("passw0rd", hash))
	assert.False(t, h.Verify("", hash))
}

func TestBcryptHasher_SaltedPerCall(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	first, err := h.Hash("Passw0rd")
	require.NoError(t, err)
	second, err := h.Hash("Passw0rd")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("Passw0rd", first))
	assert.True(t, h.Verify("Passw0rd", second))
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	assert.NotPanics(t, func() {
		assert.False(t, h.Verify("Passw0rd", "not-a-bcrypt-hash"))
		assert.False(t, h.Verify("Passw0rd", ""))
		assert.False(t, h.Verify("Passw0rd", "$2a$04$short"))
	})
}

func TestBcryptHasher_CostFromHash(t *testing.T) {
	h := NewBcryptHasher(5)
	hash, err := h.Hash("Passw0rd")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 5, cost)

	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(1).cost)
}
