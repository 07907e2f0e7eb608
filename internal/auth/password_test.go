package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("Pass1234")
	require.NoError(t, err)
	assert.NotEqual(t, "Pass1234", hash)

	assert.True(t, h.Verify("Pass1234", hash))
	assert.False(t, h.Verify("Pass1235", hash))
	assert.False(t, h.Verify("", hash))
}

func TestHasherSaltsEachHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	a, err := h.Hash("Pass1234")
	require.NoError(t, err)
	b, err := h.Hash("Pass1234")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("Pass1234", a))
	assert.True(t, h.Verify("Pass1234", b))
}

func TestHasherVerifyMalformedHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	assert.False(t, h.Verify("Pass1234", "not-a-bcrypt-hash"))
	assert.False(t, h.Verify("Pass1234", ""))
}

func TestHasherClampsCost(t *testing.T) {
	h := NewHasher(1000)

	hash, err := h.Hash("Pass1234")
	require.NoError(t, err)
	assert.True(t, h.Verify("Pass1234", hash))
}
