package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	hasher := NewBcryptHasher(4)

	hash, err := hasher.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.NoError(t, hasher.Compare(hash, "secret123"))
	assert.Error(t, hasher.Compare(hash, "wrong"))
}

func TestHashRejectsShortPassword(t *testing.T) {
	hasher := NewBcryptHasher(4)

	_, err := hasher.Hash("abc")
	assert.Error(t, err)
}

func TestHashesAreSalted(t *testing.T) {
	hasher := NewBcryptHasher(4)

	a, err := hasher.Hash("secret123")
	require.NoError(t, err)
	b, err := hasher.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
