package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	k, err := NewKeys("test-secret")
	require.NoError(t, err)

	token, err := k.GenerateToken("user-1", "user@example.com", "")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := k.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Empty(t, claims.Role)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	k1, err := NewKeys("secret-one")
	require.NoError(t, err)
	k2, err := NewKeys("secret-two")
	require.NoError(t, err)

	token, err := k1.GenerateToken("user-1", "user@example.com", "")
	require.NoError(t, err)

	_, err = k2.ValidateToken(token)
	assert.Error(t, err)
}

func TestNewKeysEmptySecret(t *testing.T) {
	_, err := NewKeys("")
	assert.Error(t, err)
}
