package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundtrip(t *testing.T) {
	token, err := GenerateToken("secret", "admin", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.UserID)
	assert.Equal(t, "postloop", claims.Issuer)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	token, err := GenerateToken("secret", "admin", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken("other-secret", token)
	require.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("secret", "admin", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken("secret", token)
	require.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("secret", "not.a.jwt")
	require.Error(t, err)
}
