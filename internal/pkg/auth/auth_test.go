package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ssis-app/ssis/internal/app/models"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(JWTConfig{SecretKey: "secret", AccessTokenExp: time.Hour, TokenIssuer: "test"})
	user := &models.User{ID: 7, Username: "registrar", Email: "registrar@school.edu"}

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateAndExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "registrar", claims.Username)
	assert.Equal(t, "test", claims.Issuer)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(JWTConfig{SecretKey: "secret", AccessTokenExp: time.Hour})
	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour})
	expired := NewJWTService(JWTConfig{SecretKey: "secret", AccessTokenExp: -time.Minute})
	user := &models.User{ID: 1, Email: "a@b.c"}

	foreign, _, err := other.GenerateAccessToken(user)
	require.NoError(t, err)
	_, err = svc.ValidateAndExtractClaims(foreign)
	assert.Error(t, err)

	stale, _, err := expired.GenerateAccessToken(user)
	require.NoError(t, err)
	_, err = svc.ValidateAndExtractClaims(stale)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = svc.ValidateAndExtractClaims("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	tok, err := ExtractBearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestPasswordHashing(t *testing.T) {
	BcryptCost = bcrypt.MinCost
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}
