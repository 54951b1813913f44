package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestVerifyTokenValid(t *testing.T) {
	v := NewVerifier("secret")
	token := signToken(t, "secret", Claims{
		UserID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	userID, err := v.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	v := NewVerifier("secret")
	token := signToken(t, "other", Claims{UserID: 42})

	_, err := v.VerifyToken(token)
	require.Error(t, err)
}

func TestVerifyTokenExpired(t *testing.T) {
	v := NewVerifier("secret")
	token := signToken(t, "secret", Claims{
		UserID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	_, err := v.VerifyToken(token)
	require.Error(t, err)
}

func TestVerifyTokenMissingUserID(t *testing.T) {
	v := NewVerifier("secret")
	token := signToken(t, "secret", Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := v.VerifyToken(token)
	require.Error(t, err)
}

func TestVerifyTokenRejectsNoneAlgorithm(t *testing.T) {
	v := NewVerifier("secret")
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 42}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.VerifyToken(token)
	require.Error(t, err)
}
