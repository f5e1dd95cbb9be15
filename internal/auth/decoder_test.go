package auth

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
	apperrors "github.com/abhidhakal/HReady-WebApp-sub001/pkg/util/errorutil"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-secret"))
	require.NoError(t, err)
	return token
}

func TestDecodeTokenReadsClaims(t *testing.T) {
	exp := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	token := sign(t, jwt.MapClaims{"sub": "u-1", "role": "Admin", "name": "Asha", "exp": exp.Unix()})

	claims, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.SubjectID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, "Asha", claims.Name)
	assert.True(t, claims.ExpiresAt.Equal(exp))
}

func TestDecodeTokenSubjectFallbacks(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	claims, err := DecodeToken(sign(t, jwt.MapClaims{"_id": "mongo-1", "role": "employee", "exp": exp}))
	require.NoError(t, err)
	assert.Equal(t, "mongo-1", claims.SubjectID)

	claims, err = DecodeToken(sign(t, jwt.MapClaims{"id": "plain-1", "role": "employee", "exp": exp}))
	require.NoError(t, err)
	assert.Equal(t, "plain-1", claims.SubjectID)
}

func TestDecodeTokenIgnoresSignature(t *testing.T) {
	token, _, err := NewTokenManager("backend-only", 30).GenerateToken(&domain.User{ID: "u-2", Name: "Ram", Role: domain.RoleEmployee})
	require.NoError(t, err)

	claims, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-2", claims.SubjectID)
	assert.Equal(t, domain.RoleEmployee, claims.Role)
}

func TestDecodeTokenFailures(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	cases := map[string]string{
		"empty":       "",
		"malformed":   "not.a.jwt",
		"missing exp": sign(t, jwt.MapClaims{"sub": "u-1", "role": "admin"}),
		"no subject":  sign(t, jwt.MapClaims{"role": "admin", "exp": exp}),
		"bad role":    sign(t, jwt.MapClaims{"sub": "u-1", "role": "superuser", "exp": exp}),
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeToken(token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode))
			assert.True(t, apperrors.IsCode(err, apperrors.CodeDecodeFailed))
		})
	}
}

func TestDecodeTokenAcceptsExpiredToken(t *testing.T) {
	// Expiry is judged by the caller against its own clock.
	token := sign(t, jwt.MapClaims{"sub": "u-1", "role": "admin", "exp": time.Now().Add(-time.Hour).Unix()})

	claims, err := DecodeToken(token)
	require.NoError(t, err)
	assert.True(t, claims.Expired(time.Now()))
}
