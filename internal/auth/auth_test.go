package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docworks-io/docvault/pkg/apperr"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestVerifyBearer(t *testing.T) {
	v := NewVerifier(testSecret)

	t.Run("valid token", func(t *testing.T) {
		raw := signToken(t, Claims{
			UserID:      42,
			Permissions: []string{PermDocumentRead},
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		ident, err := v.VerifyBearer("Bearer " + raw)
		require.NoError(t, err)
		assert.Equal(t, uint(42), ident.UserID)
		assert.True(t, ident.Can(PermDocumentRead))
		assert.False(t, ident.Can(PermDocumentDelete))
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := v.VerifyBearer("")
		assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
	})

	t.Run("not bearer format", func(t *testing.T) {
		_, err := v.VerifyBearer("Basic abc")
		assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 42})
		raw, err := token.SignedString([]byte("other-secret"))
		require.NoError(t, err)
		_, err = v.VerifyBearer("Bearer " + raw)
		assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
	})

	t.Run("expired token", func(t *testing.T) {
		raw := signToken(t, Claims{
			UserID: 42,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})
		_, err := v.VerifyBearer("Bearer " + raw)
		assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
	})

	t.Run("token without user id", func(t *testing.T) {
		raw := signToken(t, Claims{Permissions: []string{PermDocumentRead}})
		_, err := v.VerifyBearer("Bearer " + raw)
		assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
	})
}

func TestIdentityRequire(t *testing.T) {
	t.Run("anonymous identity", func(t *testing.T) {
		err := Identity{}.Require(PermDocumentRead)
		assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
	})

	t.Run("missing permission", func(t *testing.T) {
		ident := Identity{UserID: 7, Permissions: []string{PermDocumentRead}}
		err := ident.Require(PermDocumentRead, PermDocumentCreate)
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	})

	t.Run("all permissions granted", func(t *testing.T) {
		ident := Identity{UserID: 7, Permissions: []string{PermDocumentRead, PermDocumentCreate}}
		assert.NoError(t, ident.Require(PermDocumentRead, PermDocumentCreate))
	})
}
