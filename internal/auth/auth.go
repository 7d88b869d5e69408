// Package auth resolves bearer tokens into caller identities and enforces
// permission checks at the operation boundary. Token minting and role
// management belong to the external identity service; this package only
// verifies and reads.
package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/docworks-io/docvault/pkg/apperr"
)

// Identity is a caller already resolved to a user id and granted permission
// codes. Operations trust the id; they must never run without one.
type Identity struct {
	UserID      uint
	Permissions []string
}

// Can reports whether the identity holds the permission code.
func (i Identity) Can(perm string) bool {
	for _, p := range i.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Require fails fast when the identity is missing or lacks any of the given
// capabilities.
func (i Identity) Require(perms ...string) error {
	if i.UserID == 0 {
		return apperr.Unauthenticated("a signed-in user is required")
	}
	for _, perm := range perms {
		if !i.Can(perm) {
			return apperr.Forbidden("missing permission %s", perm)
		}
	}
	return nil
}

// Claims is the token payload issued by the identity service.
type Claims struct {
	UserID      uint     `json:"uid"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 bearer tokens against the shared signing secret.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a Verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// VerifyBearer parses an Authorization header value ("Bearer <token>") into
// an Identity. All failures surface as UnauthenticatedError; a token without
// a user id is treated the same as no token.
func (v *Verifier) VerifyBearer(header string) (Identity, error) {
	if header == "" {
		return Identity{}, apperr.Unauthenticated("a bearer token is required")
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return Identity{}, apperr.Unauthenticated("invalid authorization header format")
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, apperr.Wrap(
			apperr.Unauthenticated("invalid or expired token"), err)
	}
	if claims.UserID == 0 {
		return Identity{}, apperr.Unauthenticated("token carries no user id")
	}

	return Identity{
		UserID:      claims.UserID,
		Permissions: claims.Permissions,
	}, nil
}
