package ports

import "github.com/stockroom/inventory-system/internal/core/domain"

// PasswordHasher derives and checks salted password digests.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches digest. A malformed digest
	// yields false.
	Verify(plaintext, digest string) bool
}

// TokenClaims is the decoded content of a bearer token.
type TokenClaims struct {
	Subject   string
	Role      domain.Role
	IssuedAt  int64
	ExpiresAt int64
}

// TokenService issues and validates signed bearer tokens.
type TokenService interface {
	Issue(subject string, role domain.Role) (string, error)
	// Validate returns domain.ErrExpiredToken for an expired token and
	// domain.ErrMalformedToken for anything else that fails verification.
	Validate(token string) (*TokenClaims, error)
}
