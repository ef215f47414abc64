package domain

import "errors"

// Authentication and authorization failures.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnauthenticated      = errors.New("authentication required")
	ErrForbidden            = errors.New("access forbidden")
	ErrExpiredToken         = errors.New("token expired")
	ErrMalformedToken       = errors.New("malformed token")
	ErrOAuthExchangeFailed  = errors.New("oauth code exchange failed")
	ErrInvalidExternalToken = errors.New("invalid external identity token")
	ErrGoogleAuthFailed     = errors.New("google authentication failed")
	ErrTooManyAttempts      = errors.New("too many failed login attempts")
)

// Persistence and input failures.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrDuplicateKey  = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrConfiguration = errors.New("service not configured")
)
