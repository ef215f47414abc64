package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stockroom/inventory-system/internal/core/domain"
	"github.com/stockroom/inventory-system/internal/core/ports"
)

const (
	defaultTokenTTL = 24 * time.Hour
	defaultIssuer   = "inventory-system"

	// claimsVersion is bumped whenever the claim layout changes.
	claimsVersion = 1
)

// Claims is the payload of an access token.
type Claims struct {
	Role    string `json:"role"`
	Version int    `json:"ver"`
	jwt.RegisteredClaims
}

// JWTService implements ports.TokenService with HS256 tokens.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// JWTOption customises a JWTService.
type JWTOption func(*JWTService)

// WithClock replaces time.Now for issuing and expiry checks.
func WithClock(now func() time.Time) JWTOption {
	return func(s *JWTService) { s.now = now }
}

// WithIssuer overrides the iss claim written and expected.
func WithIssuer(issuer string) JWTOption {
	return func(s *JWTService) { s.issuer = issuer }
}

// NewJWTService fails with domain.ErrConfiguration when secret is empty.
func NewJWTService(secret string, ttl time.Duration, opts ...JWTOption) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: token signing secret is empty", domain.ErrConfiguration)
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	s := &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: defaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *JWTService) Issue(subject string, role domain.Role) (string, error) {
	now := s.now()
	claims := Claims{
		Role:    string(role),
		Version: claimsVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) Validate(token string) (*ports.TokenClaims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedToken, err)
	}

	role := domain.Role(claims.Role)
	if claims.Version != claimsVersion || claims.Subject == "" || !role.Valid() {
		return nil, domain.ErrMalformedToken
	}

	out := &ports.TokenClaims{
		Subject:   claims.Subject,
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Unix()
	}
	return out, nil
}
