package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom/inventory-system/internal/core/domain"
)

const testSecret = "test-secret-with-at-least-32-bytes!!"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestService(t *testing.T, clock *fakeClock) *JWTService {
	t.Helper()
	svc, err := NewJWTService(testSecret, time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	return svc
}

func TestJWTService_RoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	token, err := svc.Issue("bob", domain.RoleManager)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Subject)
	assert.Equal(t, domain.RoleManager, claims.Role)
	assert.Equal(t, clock.t.Unix(), claims.IssuedAt)
	assert.Equal(t, clock.t.Add(time.Hour).Unix(), claims.ExpiresAt)
}

func TestJWTService_Expired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	token, err := svc.Issue("bob", domain.RoleUser)
	require.NoError(t, err)

	clock.t = clock.t.Add(59 * time.Minute)
	_, err = svc.Validate(token)
	require.NoError(t, err)

	clock.t = clock.t.Add(2 * time.Minute)
	_, err = svc.Validate(token)
	assert.True(t, errors.Is(err, domain.ErrExpiredToken), "got %v", err)
}

func tamper(token string, segment int) string {
	parts := strings.Split(token, ".")
	s := []byte(parts[segment])
	i := len(s) / 2
	if s[i] == 'A' {
		s[i] = 'B'
	} else {
		s[i] = 'A'
	}
	parts[segment] = string(s)
	return strings.Join(parts, ".")
}

func TestJWTService_Tampered(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(t, clock)

	token, err := svc.Issue("bob", domain.RoleUser)
	require.NoError(t, err)

	for _, segment := range []int{1, 2} {
		_, err := svc.Validate(tamper(token, segment))
		assert.True(t, errors.Is(err, domain.ErrMalformedToken), "segment %d: got %v", segment, err)
	}
}

func TestJWTService_Garbage(t *testing.T) {
	svc := newTestService(t, &fakeClock{t: time.Now()})

	for _, raw := range []string{"", "abc", "a.b.c"} {
		_, err := svc.Validate(raw)
		assert.True(t, errors.Is(err, domain.ErrMalformedToken), "%q: got %v", raw, err)
	}
}

func TestJWTService_WrongSecret(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(t, clock)
	other, err := NewJWTService("another-secret-with-at-least-32-bytes", time.Hour, WithClock(clock.Now))
	require.NoError(t, err)

	token, err := other.Issue("bob", domain.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.True(t, errors.Is(err, domain.ErrMalformedToken))
}

func TestJWTService_RejectsOtherAlgorithms(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, &fakeClock{t: now})

	claims := Claims{
		Role:    string(domain.RoleAdmin),
		Version: claimsVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "mallory",
			Issuer:    defaultIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Validate(unsigned)
	assert.True(t, errors.Is(err, domain.ErrMalformedToken))

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Validate(hs512)
	assert.True(t, errors.Is(err, domain.ErrMalformedToken))
}

func TestJWTService_RejectsUnknownRoleAndVersion(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, &fakeClock{t: now})

	sign := func(role string, version int) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			Role:    role,
			Version: version,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "bob",
				Issuer:    defaultIssuer,
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return tok
	}

	_, err := svc.Validate(sign("superuser", claimsVersion))
	assert.True(t, errors.Is(err, domain.ErrMalformedToken))

	_, err = svc.Validate(sign(string(domain.RoleUser), claimsVersion+1))
	assert.True(t, errors.Is(err, domain.ErrMalformedToken))
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService("", time.Hour)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}
