package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-system/internal/core/domain"
	"github.com/stockroom/inventory-system/internal/core/ports"
)

// maxUsernameAttempts bounds the suffix search when deriving a username for
// a new Google account.
const maxUsernameAttempts = 50

// timingPassword is hashed once at construction; unknown users are checked
// against its digest so every failed login costs one hash comparison.
const timingPassword = "inventory-system-timing-equaliser"

// LoginThrottle abstracts the failed-login counter (Redis).
type LoginThrottle interface {
	Locked(ctx context.Context, username string) (bool, error)
	RecordFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}

// AuthService implements registration and the local and Google login flows.
type AuthService struct {
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenService
	google   ports.GoogleVerifier
	throttle LoginThrottle
	audit    ports.AuditSink
	log      zerolog.Logger
	now      func() time.Time

	dummyDigest string
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithGoogle enables the Google login flow.
func WithGoogle(v ports.GoogleVerifier) AuthOption {
	return func(s *AuthService) { s.google = v }
}

// WithLoginThrottle enables lockout after repeated failed logins.
func WithLoginThrottle(t LoginThrottle) AuthOption {
	return func(s *AuthService) { s.throttle = t }
}

// WithAudit sends auth events to sink.
func WithAudit(sink ports.AuditSink) AuthOption {
	return func(s *AuthService) { s.audit = sink }
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenService,
	log zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		throttle: noopThrottle{},
		audit:    noopAudit{},
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	digest, err := hasher.Hash(timingPassword)
	if err != nil {
		log.Warn().Err(err).Msg("could not precompute timing digest")
	}
	s.dummyDigest = digest
	return s
}

// Register creates a local account with the default role.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user, err := s.users.Insert(ctx, &domain.User{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		AuthProvider: domain.ProviderLocal,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", username, err)
	}

	s.log.Info().Str("username", user.Username).Uint("user_id", user.ID).Msg("user registered")
	s.record(domain.AuditRegister, user.Username, user.Username, domain.OutcomeSuccess, "")
	return user, nil
}

// Login checks a username and password. Unknown users, accounts without a
// password and wrong passwords all yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	locked, err := s.throttle.Locked(ctx, username)
	if err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("login throttle check failed, continuing")
	} else if locked {
		s.record(domain.AuditLogin, username, username, domain.OutcomeFailure, "locked")
		return nil, domain.ErrTooManyAttempts
	}

	user, err := s.users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.hasher.Verify(password, s.dummyDigest)
		s.loginFailed(ctx, username)
		return nil, domain.ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("login: %w", err)
	}

	digest := user.PasswordHash
	if !user.HasPassword() {
		digest = s.dummyDigest
	}
	if !s.hasher.Verify(password, digest) || !user.HasPassword() {
		s.loginFailed(ctx, username)
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.throttle.Reset(ctx, username); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("login throttle reset failed")
	}
	return s.issue(user, domain.AuditLogin)
}

func (s *AuthService) loginFailed(ctx context.Context, username string) {
	if err := s.throttle.RecordFailure(ctx, username); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("login throttle record failed")
	}
	s.record(domain.AuditLogin, username, username, domain.OutcomeFailure, "invalid credentials")
}

// GoogleLogin verifies a Google credential and signs in the matching local
// account, linking or creating it as needed. Nothing is written before the
// credential is verified. Every failure after configuration is checked
// wraps domain.ErrGoogleAuthFailed around its cause.
func (s *AuthService) GoogleLogin(ctx context.Context, cred ports.GoogleCredential) (*ports.AuthResult, error) {
	if s.google == nil {
		return nil, fmt.Errorf("%w: google sign-in is not configured", domain.ErrConfiguration)
	}

	profile, err := s.google.Verify(ctx, cred)
	if err != nil {
		return nil, s.googleFailed(err)
	}
	if profile.Subject == "" || profile.Email == "" {
		return nil, s.googleFailed(fmt.Errorf("%w: profile lacks subject or email", domain.ErrInvalidExternalToken))
	}

	user, err := s.resolveGoogleUser(ctx, profile)
	if err != nil {
		return nil, s.googleFailed(err)
	}
	return s.issue(user, domain.AuditGoogleLogin)
}

func (s *AuthService) googleFailed(cause error) error {
	s.log.Warn().Err(cause).Msg("google login failed")
	s.record(domain.AuditGoogleLogin, "", "", domain.OutcomeFailure, cause.Error())
	return fmt.Errorf("%w: %w", domain.ErrGoogleAuthFailed, cause)
}

// resolveGoogleUser finds the account for profile: by external id first,
// then by email (linking it), and otherwise creates a new one.
func (s *AuthService) resolveGoogleUser(ctx context.Context, p *ports.GoogleProfile) (*domain.User, error) {
	user, err := s.users.FindByExternalID(ctx, p.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find by external id: %w", err)
	}

	user, err = s.users.FindByEmail(ctx, p.Email)
	if err == nil {
		return s.linkGoogleUser(ctx, user, p)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find by email: %w", err)
	}

	return s.createGoogleUser(ctx, p)
}

func (s *AuthService) linkGoogleUser(ctx context.Context, user *domain.User, p *ports.GoogleProfile) (*domain.User, error) {
	if user.ExternalID != "" && user.ExternalID != p.Subject {
		return nil, fmt.Errorf("%w: email %s is linked to another google account", domain.ErrDuplicateKey, p.Email)
	}

	user.ExternalID = p.Subject
	user.AuthProvider = domain.ProviderGoogle
	user.FillProfile(p.GivenName, p.FamilyName, p.Picture)
	user.UpdatedAt = s.now().UTC()

	linked, err := s.users.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("link google account: %w", err)
	}

	s.log.Info().Str("username", linked.Username).Msg("google account linked")
	s.record(domain.AuditGoogleLink, linked.Username, linked.Username, domain.OutcomeSuccess, "")
	return linked, nil
}

// createGoogleUser derives a username from the email local part and tries
// base, base1, base2, ... A duplicate on insert means another request won
// the race: if it created this very account that account is returned,
// otherwise the next suffix is tried.
func (s *AuthService) createGoogleUser(ctx context.Context, p *ports.GoogleProfile) (*domain.User, error) {
	base := usernameFromEmail(p.Email)

	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		candidate := usernameCandidate(base, attempt)

		_, err := s.users.FindByUsername(ctx, candidate)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("check username: %w", err)
		}

		now := s.now().UTC()
		user, err := s.users.Insert(ctx, &domain.User{
			Username:       candidate,
			Email:          p.Email,
			ExternalID:     p.Subject,
			FirstName:      p.GivenName,
			LastName:       p.FamilyName,
			ProfilePicture: p.Picture,
			AuthProvider:   domain.ProviderGoogle,
			Role:           domain.RoleUser,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err == nil {
			s.log.Info().Str("username", user.Username).Msg("google account created")
			s.record(domain.AuditRegister, user.Username, user.Username, domain.OutcomeSuccess, "google")
			return user, nil
		}
		if !errors.Is(err, domain.ErrDuplicateKey) {
			return nil, fmt.Errorf("create google account: %w", err)
		}

		if existing, ferr := s.users.FindByExternalID(ctx, p.Subject); ferr == nil {
			return existing, nil
		}
		if existing, ferr := s.users.FindByEmail(ctx, p.Email); ferr == nil {
			return s.linkGoogleUser(ctx, existing, p)
		}
	}

	return nil, fmt.Errorf("%w: no free username derived from %q", domain.ErrDuplicateKey, base)
}

// usernameFromEmail keeps the lower-cased local part of an email, restricted
// to letters, digits, dot, dash and underscore.
func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}

// usernameCandidate appends the attempt number to base, shortening base so
// the result fits domain.MaxUsernameLength.
func usernameCandidate(base string, attempt int) string {
	suffix := ""
	if attempt > 0 {
		suffix = strconv.Itoa(attempt)
	}
	runes := []rune(base)
	if limit := domain.MaxUsernameLength - len(suffix); len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes) + suffix
}

// GoogleAuthURL returns the consent URL with a fresh state value.
func (s *AuthService) GoogleAuthURL(_ context.Context) (*ports.GoogleAuthURL, error) {
	if s.google == nil {
		return nil, fmt.Errorf("%w: google sign-in is not configured", domain.ErrConfiguration)
	}
	state := uuid.NewString()
	return &ports.GoogleAuthURL{URL: s.google.AuthCodeURL(state), State: state}, nil
}

// GoogleConfigured reports whether the Google flow is available.
func (s *AuthService) GoogleConfigured() bool {
	return s.google != nil
}

func (s *AuthService) issue(user *domain.User, action domain.AuditAction) (*ports.AuthResult, error) {
	token, err := s.tokens.Issue(user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.record(action, user.Username, user.Username, domain.OutcomeSuccess, "")
	return &ports.AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) record(action domain.AuditAction, actor, target, outcome, detail string) {
	s.audit.Record(domain.AuditEvent{
		Action:  action,
		Actor:   actor,
		Target:  target,
		Outcome: outcome,
		Detail:  detail,
		At:      s.now().UTC(),
	})
}

type noopThrottle struct{}

func (noopThrottle) Locked(context.Context, string) (bool, error) { return false, nil }
func (noopThrottle) RecordFailure(context.Context, string) error  { return nil }
func (noopThrottle) Reset(context.Context, string) error          { return nil }

type noopAudit struct{}

func (noopAudit) Record(domain.AuditEvent) {}
