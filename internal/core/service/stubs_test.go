package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/stockroom/inventory-system/internal/core/domain"
	"github.com/stockroom/inventory-system/internal/core/ports"
	"github.com/stockroom/inventory-system/pkg/pagination"
)

// ---------------------------------------------------------------------------
// Identity store
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*domain.User
	// takenUsernames reports every tried username as existing.
	takenUsernames bool
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uint]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id uint) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.takenUsernames {
		return &domain.User{Username: username}, nil
	}
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, domain.ErrNotFound
	}
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *stubUserRepo) FindByExternalID(_ context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return r.find(func(u *domain.User) bool { return u.ExternalID == id })
}

// collides must be called with mu held.
func (r *stubUserRepo) collides(candidate *domain.User) bool {
	for _, u := range r.users {
		if u.ID == candidate.ID {
			continue
		}
		if u.Username == candidate.Username ||
			(candidate.Email != "" && u.Email == candidate.Email) ||
			(candidate.ExternalID != "" && u.ExternalID == candidate.ExternalID) {
			return true
		}
	}
	return false
}

func (r *stubUserRepo) Insert(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := cloneUser(user)
	c.ID = 0
	if r.collides(c) {
		return nil, domain.ErrDuplicateKey
	}
	r.nextID++
	c.ID = r.nextID
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	if r.collides(user) {
		return nil, domain.ErrDuplicateKey
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) List(_ context.Context, page pagination.Params) ([]domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := int64(len(all))
	if page.Offset >= len(all) {
		return []domain.User{}, total, nil
	}
	end := page.Offset + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[page.Offset:end], total, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// ---------------------------------------------------------------------------
// Security
// ---------------------------------------------------------------------------

type stubHasher struct{}

func (stubHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }

func (stubHasher) Verify(plaintext, digest string) bool {
	return digest != "" && digest == "hashed:"+plaintext
}

// countingHasher records the digest of every Verify call.
type countingHasher struct {
	stubHasher
	mu      sync.Mutex
	digests []string
}

func (h *countingHasher) Verify(plaintext, digest string) bool {
	h.mu.Lock()
	h.digests = append(h.digests, digest)
	h.mu.Unlock()
	return h.stubHasher.Verify(plaintext, digest)
}

func (h *countingHasher) take() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.digests
	h.digests = nil
	return out
}

type stubTokens struct{}

func (stubTokens) Issue(subject string, role domain.Role) (string, error) {
	return "token:" + subject + ":" + string(role), nil
}

func (stubTokens) Validate(token string) (*ports.TokenClaims, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 || parts[0] != "token" {
		return nil, domain.ErrMalformedToken
	}
	return &ports.TokenClaims{Subject: parts[1], Role: domain.Role(parts[2])}, nil
}

// ---------------------------------------------------------------------------
// Google
// ---------------------------------------------------------------------------

type stubGoogle struct {
	profiles map[string]*ports.GoogleProfile
}

func (g *stubGoogle) Verify(_ context.Context, cred ports.GoogleCredential) (*ports.GoogleProfile, error) {
	p, ok := g.profiles[cred.Token]
	if !ok {
		return nil, domain.ErrInvalidExternalToken
	}
	clone := *p
	return &clone, nil
}

func (g *stubGoogle) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

// ---------------------------------------------------------------------------
// Throttle and audit
// ---------------------------------------------------------------------------

type stubThrottle struct {
	failures map[string]int
	limit    int
}

func newStubThrottle(limit int) *stubThrottle {
	return &stubThrottle{failures: make(map[string]int), limit: limit}
}

func (t *stubThrottle) Locked(_ context.Context, username string) (bool, error) {
	return t.failures[username] >= t.limit, nil
}

func (t *stubThrottle) RecordFailure(_ context.Context, username string) error {
	t.failures[username]++
	return nil
}

func (t *stubThrottle) Reset(_ context.Context, username string) error {
	delete(t.failures, username)
	return nil
}

type stubAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *stubAudit) Record(e domain.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *stubAudit) actions() []domain.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Action)
	}
	return out
}
