package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-system/internal/core/domain"
	"github.com/stockroom/inventory-system/internal/core/ports"
	"github.com/stockroom/inventory-system/pkg/pagination"
)

type userService struct {
	users ports.UserRepository
	audit ports.AuditSink
	log   zerolog.Logger
}

// NewUserService returns a UserService implementation. A nil audit sink
// disables auditing.
func NewUserService(users ports.UserRepository, audit ports.AuditSink, log zerolog.Logger) ports.UserService {
	if audit == nil {
		audit = noopAudit{}
	}
	return &userService{users: users, audit: audit, log: log}
}

func (s *userService) Me(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, page pagination.Params) ([]domain.User, int64, error) {
	users, total, err := s.users.List(ctx, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (s *userService) ChangeRole(ctx context.Context, actor string, id uint, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}
	previous := user.Role
	user.Role = role
	user.UpdatedAt = time.Now().UTC()

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}

	s.log.Info().
		Str("actor", actor).
		Str("username", updated.Username).
		Str("from", string(previous)).
		Str("to", string(role)).
		Msg("user role changed")
	s.audit.Record(domain.AuditEvent{
		Action:  domain.AuditRoleChange,
		Actor:   actor,
		Target:  updated.Username,
		Outcome: domain.OutcomeSuccess,
		Detail:  string(previous) + "->" + string(role),
	})
	return updated, nil
}

func (s *userService) Delete(ctx context.Context, actor string, id uint) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}

	s.log.Info().Str("actor", actor).Uint("user_id", id).Msg("user deleted")
	s.audit.Record(domain.AuditEvent{
		Action:  domain.AuditUserDelete,
		Actor:   actor,
		Target:  strconv.FormatUint(uint64(id), 10),
		Outcome: domain.OutcomeSuccess,
	})
	return nil
}

// EnsureAdmin creates an admin account named username unless one with that
// name already exists.
func EnsureAdmin(ctx context.Context, users ports.UserRepository, hasher ports.PasswordHasher, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	_, err := users.FindByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("seed admin: %w", err)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	now := time.Now().UTC()
	_, err = users.Insert(ctx, &domain.User{
		Username:     username,
		PasswordHash: hash,
		AuthProvider: domain.ProviderLocal,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, domain.ErrDuplicateKey) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return true, nil
}
