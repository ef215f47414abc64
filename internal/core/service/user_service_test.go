package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-system/internal/core/domain"
	"github.com/stockroom/inventory-system/pkg/pagination"
)

func seedUser(t *testing.T, repo *stubUserRepo, username string, role domain.Role) *domain.User {
	t.Helper()
	u, err := repo.Insert(context.Background(), &domain.User{
		Username:     username,
		PasswordHash: "hashed:pw",
		AuthProvider: domain.ProviderLocal,
		Role:         role,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", username, err)
	}
	return u
}

func TestUserService_ChangeRole(t *testing.T) {
	repo := newStubUserRepo()
	audit := &stubAudit{}
	svc := NewUserService(repo, audit, zerolog.Nop())
	u := seedUser(t, repo, "bob", domain.RoleUser)

	updated, err := svc.ChangeRole(context.Background(), "root", u.ID, domain.RoleManager)
	if err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	if updated.Role != domain.RoleManager {
		t.Fatalf("expected manager, got %s", updated.Role)
	}
	stored, _ := repo.FindByID(context.Background(), u.ID)
	if stored.Role != domain.RoleManager {
		t.Fatalf("role not persisted")
	}
	if got := audit.actions(); len(got) != 1 || got[0] != domain.AuditRoleChange {
		t.Fatalf("unexpected audit trail: %v", got)
	}
}

func TestUserService_ChangeRole_Errors(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, nil, zerolog.Nop())
	u := seedUser(t, repo, "bob", domain.RoleUser)

	if _, err := svc.ChangeRole(context.Background(), "root", u.ID, "superuser"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.ChangeRole(context.Background(), "root", 999, domain.RoleAdmin); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, nil, zerolog.Nop())
	u := seedUser(t, repo, "bob", domain.RoleUser)

	if err := svc.Delete(context.Background(), "root", u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(context.Background(), "root", u.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUserService_ListAndMe(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, nil, zerolog.Nop())
	for _, name := range []string{"a", "b", "c"} {
		seedUser(t, repo, name, domain.RoleUser)
	}

	users, total, err := svc.List(context.Background(), pagination.New(1, 2))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(users) != 2 {
		t.Fatalf("unexpected page: total=%d len=%d", total, len(users))
	}

	me, err := svc.Me(context.Background(), "b")
	if err != nil || me.Username != "b" {
		t.Fatalf("Me: %v %+v", err, me)
	}
	if _, err := svc.Me(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	repo := newStubUserRepo()
	ctx := context.Background()

	created, err := EnsureAdmin(ctx, repo, stubHasher{}, "root", "s3cret")
	if err != nil || !created {
		t.Fatalf("expected admin to be created: %v", err)
	}
	u, _ := repo.FindByUsername(ctx, "root")
	if u.Role != domain.RoleAdmin || u.PasswordHash != "hashed:s3cret" {
		t.Fatalf("unexpected admin: %+v", u)
	}

	created, err = EnsureAdmin(ctx, repo, stubHasher{}, "root", "other")
	if err != nil || created {
		t.Fatalf("expected no-op on second call: created=%v err=%v", created, err)
	}

	created, err = EnsureAdmin(ctx, repo, stubHasher{}, "", "")
	if err != nil || created {
		t.Fatalf("expected no-op without credentials")
	}
}
