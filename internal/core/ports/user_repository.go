package ports

import (
	"context"

	"github.com/stockroom/inventory-system/internal/core/domain"
	"github.com/stockroom/inventory-system/pkg/pagination"
)

// UserRepository is the identity store. Lookups return domain.ErrNotFound
// when nothing matches; Insert and Update return domain.ErrDuplicateKey
// when a unique field (username, email, external id) collides.
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	Insert(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context, page pagination.Params) ([]domain.User, int64, error)
	Delete(ctx context.Context, id uint) error
}
