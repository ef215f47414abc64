package ports

import (
	"context"

	"github.com/stockroom/inventory-system/internal/core/domain"
	"github.com/stockroom/inventory-system/pkg/pagination"
)

// UserService covers account administration.
type UserService interface {
	Me(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, page pagination.Params) ([]domain.User, int64, error)
	ChangeRole(ctx context.Context, actor string, id uint, role domain.Role) (*domain.User, error)
	Delete(ctx context.Context, actor string, id uint) error
}
