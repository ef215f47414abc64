package ports

import (
	"context"

	"github.com/stockroom/inventory-system/internal/core/domain"
	"github.com/stockroom/inventory-system/pkg/pagination"
)

// ProductRepository persists products. SKU is unique.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	FindByID(ctx context.Context, id uint) (*domain.Product, error)
	List(ctx context.Context, page pagination.Params) ([]domain.Product, int64, error)
	UpdateQuantity(ctx context.Context, id uint, quantity int) (*domain.Product, error)
	Delete(ctx context.Context, id uint) error
}
