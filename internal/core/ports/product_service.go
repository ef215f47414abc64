package ports

import (
	"context"

	"github.com/stockroom/inventory-system/internal/core/domain"
	"github.com/stockroom/inventory-system/pkg/pagination"
)

type CreateProductInput struct {
	Name        string
	Type        string
	SKU         string
	ImageURL    string
	Description string
	Quantity    int
	Price       float64
}

type ProductService interface {
	Create(ctx context.Context, actor string, in CreateProductInput) (*domain.Product, error)
	Get(ctx context.Context, id uint) (*domain.Product, error)
	List(ctx context.Context, page pagination.Params) ([]domain.Product, int64, error)
	UpdateQuantity(ctx context.Context, actor string, id uint, quantity int) (*domain.Product, error)
	Delete(ctx context.Context, actor string, id uint) error
}
