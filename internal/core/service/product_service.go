package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-system/internal/core/domain"
	"github.com/stockroom/inventory-system/internal/core/ports"
	"github.com/stockroom/inventory-system/pkg/pagination"
)

type productService struct {
	repo  ports.ProductRepository
	audit ports.AuditSink
	log   zerolog.Logger
}

// NewProductService returns a ProductService implementation. A nil audit
// sink disables auditing.
func NewProductService(repo ports.ProductRepository, audit ports.AuditSink, log zerolog.Logger) ports.ProductService {
	if audit == nil {
		audit = noopAudit{}
	}
	return &productService{repo: repo, audit: audit, log: log}
}

func (s *productService) Create(ctx context.Context, actor string, in ports.CreateProductInput) (*domain.Product, error) {
	sku := strings.TrimSpace(in.SKU)
	name := strings.TrimSpace(in.Name)
	if sku == "" || name == "" {
		return nil, fmt.Errorf("%w: name and sku are required", domain.ErrInvalidInput)
	}
	if in.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", domain.ErrInvalidInput)
	}
	if in.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	p, err := s.repo.Create(ctx, &domain.Product{
		Name:        name,
		Type:        strings.TrimSpace(in.Type),
		SKU:         sku,
		ImageURL:    in.ImageURL,
		Description: in.Description,
		Quantity:    in.Quantity,
		Price:       in.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("create product %s: %w", sku, err)
	}

	s.log.Info().Str("actor", actor).Str("sku", p.SKU).Uint("product_id", p.ID).Msg("product created")
	s.record(domain.AuditProductCreate, actor, p.ID, "sku="+p.SKU)
	return p, nil
}

func (s *productService) Get(ctx context.Context, id uint) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (s *productService) List(ctx context.Context, page pagination.Params) ([]domain.Product, int64, error) {
	items, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return items, total, nil
}

func (s *productService) UpdateQuantity(ctx context.Context, actor string, id uint, quantity int) (*domain.Product, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", domain.ErrInvalidInput)
	}

	p, err := s.repo.UpdateQuantity(ctx, id, quantity)
	if err != nil {
		return nil, fmt.Errorf("update quantity of product %d: %w", id, err)
	}

	s.log.Info().Str("actor", actor).Uint("product_id", id).Int("quantity", quantity).Msg("product quantity updated")
	s.record(domain.AuditProductUpdate, actor, id, "quantity="+strconv.Itoa(quantity))
	return p, nil
}

func (s *productService) Delete(ctx context.Context, actor string, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	s.log.Info().Str("actor", actor).Uint("product_id", id).Msg("product deleted")
	s.record(domain.AuditProductDelete, actor, id, "")
	return nil
}

func (s *productService) record(action domain.AuditAction, actor string, id uint, detail string) {
	s.audit.Record(domain.AuditEvent{
		Action:  action,
		Actor:   actor,
		Target:  "product:" + strconv.FormatUint(uint64(id), 10),
		Outcome: domain.OutcomeSuccess,
		Detail:  detail,
	})
}
