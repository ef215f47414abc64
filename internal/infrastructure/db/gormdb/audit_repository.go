package gormdb

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/stockroom/inventory-system/internal/core/domain"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, e *domain.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	m := auditModel{
		ID:      e.ID,
		Action:  string(e.Action),
		Actor:   e.Actor,
		Target:  e.Target,
		Outcome: e.Outcome,
		Detail:  e.Detail,
		At:      e.At,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("insert audit event: %w", translate(err))
	}
	return nil
}
