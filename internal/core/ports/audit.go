package ports

import (
	"context"

	"github.com/stockroom/inventory-system/internal/core/domain"
)

// AuditRepository appends audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
}

// AuditSink accepts events for asynchronous persistence. Record must not
// block the caller on storage.
type AuditSink interface {
	Record(event domain.AuditEvent)
}
