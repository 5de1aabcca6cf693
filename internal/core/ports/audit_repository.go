package ports

import (
	"context"

	"github.com/accessgate/access-system/internal/core/domain"
)

// AuditRepository appends account events to the audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
}

// AuditSink accepts audit events for asynchronous recording. Implementations
// must not block the caller beyond a bounded buffer.
type AuditSink interface {
	Record(event domain.AuditEvent)
}
