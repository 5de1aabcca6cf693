package ports

import (
	"context"

	"github.com/accessgate/access-system/internal/core/domain"
)

// SessionRepository persists session rows. Deactivated and expired rows are
// kept for audit; only the active flag changes.
type SessionRepository interface {
	Insert(ctx context.Context, session *domain.Session) (*domain.Session, error)
	FindByToken(ctx context.Context, token string) (*domain.Session, error)
	// DeactivateAll flips the active flag off for every active session of the
	// identity and returns how many rows changed.
	DeactivateAll(ctx context.Context, identityID string) (int64, error)
	// Deactivate flips the active flag off for one session. Idempotent.
	Deactivate(ctx context.Context, sessionID string) error
}
