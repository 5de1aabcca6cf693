package ports

import (
	"context"

	"github.com/accessgate/access-system/internal/core/domain"
)

// IdentityRepository defines the persistence interface for identity rows.
// Implementations must enforce email uniqueness and must never physically
// remove rows.
type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	Update(ctx context.Context, identity *domain.Identity) error
	List(ctx context.Context) ([]*domain.Identity, error)
}
