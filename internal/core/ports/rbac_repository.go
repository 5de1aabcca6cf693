package ports

import (
	"context"

	"github.com/accessgate/access-system/internal/core/domain"
)

// RoleRepository owns role rows. DeleteRole cascades: dependent grants and
// role assignments are removed in the same call.
type RoleRepository interface {
	CreateRole(ctx context.Context, role *domain.Role) (*domain.Role, error)
	FindRoleByName(ctx context.Context, name string) (*domain.Role, error)
	ListRoles(ctx context.Context) ([]*domain.Role, error)
	RenameRole(ctx context.Context, roleID, name, description string) error
	DeleteRole(ctx context.Context, roleID string) error
}

// ResourceRepository owns resource rows. DeleteResource cascades dependent
// grants.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource *domain.Resource) (*domain.Resource, error)
	FindResourceByName(ctx context.Context, name string) (*domain.Resource, error)
	ListResources(ctx context.Context) ([]*domain.Resource, error)
	DeleteResource(ctx context.Context, resourceID string) error
}

// GrantRepository owns permission grants, unique per (role, resource).
// Upsert replaces the seven flags when the pair already exists.
type GrantRepository interface {
	UpsertGrant(ctx context.Context, grant *domain.PermissionGrant) error
	FindGrant(ctx context.Context, roleID, resourceID string) (*domain.PermissionGrant, error)
	ListGrants(ctx context.Context) ([]*domain.PermissionGrant, error)
	DeleteGrant(ctx context.Context, roleID, resourceID string) error
}

// AssignmentRepository owns the identity↔role relation, unique per pair.
type AssignmentRepository interface {
	Assign(ctx context.Context, identityID, roleID string) error
	Unassign(ctx context.Context, identityID, roleID string) error
	RolesFor(ctx context.Context, identityID string) ([]string, error)
}
