package ports

import (
	"context"

	"github.com/accessgate/access-system/internal/core/domain"
)

// GrantInput addresses a grant by role and resource name and carries the
// seven capability flags to apply.
type GrantInput struct {
	RoleName     string
	ResourceName string
	Read         bool
	ReadAll      bool
	Create       bool
	Update       bool
	UpdateAll    bool
	Delete       bool
	DeleteAll    bool
}

// RBACAdminService manages roles, resources, grants and role assignments.
// All lookups are by name; ids stay an implementation detail of the store.
type RBACAdminService interface {
	CreateRole(ctx context.Context, name, description string) (*domain.Role, error)
	ListRoles(ctx context.Context) ([]*domain.Role, error)
	RenameRole(ctx context.Context, name, newName, description string) error
	// DeleteRole cascades: dependent grants and assignments are removed.
	DeleteRole(ctx context.Context, name string) error

	CreateResource(ctx context.Context, name, description string) (*domain.Resource, error)
	ListResources(ctx context.Context) ([]*domain.Resource, error)
	// DeleteResource cascades: dependent grants are removed.
	DeleteResource(ctx context.Context, name string) error

	// ApplyGrant writes the seven flags for (role, resource), replacing any
	// existing rule for the pair.
	ApplyGrant(ctx context.Context, input GrantInput) error
	ListGrants(ctx context.Context) ([]*domain.PermissionGrant, error)
	RevokeGrant(ctx context.Context, roleName, resourceName string) error

	AssignRole(ctx context.Context, email, roleName string) error
	UnassignRole(ctx context.Context, email, roleName string) error

	ListIdentities(ctx context.Context) ([]*domain.Identity, error)
}
