package service

import (
	"context"
	"strings"

	"github.com/accessgate/access-system/internal/core/domain"
	"github.com/accessgate/access-system/internal/core/ports"
)

// RBACService implements the administrative surface of the permission matrix.
// All operations address roles and resources by name and resolve ids through
// the repositories; cascade behavior on deletion lives in the store.
type RBACService struct {
	identities  ports.IdentityRepository
	roles       ports.RoleRepository
	resources   ports.ResourceRepository
	grants      ports.GrantRepository
	assignments ports.AssignmentRepository
}

func NewRBACService(
	identities ports.IdentityRepository,
	roles ports.RoleRepository,
	resources ports.ResourceRepository,
	grants ports.GrantRepository,
	assignments ports.AssignmentRepository,
) *RBACService {
	return &RBACService{
		identities:  identities,
		roles:       roles,
		resources:   resources,
		grants:      grants,
		assignments: assignments,
	}
}

func (s *RBACService) CreateRole(ctx context.Context, name, description string) (*domain.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.roles.CreateRole(ctx, &domain.Role{Name: name, Description: description})
}

func (s *RBACService) ListRoles(ctx context.Context) ([]*domain.Role, error) {
	return s.roles.ListRoles(ctx)
}

func (s *RBACService) RenameRole(ctx context.Context, name, newName, description string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return domain.ErrInvalidInput
	}
	role, err := s.roles.FindRoleByName(ctx, name)
	if err != nil {
		return err
	}
	return s.roles.RenameRole(ctx, role.ID, newName, description)
}

func (s *RBACService) DeleteRole(ctx context.Context, name string) error {
	role, err := s.roles.FindRoleByName(ctx, name)
	if err != nil {
		return err
	}
	return s.roles.DeleteRole(ctx, role.ID)
}

func (s *RBACService) CreateResource(ctx context.Context, name, description string) (*domain.Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.resources.CreateResource(ctx, &domain.Resource{Name: name, Description: description})
}

func (s *RBACService) ListResources(ctx context.Context) ([]*domain.Resource, error) {
	return s.resources.ListResources(ctx)
}

func (s *RBACService) DeleteResource(ctx context.Context, name string) error {
	resource, err := s.resources.FindResourceByName(ctx, name)
	if err != nil {
		return err
	}
	return s.resources.DeleteResource(ctx, resource.ID)
}

func (s *RBACService) ApplyGrant(ctx context.Context, input ports.GrantInput) error {
	role, err := s.roles.FindRoleByName(ctx, input.RoleName)
	if err != nil {
		return err
	}
	resource, err := s.resources.FindResourceByName(ctx, input.ResourceName)
	if err != nil {
		return err
	}
	return s.grants.UpsertGrant(ctx, &domain.PermissionGrant{
		RoleID:     role.ID,
		ResourceID: resource.ID,
		Read:       input.Read,
		ReadAll:    input.ReadAll,
		Create:     input.Create,
		Update:     input.Update,
		UpdateAll:  input.UpdateAll,
		Delete:     input.Delete,
		DeleteAll:  input.DeleteAll,
	})
}

func (s *RBACService) ListGrants(ctx context.Context) ([]*domain.PermissionGrant, error) {
	return s.grants.ListGrants(ctx)
}

func (s *RBACService) RevokeGrant(ctx context.Context, roleName, resourceName string) error {
	role, err := s.roles.FindRoleByName(ctx, roleName)
	if err != nil {
		return err
	}
	resource, err := s.resources.FindResourceByName(ctx, resourceName)
	if err != nil {
		return err
	}
	return s.grants.DeleteGrant(ctx, role.ID, resource.ID)
}

func (s *RBACService) AssignRole(ctx context.Context, email, roleName string) error {
	identity, err := s.identities.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return err
	}
	role, err := s.roles.FindRoleByName(ctx, roleName)
	if err != nil {
		return err
	}
	return s.assignments.Assign(ctx, identity.ID, role.ID)
}

func (s *RBACService) UnassignRole(ctx context.Context, email, roleName string) error {
	identity, err := s.identities.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return err
	}
	role, err := s.roles.FindRoleByName(ctx, roleName)
	if err != nil {
		return err
	}
	return s.assignments.Unassign(ctx, identity.ID, role.ID)
}

func (s *RBACService) ListIdentities(ctx context.Context) ([]*domain.Identity, error) {
	return s.identities.List(ctx)
}
