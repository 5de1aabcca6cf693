package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/accessgate/access-system/internal/core/domain"
	"github.com/accessgate/access-system/internal/core/ports"
)

const bearerScheme = "bearer"

// AccessService composes the authentication resolver and the permission
// matrix behind the two questions transport code asks: who is this, and may
// they do X to Y.
type AccessService struct {
	identities  ports.IdentityRepository
	sessions    ports.SessionService
	codec       ports.TokenCodec
	resources   ports.ResourceRepository
	grants      ports.GrantRepository
	assignments ports.AssignmentRepository

	now func() time.Time

	// reaped is invoked whenever an expired session is deactivated during
	// lookup. Instrumentation hangs off it so this package stays free of
	// transport-layer imports.
	reaped func()
}

func NewAccessService(
	identities ports.IdentityRepository,
	sessions ports.SessionService,
	codec ports.TokenCodec,
	resources ports.ResourceRepository,
	grants ports.GrantRepository,
	assignments ports.AssignmentRepository,
) *AccessService {
	return &AccessService{
		identities:  identities,
		sessions:    sessions,
		codec:       codec,
		resources:   resources,
		grants:      grants,
		assignments: assignments,
		now:         time.Now,
		reaped:      func() {},
	}
}

// OnSessionReaped registers a callback fired each time an expired session is
// deactivated during Authenticate.
func (s *AccessService) OnSessionReaped(fn func()) {
	if fn != nil {
		s.reaped = fn
	}
}

// Authenticate resolves a raw Authorization header value. Every failure mode
// collapses to anonymous; authentication failure is never fatal to request
// processing. A found-but-expired session is deactivated on the spot rather
// than silently ignored.
func (s *AccessService) Authenticate(ctx context.Context, bearerValue string) (*domain.Identity, *domain.Session, bool) {
	parts := strings.SplitN(bearerValue, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], bearerScheme) {
		return nil, nil, false
	}
	token := strings.TrimSpace(parts[1])

	if _, err := s.codec.Decode(token); err != nil {
		return nil, nil, false
	}

	session, err := s.sessions.LookupByToken(ctx, token)
	if err != nil {
		return nil, nil, false
	}
	now := s.now()
	if !session.Valid(now) {
		if session.Active && session.Expired(now) {
			// Cleanup on read: there is no background sweep.
			_ = s.sessions.Invalidate(ctx, session.ID)
			s.reaped()
		}
		return nil, nil, false
	}

	identity, err := s.identities.FindByID(ctx, session.IdentityID)
	if err != nil || !identity.Alive() {
		return nil, nil, false
	}

	return identity, session, true
}

// Authorize answers whether any of the identity's roles grants the operation
// on the named resource. The check is a union of capabilities across roles: a
// role with no grant row for the resource is skipped, never treated as a
// deny, and the first role carrying the flag wins.
func (s *AccessService) Authorize(ctx context.Context, identity *domain.Identity, resourceName, operation string) (bool, error) {
	if identity == nil {
		return false, nil
	}

	op, err := domain.ParseOperation(operation)
	if err != nil {
		return false, err
	}

	resource, err := s.resources.FindResourceByName(ctx, resourceName)
	if err != nil {
		if errors.Is(err, domain.ErrResourceNotFound) {
			// Undefined resource grants nothing.
			return false, nil
		}
		return false, err
	}

	roleIDs, err := s.assignments.RolesFor(ctx, identity.ID)
	if err != nil {
		return false, err
	}

	for _, roleID := range roleIDs {
		grant, err := s.grants.FindGrant(ctx, roleID, resource.ID)
		if err != nil {
			if errors.Is(err, domain.ErrGrantNotFound) {
				// No rule for this role does not block another role's grant.
				continue
			}
			return false, err
		}
		if grant.Allows(op) {
			return true, nil
		}
	}
	return false, nil
}
