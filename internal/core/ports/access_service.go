package ports

import (
	"context"

	"github.com/accessgate/access-system/internal/core/domain"
)

// AccessService is the single entry point transport code calls to answer
// "who is this?" and "may they do X to Y?".
type AccessService interface {
	// Authenticate resolves a raw Authorization header value to an identity
	// and its session. Every failure mode collapses to anonymous (nil, nil,
	// false); it never returns an error to the caller. Expired sessions are
	// deactivated as a side effect of being looked up.
	Authenticate(ctx context.Context, bearerValue string) (*domain.Identity, *domain.Session, bool)
	// Authorize reports whether any of the identity's roles grants the
	// operation on the named resource. Unknown resources fail closed with no
	// error; unknown operation names fail closed with ErrUnknownOperation.
	Authorize(ctx context.Context, identity *domain.Identity, resourceName, operation string) (bool, error)
}
