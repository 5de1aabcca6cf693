package ports

import (
	"context"
	"time"

	"github.com/accessgate/access-system/internal/core/domain"
)

// RegisterInput carries the fields required to create an identity.
type RegisterInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	MiddleName string
}

// ProfileUpdate carries the mutable profile fields. Email is immutable after
// registration.
type ProfileUpdate struct {
	FirstName  string
	LastName   string
	MiddleName string
}

// AuthService owns identity lifecycle and credential verification.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.Identity, error)
	// Login verifies credentials and opens a session. Failure is always
	// domain.ErrInvalidCredentials, never revealing whether the email exists.
	Login(ctx context.Context, email, password string) (string, *domain.Identity, error)
	Logout(ctx context.Context, session *domain.Session) error
	UpdateProfile(ctx context.Context, identity *domain.Identity, update ProfileUpdate) (*domain.Identity, error)
	// SoftDelete deactivates the account and its current session. The row
	// survives; subsequent authentication behaves as if it never existed.
	SoftDelete(ctx context.Context, identity *domain.Identity, session *domain.Session) error
}

// SessionService is the session registry: it mints tokens and is the single
// authority on session validity.
type SessionService interface {
	// Open atomically deactivates any prior active sessions of the identity
	// and creates one new active session. Concurrent calls for the same
	// identity serialize; exactly one session ends up active.
	Open(ctx context.Context, identity *domain.Identity) (*domain.Session, error)
	LookupByToken(ctx context.Context, token string) (*domain.Session, error)
	// Invalidate deactivates a session. Idempotent.
	Invalidate(ctx context.Context, sessionID string) error
}

// TokenClaims is the decoded payload of a bearer token.
type TokenClaims struct {
	SubjectID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec issues and verifies signed bearer tokens. A decodable token is
// not an authorized one: session state governs validity.
type TokenCodec interface {
	Issue(subjectID string, issuedAt time.Time, ttl time.Duration) (string, error)
	Decode(token string) (TokenClaims, error)
}
