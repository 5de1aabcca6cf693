package domain

import (
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")
var ErrTokenInvalid = errors.New("invalid token")

// Session binds an issued token to an identity with a validity window. The
// session row, not the token's own expiry claim, is the authoritative
// revocation point: a cryptographically valid token is worthless once its
// session is deactivated.
type Session struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	IdentityID string    `json:"identity_id" bson:"identity_id"`
	Token      string    `json:"token" bson:"token"`
	IssuedAt   time.Time `json:"issued_at" bson:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at" bson:"expires_at"`
	Active     bool      `json:"is_active" bson:"is_active"`
}

// Valid reports whether the session authorizes requests at the given instant.
// Re-evaluated on every use; never cached.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.Active && now.Before(s.ExpiresAt)
}

// Expired reports whether the wall-clock validity window has passed,
// regardless of the active flag.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !now.Before(s.ExpiresAt)
}
