package domain

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidInput = errors.New("invalid input")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrIdentityExists = errors.New("identity already registered")
var ErrIdentityNotFound = errors.New("identity not found")
var ErrTooManyAttempts = errors.New("too many login attempts")
var ErrForbidden = errors.New("access forbidden")

// Identity models a registered user of the system. Rows are never physically
// removed: soft deletion flips Active off and stamps DeletedAt, after which
// the identity must behave exactly like a nonexistent one on every
// authentication and authorization path.
type Identity struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	Email        string     `json:"email" bson:"email"`
	FirstName    string     `json:"first_name" bson:"first_name"`
	LastName     string     `json:"last_name" bson:"last_name"`
	MiddleName   string     `json:"middle_name,omitempty" bson:"middle_name,omitempty"`
	PasswordHash string     `json:"-" bson:"password_hash"`
	Active       bool       `json:"is_active" bson:"is_active"`
	JoinedAt     time.Time  `json:"joined_at" bson:"joined_at"`
	DeletedAt    *time.Time `json:"-" bson:"deleted_at,omitempty"`
}

// Alive reports whether the identity may authenticate at all.
func (i *Identity) Alive() bool {
	return i != nil && i.Active && i.DeletedAt == nil
}

// NormalizeEmail canonicalizes an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
