package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/accessgate/access-system/internal/core/domain"
	"github.com/accessgate/access-system/internal/core/ports"
)

const tokenIssuer = "access-system"

// TokenCodec signs and verifies bearer tokens with HS256. The secret is
// process-wide configuration and never travels inside the token.
type TokenCodec struct {
	secret []byte
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret)}
}

// Issue produces a signed token carrying the subject id and expiry.
func (c *TokenCodec) Issue(subjectID string, issuedAt time.Time, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		ID:        uuid.NewString(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Decode verifies the signature and structure of a token and returns its
// claims. It fails with domain.ErrTokenInvalid on a bad signature, malformed
// structure, or unexpected algorithm. A successful decode says nothing about
// whether the session behind the token is still active.
func (c *TokenCodec) Decode(token string) (ports.TokenClaims, error) {
	// Expiry is deliberately not validated here: the session row is the
	// authority on whether a token is still good, and an expired session must
	// still be findable so it can be reaped on read.
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !parsed.Valid {
		return ports.TokenClaims{}, domain.ErrTokenInvalid
	}
	if claims.Subject == "" || claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return ports.TokenClaims{}, domain.ErrTokenInvalid
	}
	return ports.TokenClaims{
		SubjectID: claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
