package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/accessgate/access-system/internal/api/metrics"
	"github.com/accessgate/access-system/internal/core/domain"
	"github.com/accessgate/access-system/internal/core/ports"
)

const (
	// IdentityKey and SessionKey are the echo context keys the resolver
	// populates for downstream handlers.
	IdentityKey = "identity"
	SessionKey  = "session"
)

// Resolve authenticates the bearer token and injects the identity and session
// into the request context. It never rejects: an unauthenticated request
// proceeds as anonymous, and it is the protected routes' job to refuse it.
func Resolve(access ports.AccessService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			bearer := c.Request().Header.Get("Authorization")

			identity, session, ok := access.Authenticate(c.Request().Context(), bearer)
			if ok {
				c.Set(IdentityKey, identity)
				c.Set(SessionKey, session)
				metrics.AuthResolutionsTotal.WithLabelValues("authenticated").Inc()
			} else {
				metrics.AuthResolutionsTotal.WithLabelValues("anonymous").Inc()
			}

			return next(c)
		}
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentIdentity(c) == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			return next(c)
		}
	}
}

// CurrentIdentity returns the authenticated identity, or nil when anonymous.
func CurrentIdentity(c echo.Context) *domain.Identity {
	identity, _ := c.Get(IdentityKey).(*domain.Identity)
	return identity
}

// CurrentSession returns the session behind the request's bearer token, or
// nil when anonymous.
func CurrentSession(c echo.Context) *domain.Session {
	session, _ := c.Get(SessionKey).(*domain.Session)
	return session
}
