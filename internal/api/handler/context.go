package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/accessgate/access-system/internal/api/middleware"
	"github.com/accessgate/access-system/internal/core/domain"
)

// requireIdentity extracts the identity attached by the resolver middleware
// and fails fast with 401 when the request is anonymous. Routes behind
// RequireUser never hit the error path; handlers mounted without it do.
func requireIdentity(c echo.Context) (*domain.Identity, error) {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return identity, nil
}

// requireSession extracts both the identity and the session backing the
// request's bearer token. Logout and account deletion need the session handle
// to deactivate it.
func requireSession(c echo.Context) (*domain.Identity, *domain.Session, error) {
	identity, err := requireIdentity(c)
	if err != nil {
		return nil, nil, err
	}
	session := middleware.CurrentSession(c)
	if session == nil {
		return nil, nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return identity, session, nil
}
