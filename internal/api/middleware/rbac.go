package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/accessgate/access-system/internal/api/metrics"
	"github.com/accessgate/access-system/internal/core/ports"
)

// Require gates a route behind the permission matrix: the identity must hold
// at least one of the given operations on the resource. Passing both the own
// scope and the *All scope (e.g. "update", "update_all") admits callers that
// hold either capability; ownership filtering stays with the handler.
func Require(access ports.AccessService, resource string, operations ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := CurrentIdentity(c)
			if identity == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			for _, op := range operations {
				allowed, err := access.Authorize(c.Request().Context(), identity, resource, op)
				if err != nil {
					return err
				}
				if allowed {
					metrics.PermissionChecksTotal.WithLabelValues(resource, "granted").Inc()
					return next(c)
				}
			}

			metrics.PermissionChecksTotal.WithLabelValues(resource, "denied").Inc()
			return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
		}
	}
}
