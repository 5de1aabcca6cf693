package middleware

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRequire_GrantedOperation(t *testing.T) {
	access := newStubAccess()
	access.resource = "products"
	access.operation = "read"

	mw := []echo.MiddlewareFunc{Resolve(access), RequireUser(), Require(access, "products", "read")}
	rec, _ := performRequest(t, mw, "Bearer good-token")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequire_DeniedOperation(t *testing.T) {
	access := newStubAccess()
	access.resource = "products"
	access.operation = "read"

	mw := []echo.MiddlewareFunc{Resolve(access), RequireUser(), Require(access, "products", "delete")}
	rec, _ := performRequest(t, mw, "Bearer good-token")

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

// A route gated on both the own scope and the *All scope admits a caller
// holding either one.
func TestRequire_EitherScopeAdmits(t *testing.T) {
	access := newStubAccess()
	access.resource = "products"
	access.operation = "update_all"

	mw := []echo.MiddlewareFunc{Resolve(access), RequireUser(), Require(access, "products", "update", "update_all")}
	rec, _ := performRequest(t, mw, "Bearer good-token")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequire_AnonymousGets401Not403(t *testing.T) {
	access := newStubAccess()
	access.resource = "products"
	access.operation = "read"

	mw := []echo.MiddlewareFunc{Resolve(access), Require(access, "products", "read")}
	rec, _ := performRequest(t, mw, "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
