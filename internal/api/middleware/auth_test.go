package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/accessgate/access-system/internal/core/domain"
)

// stubAccess resolves one hard-wired token and grants one hard-wired
// (resource, operation) pair.
type stubAccess struct {
	token    string
	identity *domain.Identity
	session  *domain.Session

	resource  string
	operation string
}

func (s *stubAccess) Authenticate(_ context.Context, bearerValue string) (*domain.Identity, *domain.Session, bool) {
	if bearerValue == "Bearer "+s.token {
		return s.identity, s.session, true
	}
	return nil, nil, false
}

func (s *stubAccess) Authorize(_ context.Context, identity *domain.Identity, resourceName, operation string) (bool, error) {
	if identity == nil {
		return false, nil
	}
	if _, err := domain.ParseOperation(operation); err != nil {
		return false, err
	}
	return resourceName == s.resource && operation == s.operation, nil
}

func newStubAccess() *stubAccess {
	return &stubAccess{
		token:    "good-token",
		identity: &domain.Identity{ID: "identity-1", Email: "ada@example.com", Active: true},
		session:  &domain.Session{ID: "session-1", IdentityID: "identity-1", Active: true},
	}
}

func performRequest(t *testing.T, mw []echo.MiddlewareFunc, authorization string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, c
}

func TestResolve_ValidToken(t *testing.T) {
	access := newStubAccess()

	rec, c := performRequest(t, []echo.MiddlewareFunc{Resolve(access)}, "Bearer good-token")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	identity := CurrentIdentity(c)
	if identity == nil || identity.ID != "identity-1" {
		t.Errorf("CurrentIdentity = %+v, want identity-1", identity)
	}
	session := CurrentSession(c)
	if session == nil || session.ID != "session-1" {
		t.Errorf("CurrentSession = %+v, want session-1", session)
	}
}

func TestResolve_BadTokenProceedsAnonymous(t *testing.T) {
	access := newStubAccess()

	rec, c := performRequest(t, []echo.MiddlewareFunc{Resolve(access)}, "Bearer forged")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (resolver never rejects)", rec.Code)
	}
	if CurrentIdentity(c) != nil {
		t.Error("CurrentIdentity set for an invalid token")
	}
}

func TestResolve_NoHeaderProceedsAnonymous(t *testing.T) {
	access := newStubAccess()

	rec, c := performRequest(t, []echo.MiddlewareFunc{Resolve(access)}, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if CurrentIdentity(c) != nil {
		t.Error("CurrentIdentity set without an Authorization header")
	}
}

func TestRequireUser_RejectsAnonymous(t *testing.T) {
	access := newStubAccess()

	rec, _ := performRequest(t, []echo.MiddlewareFunc{Resolve(access), RequireUser()}, "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireUser_AdmitsAuthenticated(t *testing.T) {
	access := newStubAccess()

	rec, _ := performRequest(t, []echo.MiddlewareFunc{Resolve(access), RequireUser()}, "Bearer good-token")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
