package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/accessgate/access-system/internal/api/metrics"
	"github.com/accessgate/access-system/internal/api/middleware"
	"github.com/accessgate/access-system/internal/core/domain"
	"github.com/accessgate/access-system/internal/core/ports"
)

// AuthHandler handles registration, login and the account endpoints.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new account.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  identityResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	identity, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toIdentityResponse(identity))
}

// Login authenticates an account and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /api/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	token, identity, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrTooManyAttempts) {
			metrics.LoginsTotal.WithLabelValues("throttled").Inc()
		} else {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	metrics.SessionsOpenedTotal.Inc()

	return c.JSON(http.StatusOK, loginResponse{
		Token: token,
		User:  toIdentityResponse(identity),
	})
}

// Logout deactivates the current session.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	_, session, err := requireSession(c)
	if err != nil {
		return err
	}

	if err := h.authService.Logout(c.Request().Context(), session); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// Profile returns the authenticated account.
//
// @Summary      Get own profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  identityResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toIdentityResponse(identity))
}

// UpdateProfile updates the mutable profile fields of the authenticated
// account. Email is immutable.
//
// @Summary      Update own profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileUpdateRequest  true  "Profile fields"
// @Success      200   {object}  identityResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/profile [put]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}

	var req profileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	updated, err := h.authService.UpdateProfile(c.Request().Context(), identity, ports.ProfileUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toIdentityResponse(updated))
}

// DeleteAccount soft-deletes the authenticated account and invalidates its
// session. The row survives for audit; the account can no longer log in.
//
// @Summary      Delete own account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/delete-account [delete]
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}

	if err := h.authService.SoftDelete(c.Request().Context(), identity, middleware.CurrentSession(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "account deleted"})
}

func toIdentityResponse(identity *domain.Identity) identityResponse {
	return identityResponse{
		ID:         identity.ID,
		Email:      identity.Email,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
		MiddleName: identity.MiddleName,
		Active:     identity.Active,
	}
}
