package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/accessgate/access-system/internal/core/ports"
)

// AdminHandler exposes the RBAC management API. Every route is gated by the
// router behind permissions on the access_rules resource, so the handler
// itself only validates shapes and delegates.
type AdminHandler struct {
	rbac ports.RBACAdminService
}

func NewAdminHandler(rbac ports.RBACAdminService) *AdminHandler {
	return &AdminHandler{rbac: rbac}
}

// --- Roles ---

// ListRoles handles GET /api/admin/roles.
func (h *AdminHandler) ListRoles(c echo.Context) error {
	roles, err := h.rbac.ListRoles(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, roles)
}

// CreateRole handles POST /api/admin/roles.
func (h *AdminHandler) CreateRole(c echo.Context) error {
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	role, err := h.rbac.CreateRole(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, role)
}

// RenameRole handles PUT /api/admin/roles/:name.
func (h *AdminHandler) RenameRole(c echo.Context) error {
	var req renameRoleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if err := h.rbac.RenameRole(c.Request().Context(), c.Param("name"), req.Name, req.Description); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "role updated"})
}

// DeleteRole handles DELETE /api/admin/roles/:name. Grants and assignments
// referencing the role are removed with it.
func (h *AdminHandler) DeleteRole(c echo.Context) error {
	if err := h.rbac.DeleteRole(c.Request().Context(), c.Param("name")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "role deleted"})
}

// --- Resources ---

// ListResources handles GET /api/admin/resources.
func (h *AdminHandler) ListResources(c echo.Context) error {
	resources, err := h.rbac.ListResources(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resources)
}

// CreateResource handles POST /api/admin/resources.
func (h *AdminHandler) CreateResource(c echo.Context) error {
	var req resourceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	resource, err := h.rbac.CreateResource(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resource)
}

// DeleteResource handles DELETE /api/admin/resources/:name. Grants on the
// resource are removed with it.
func (h *AdminHandler) DeleteResource(c echo.Context) error {
	if err := h.rbac.DeleteResource(c.Request().Context(), c.Param("name")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "resource deleted"})
}

// --- Grants ---

// ListGrants handles GET /api/admin/grants.
func (h *AdminHandler) ListGrants(c echo.Context) error {
	grants, err := h.rbac.ListGrants(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, grants)
}

// ApplyGrant handles PUT /api/admin/grants. Re-applying a grant for an
// existing (role, resource) pair overwrites the seven flags.
func (h *AdminHandler) ApplyGrant(c echo.Context) error {
	var req grantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	err := h.rbac.ApplyGrant(c.Request().Context(), ports.GrantInput{
		RoleName:     req.Role,
		ResourceName: req.Resource,
		Read:         req.Read,
		ReadAll:      req.ReadAll,
		Create:       req.Create,
		Update:       req.Update,
		UpdateAll:    req.UpdateAll,
		Delete:       req.Delete,
		DeleteAll:    req.DeleteAll,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "grant applied"})
}

// RevokeGrant handles DELETE /api/admin/grants/:role/:resource.
func (h *AdminHandler) RevokeGrant(c echo.Context) error {
	if err := h.rbac.RevokeGrant(c.Request().Context(), c.Param("role"), c.Param("resource")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "grant revoked"})
}

// --- Assignments ---

// AssignRole handles POST /api/admin/assignments.
func (h *AdminHandler) AssignRole(c echo.Context) error {
	var req assignmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if err := h.rbac.AssignRole(c.Request().Context(), req.Email, req.Role); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "role assigned"})
}

// UnassignRole handles DELETE /api/admin/assignments.
func (h *AdminHandler) UnassignRole(c echo.Context) error {
	var req assignmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if err := h.rbac.UnassignRole(c.Request().Context(), req.Email, req.Role); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "role unassigned"})
}

// --- Users ---

// ListIdentities handles GET /api/users.
func (h *AdminHandler) ListIdentities(c echo.Context) error {
	identities, err := h.rbac.ListIdentities(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]identityResponse, 0, len(identities))
	for _, identity := range identities {
		out = append(out, toIdentityResponse(identity))
	}
	return c.JSON(http.StatusOK, out)
}
