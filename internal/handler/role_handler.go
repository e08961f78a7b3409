package handler

import (
	"net/http"

	"pos-backend/internal/middleware"
	"pos-backend/internal/service"
	"pos-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService service.RoleService
	authMW      *middleware.Auth
}

func NewRoleHandler(roleService service.RoleService, authMW *middleware.Auth) *RoleHandler {
	return &RoleHandler{roleService: roleService, authMW: authMW}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/api/roles")
	{
		roles.GET("", h.authMW.RequirePermission("settings_read"), h.ListRoles)
		roles.GET("/:id", h.authMW.RequirePermission("settings_read"), h.GetRole)
		roles.POST("", h.authMW.RequirePermission("settings_write"), h.CreateRole)
		roles.PUT("/:id", h.authMW.RequirePermission("settings_update"), h.UpdateRole)
		roles.DELETE("/:id", h.authMW.RequirePermission("settings_delete"), h.DeleteRole)
		roles.PUT("/:id/permissions", h.authMW.RequirePermission("settings_update"), h.ReplacePermissions)
	}

	perms := router.Group("/api/permissions")
	{
		perms.GET("", h.authMW.RequirePermission("settings_read"), h.ListPermissions)
		perms.DELETE("/:id", h.authMW.RequirePermission("settings_delete"), h.DeletePermission)
	}
}

// ListRoles returns every role with its permissions
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RoleResponse}
// @Router       /api/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// GetRole returns one role by id
// @Summary      Get role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Role id"
// @Success      200  {object}  response.Response{data=service.RoleResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid role id"))
		return
	}

	role, err := h.roleService.GetRole(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// CreateRole adds a role, optionally with an initial permission set
// @Summary      Create role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRoleRequest  true  "New role"
// @Success      201      {object}  response.Response{data=service.RoleResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, role))
}

// UpdateRole renames a role or changes its description
// @Summary      Update role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                        true  "Role id"
// @Param        payload  body      service.UpdateRoleRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=service.RoleResponse}
// @Router       /api/roles/{id} [put]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid role id"))
		return
	}

	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.UpdateRole(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// DeleteRole removes a role no user references
// @Summary      Delete role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Role id"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response  "Role still assigned to users"
// @Router       /api/roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid role id"))
		return
	}

	if err := h.roleService.DeleteRole(c.Request.Context(), id); err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	h.authMW.ClearPermissionCache(&id)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Role deleted successfully"}))
}

// ReplacePermissions swaps a role's whole permission set atomically
// @Summary      Replace role permissions
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                                true  "Role id"
// @Param        payload  body      service.ReplacePermissionsRequest  true  "Complete permission set"
// @Success      200      {object}  response.Response{data=service.RoleResponse}
// @Router       /api/roles/{id}/permissions [put]
func (h *RoleHandler) ReplacePermissions(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid role id"))
		return
	}

	var req service.ReplacePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.ReplaceRolePermissions(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	// The gate caches permission keys per role; drop the stale entry
	h.authMW.ClearPermissionCache(&id)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// ListPermissions returns the fixed permission vocabulary
// @Summary      List permissions
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.PermissionResponse}
// @Router       /api/permissions [get]
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roleService.ListPermissions(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// DeletePermission removes an unreferenced permission key
// @Summary      Delete permission
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Permission id"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response  "Permission still referenced"
// @Router       /api/permissions/{id} [delete]
func (h *RoleHandler) DeletePermission(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid permission id"))
		return
	}

	if err := h.roleService.DeletePermission(c.Request.Context(), id); err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Permission deleted successfully"}))
}
