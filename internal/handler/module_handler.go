package handler

import (
	"net/http"

	"pos-backend/internal/middleware"
	"pos-backend/internal/service"
	"pos-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ModuleHandler struct {
	modService service.ModuleService
	authMW     *middleware.Auth
}

func NewModuleHandler(modService service.ModuleService, authMW *middleware.Auth) *ModuleHandler {
	return &ModuleHandler{modService: modService, authMW: authMW}
}

func (h *ModuleHandler) RegisterRoutes(router *gin.RouterGroup) {
	modules := router.Group("/api/modules")
	{
		// Any signed-in user may list what they can see; administration
		// requires settings permissions.
		modules.GET("/visible", h.authMW.RequireAuth(), h.VisibleModules)
		modules.GET("", h.authMW.RequirePermission("settings_read"), h.ListModules)
		modules.PATCH("/:id/active", h.authMW.RequirePermission("settings_update"), h.ToggleModule)
		modules.PATCH("/:id/permission", h.authMW.RequirePermission("settings_update"), h.SetRequiredPermission)
	}
}

// ListModules returns the full module table for administration
// @Summary      List modules
// @Tags         modules
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.ModuleResponse}
// @Router       /api/modules [get]
func (h *ModuleHandler) ListModules(c *gin.Context) {
	modules, err := h.modService.ListModules(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, modules))
}

// VisibleModules returns the modules the caller's role may reach
// @Summary      Visible modules
// @Tags         modules
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.ModuleResponse}
// @Router       /api/modules/visible [get]
func (h *ModuleHandler) VisibleModules(c *gin.Context) {
	sess := middleware.SessionFromContext(c)
	modules, err := h.modService.VisibleModules(c.Request.Context(), sess.RoleID)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, modules))
}

// ToggleModule enables or disables a module
// @Summary      Toggle module
// @Tags         modules
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                          true  "Module id"
// @Param        payload  body      service.ToggleModuleRequest  true  "Active flag"
// @Success      200      {object}  response.Response{data=service.ModuleResponse}
// @Router       /api/modules/{id}/active [patch]
func (h *ModuleHandler) ToggleModule(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid module id"))
		return
	}

	var req service.ToggleModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	module, err := h.modService.ToggleModule(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, module))
}

// SetRequiredPermission re-gates a module, or clears the gate with null
// @Summary      Set module permission
// @Tags         modules
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                                 true  "Module id"
// @Param        payload  body      service.SetModulePermissionRequest  true  "Gate permission (null clears)"
// @Success      200      {object}  response.Response{data=service.ModuleResponse}
// @Router       /api/modules/{id}/permission [patch]
func (h *ModuleHandler) SetRequiredPermission(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid module id"))
		return
	}

	var req service.SetModulePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	module, err := h.modService.SetRequiredPermission(c.Request.Context(), id, req.PermissionID)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, module))
}
