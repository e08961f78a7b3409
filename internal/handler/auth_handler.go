package handler

import (
	"net/http"

	"pos-backend/internal/middleware"
	"pos-backend/internal/service"
	"pos-backend/internal/session"
	"pos-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token         string `json:"token"`
	Username      string `json:"username"`
	RoleName      string `json:"role_name"`
	CurrentModule string `json:"current_module"`
}

type NavigateRequest struct {
	Module string `json:"module" binding:"required"`
}

type MeResponse struct {
	Username      string                   `json:"username"`
	RoleName      string                   `json:"role_name"`
	CurrentModule string                   `json:"current_module"`
	Permissions   []string                 `json:"permissions"`
	Modules       []service.ModuleResponse `json:"modules"`
}

// AuthHandler covers login, logout, session introspection and navigation.
type AuthHandler struct {
	authService service.AuthService
	roleService service.RoleService
	modService  service.ModuleService
	navService  service.NavigationService
	sessions    *session.Manager
	authMW      *middleware.Auth
	jwtSecret   []byte
}

func NewAuthHandler(
	authService service.AuthService,
	roleService service.RoleService,
	modService service.ModuleService,
	navService service.NavigationService,
	sessions *session.Manager,
	authMW *middleware.Auth,
	jwtSecret []byte,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		roleService: roleService,
		modService:  modService,
		navService:  navService,
		sessions:    sessions,
		authMW:      authMW,
		jwtSecret:   jwtSecret,
	}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/login", h.Login)
	router.POST("/api/logout", h.authMW.RequireAuth(), h.Logout)
	router.GET("/api/me", h.authMW.RequireAuth(), h.Me)
	router.POST("/api/navigate", h.authMW.RequireAuth(), h.Navigate)
}

// Login authenticates a user and opens a session
// @Summary      Log in
// @Description  Verifies credentials, opens a session and returns its token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      LoginRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=LoginResponse}
// @Failure      401      {object}  response.Response
// @Router       /api/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	identity, err := h.authService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	sess := h.sessions.Create(identity.UserID, identity.Username, identity.RoleID, identity.RoleName)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid":  sess.ID.String(),
		"sub":  sess.Username,
		"role": sess.RoleName,
	})
	signed, err := token.SignedString(h.jwtSecret)
	if err != nil {
		h.sessions.Delete(sess.ID)
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to issue session token"))
		return
	}

	h.authMW.SetTokenCookie(c, signed)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, LoginResponse{
		Token:         signed,
		Username:      sess.Username,
		RoleName:      sess.RoleName,
		CurrentModule: sess.CurrentModule,
	}))
}

// Logout closes the session unconditionally
// @Summary      Log out
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if sess := middleware.SessionFromContext(c); sess != nil {
		h.sessions.Delete(sess.ID)
	}
	h.authMW.ClearTokenCookie(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Logged out"}))
}

// Me returns the session identity, its permission keys and visible modules
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=MeResponse}
// @Failure      401  {object}  response.Response
// @Router       /api/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	sess := middleware.SessionFromContext(c)

	perms, err := h.roleService.PermissionKeysForRole(c.Request.Context(), sess.RoleID)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	modules, err := h.modService.VisibleModules(c.Request.Context(), sess.RoleID)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, MeResponse{
		Username:      sess.Username,
		RoleName:      sess.RoleName,
		CurrentModule: sess.CurrentModule,
		Permissions:   perms,
		Modules:       modules,
	}))
}

// Navigate switches the session to another module when the role may see it
// @Summary      Navigate to a module
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      NavigateRequest  true  "Target module"
// @Success      200      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/navigate [post]
func (h *AuthHandler) Navigate(c *gin.Context) {
	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sess := middleware.SessionFromContext(c)
	if err := h.navService.Navigate(c.Request.Context(), sess, req.Module); err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"current_module": req.Module}))
}
