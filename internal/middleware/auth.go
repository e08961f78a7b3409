package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"pos-backend/internal/repository"
	"pos-backend/internal/session"
	"pos-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionContextKey = "pos_session"

// permCacheEntry caches a role's permission keys with a TTL so the gate does
// not hit the store on every request.
type permCacheEntry struct {
	keys      map[string]bool
	expiresAt time.Time
}

const permCacheTTL = 5 * time.Minute

// Auth guards routes. Every dependency and setting is handed in at
// construction; the middleware reads no globals and no environment.
type Auth struct {
	secret       []byte
	sessions     *session.Manager
	roles        repository.RoleRepository
	cookieSecure bool
	permCache    sync.Map // roleID uint -> permCacheEntry
}

func NewAuth(secret []byte, sessions *session.Manager, roles repository.RoleRepository, cookieSecure bool) *Auth {
	return &Auth{secret: secret, sessions: sessions, roles: roles, cookieSecure: cookieSecure}
}

// SetTokenCookie stores the session token as an HttpOnly cookie for the
// lifetime of the process (no expiry; logout clears it).
func (a *Auth) SetTokenCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("access_token", token, 0, "/", "", a.cookieSecure, true)
}

// ClearTokenCookie removes the session cookie.
func (a *Auth) ClearTokenCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("access_token", "", -1, "/", "", a.cookieSecure, true)
}

// RequireAuth validates the JWT, resolves its session id against the live
// registry and stores the session in the request context. A token whose
// session was logged out is rejected regardless of signature validity.
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := a.resolveSession(c)
		if sess == nil {
			return // resolveSession already aborted
		}
		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// RequirePermission validates the session and then checks every listed
// permission key against the session's role.
func (a *Auth) RequirePermission(requiredKeys ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := a.resolveSession(c)
		if sess == nil {
			return
		}
		c.Set(sessionContextKey, sess)

		held, err := a.permissionsForRole(c, sess.RoleID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}

		for _, key := range requiredKeys {
			if !held[key] {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+key+"'"))
				return
			}
		}

		c.Next()
	}
}

// SessionFromContext returns the session stored by RequireAuth /
// RequirePermission, or nil when the request is unauthenticated.
func SessionFromContext(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}

// ClearPermissionCache drops the cached keys for one role, or every role when
// roleID is nil. Call it after a role's permission set changes.
func (a *Auth) ClearPermissionCache(roleID *uint) {
	if roleID == nil {
		a.permCache.Range(func(key, _ interface{}) bool {
			a.permCache.Delete(key)
			return true
		})
		return
	}
	a.permCache.Delete(*roleID)
}

func (a *Auth) resolveSession(c *gin.Context) *session.Session {
	tokenString, cookieErr := c.Cookie("access_token")
	if cookieErr != nil || tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return nil
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
			return nil
		}
		tokenString = parts[1]
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
		return nil
	}

	sidStr, _ := claims["sid"].(string)
	sid, err := uuid.Parse(sidStr)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid session id in token"))
		return nil
	}

	sess := a.sessions.Get(sid)
	if sess == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Session expired or logged out"))
		return nil
	}
	return sess
}

func (a *Auth) permissionsForRole(c *gin.Context, roleID *uint) (map[string]bool, error) {
	// A user without a role holds no permissions at all
	if roleID == nil {
		return map[string]bool{}, nil
	}

	if entry, ok := a.permCache.Load(*roleID); ok {
		cached := entry.(permCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.keys, nil
		}
	}

	keys, err := a.roles.PermissionKeysForRole(c.Request.Context(), *roleID)
	if err != nil {
		return nil, err
	}

	held := make(map[string]bool, len(keys))
	for _, k := range keys {
		held[k] = true
	}

	a.permCache.Store(*roleID, permCacheEntry{keys: held, expiresAt: time.Now().Add(permCacheTTL)})
	return held, nil
}
