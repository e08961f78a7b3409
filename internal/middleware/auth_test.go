package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pos-backend/internal/database"
	"pos-backend/internal/repository"
	"pos-backend/internal/service"
	"pos-backend/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testSecret = []byte("test-secret")

type authFixture struct {
	auth     *Auth
	sessions *session.Manager
	router   *gin.Engine
	db       *gorm.DB
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	if err := service.NewSeeder(db).Seed(context.Background()); err != nil {
		t.Fatal(err)
	}

	sessions := session.NewManager()
	auth := NewAuth(testSecret, sessions, repository.NewRoleRepository(db), false)

	router := gin.New()
	router.GET("/me", auth.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": SessionFromContext(c).Username})
	})
	router.GET("/sales", auth.RequirePermission("sales_read"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/settings", auth.RequirePermission("settings_read"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return &authFixture{auth: auth, sessions: sessions, router: router, db: db}
}

// loginAs opens a session for the named seeded role and returns a signed
// token carrying its id.
func (f *authFixture) loginAs(t *testing.T, roleName string) (*session.Session, string) {
	t.Helper()

	var roleID *uint
	if roleName != "" {
		var id uint
		if err := f.db.Table("roles").Where("name = ?", roleName).Select("id").Scan(&id).Error; err != nil || id == 0 {
			t.Fatalf("role %q not seeded: %v", roleName, err)
		}
		roleID = &id
	}

	sess := f.sessions.Create(1, "someone", roleID, roleName)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid":  sess.ID.String(),
		"sub":  sess.Username,
		"role": sess.RoleName,
	}).SignedString(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	return sess, token
}

func (f *authFixture) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRequireAuthMissingToken(t *testing.T) {
	f := newAuthFixture(t)

	if w := f.get("/me", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d, want 401", w.Code)
	}
	if w := f.get("/me", "not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status %d, want 401", w.Code)
	}
}

func TestRequireAuthWrongKey(t *testing.T) {
	f := newAuthFixture(t)
	sess, _ := f.loginAs(t, "admin")

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sess.ID.String(),
	}).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatal(err)
	}

	if w := f.get("/me", forged); w.Code != http.StatusUnauthorized {
		t.Fatalf("forged token: status %d, want 401", w.Code)
	}
}

func TestRequireAuthCookie(t *testing.T) {
	f := newAuthFixture(t)
	_, token := f.loginAs(t, "admin")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("cookie token: status %d, want 200", w.Code)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	f := newAuthFixture(t)
	sess, token := f.loginAs(t, "admin")

	if w := f.get("/me", token); w.Code != http.StatusOK {
		t.Fatalf("live session: status %d, want 200", w.Code)
	}

	// The signature stays valid after logout; the dead session id is what
	// locks the token out.
	f.sessions.Delete(sess.ID)
	if w := f.get("/me", token); w.Code != http.StatusUnauthorized {
		t.Fatalf("logged-out session: status %d, want 401", w.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	f := newAuthFixture(t)

	_, cashierToken := f.loginAs(t, "cashier")
	if w := f.get("/sales", cashierToken); w.Code != http.StatusOK {
		t.Fatalf("cashier on /sales: status %d, want 200", w.Code)
	}
	if w := f.get("/settings", cashierToken); w.Code != http.StatusForbidden {
		t.Fatalf("cashier on /settings: status %d, want 403", w.Code)
	}

	_, adminToken := f.loginAs(t, "admin")
	if w := f.get("/settings", adminToken); w.Code != http.StatusOK {
		t.Fatalf("admin on /settings: status %d, want 200", w.Code)
	}
}

func TestRequirePermissionNoRole(t *testing.T) {
	f := newAuthFixture(t)

	_, token := f.loginAs(t, "")
	if w := f.get("/sales", token); w.Code != http.StatusForbidden {
		t.Fatalf("roleless user on /sales: status %d, want 403", w.Code)
	}
	// Plain authentication still works without a role.
	if w := f.get("/me", token); w.Code != http.StatusOK {
		t.Fatalf("roleless user on /me: status %d, want 200", w.Code)
	}
}

func TestTokenCookieSecurity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	setCookie := func(secure bool) string {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/login", nil)

		auth := NewAuth(testSecret, session.NewManager(), nil, secure)
		auth.SetTokenCookie(c, "tok")
		return w.Header().Get("Set-Cookie")
	}

	dev := setCookie(false)
	if !strings.Contains(dev, "HttpOnly") {
		t.Errorf("cookie not HttpOnly: %q", dev)
	}
	if strings.Contains(dev, "Secure") {
		t.Errorf("development cookie marked Secure: %q", dev)
	}

	release := setCookie(true)
	if !strings.Contains(release, "Secure") {
		t.Errorf("release cookie not marked Secure: %q", release)
	}
}

func TestPermissionCacheInvalidation(t *testing.T) {
	f := newAuthFixture(t)

	var cashierID uint
	if err := f.db.Table("roles").Where("name = ?", "cashier").Select("id").Scan(&cashierID).Error; err != nil {
		t.Fatal(err)
	}
	_, token := f.loginAs(t, "cashier")

	// Prime the cache with the seeded grant set.
	if w := f.get("/sales", token); w.Code != http.StatusOK {
		t.Fatalf("priming request: status %d, want 200", w.Code)
	}

	// Revoke everything directly; the stale cache still admits the request
	// until it is cleared.
	if err := f.db.Exec("DELETE FROM role_permissions WHERE role_id = ?", cashierID).Error; err != nil {
		t.Fatal(err)
	}
	if w := f.get("/sales", token); w.Code != http.StatusOK {
		t.Fatalf("cached grants: status %d, want 200", w.Code)
	}

	f.auth.ClearPermissionCache(&cashierID)
	if w := f.get("/sales", token); w.Code != http.StatusForbidden {
		t.Fatalf("after cache clear: status %d, want 403", w.Code)
	}
}
