package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeValidator map[string]*model.Actor

func (f fakeValidator) ValidateToken(token string) (*model.Actor, error) {
	if a, ok := f[token]; ok {
		return a, nil
	}
	return nil, errors.New("bad token")
}

type fakeChecker struct {
	allow map[string]bool
	err   error
}

func (f fakeChecker) CheckPermission(actor *model.Actor, resource, action string) (bool, error) {
	return f.allow[actor.Role+":"+resource+":"+action], f.err
}

var tokens = fakeValidator{
	"admin-token": {UserID: "1", Role: model.RoleAdministrator, SessionID: "s1"},
	"shop-token":  {UserID: "2", Role: "wholesaler", SessionID: "s2"},
}

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func echoRole(c *gin.Context) {
	c.String(http.StatusOK, ActorOrGuest(c).Role)
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/", AuthMiddleware(tokens), echoRole)

	assert.Equal(t, http.StatusUnauthorized, perform(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "forged").Code)

	w := perform(r, "shop-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "wholesaler", w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token shop-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/", OptionalAuth(tokens), echoRole)

	assert.Equal(t, model.GuestRole, perform(r, "").Body.String())
	assert.Equal(t, model.GuestRole, perform(r, "expired").Body.String())
	assert.Equal(t, "wholesaler", perform(r, "shop-token").Body.String())
}

func TestRequirePermission(t *testing.T) {
	checker := fakeChecker{allow: map[string]bool{"administrator:rules:write": true}}

	r := gin.New()
	r.GET("/", AuthMiddleware(tokens), RequirePermission(checker, "rules", "write"), echoRole)

	assert.Equal(t, http.StatusOK, perform(r, "admin-token").Code)
	assert.Equal(t, http.StatusForbidden, perform(r, "shop-token").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "").Code)

	broken := gin.New()
	broken.GET("/", AuthMiddleware(tokens), RequirePermission(fakeChecker{err: errors.New("boom")}, "rules", "write"), echoRole)
	assert.Equal(t, http.StatusInternalServerError, perform(broken, "admin-token").Code)
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(), Recovery())
	r.GET("/", echoRole)
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	assert.Equal(t, http.StatusOK, perform(r, "").Code)

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
