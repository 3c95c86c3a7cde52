package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/authz"
)

var testSecret = []byte("test-secret")

func sign(t *testing.T, claims jwt.MapClaims, secret []byte) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", RequireAuth(testSecret), func(c *gin.Context) {
		fromGin := ActorFromGin(c)
		fromCtx := authz.ActorFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"gin": fromGin, "ctx": fromCtx})
	})
	r.GET("/admin", RequireAuth(testSecret), RequireAnyRole(authz.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	valid := sign(t, jwt.MapClaims{
		"sub":   "user-1",
		"role":  "staff",
		"roles": []string{authz.RoleEftReviewer},
		"exp":   time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	tests := []struct {
		name     string
		setup    func(r *http.Request)
		wantCode int
	}{
		{name: "missing", setup: func(*http.Request) {}, wantCode: http.StatusUnauthorized},
		{name: "bad header", setup: func(r *http.Request) { r.Header.Set("Authorization", "Token abc") }, wantCode: http.StatusUnauthorized},
		{name: "wrong secret", setup: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+sign(t, jwt.MapClaims{"sub": "u"}, []byte("other")))
		}, wantCode: http.StatusUnauthorized},
		{name: "expired", setup: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+sign(t, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Hour).Unix()}, testSecret))
		}, wantCode: http.StatusUnauthorized},
		{name: "no subject", setup: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+sign(t, jwt.MapClaims{"role": "admin"}, testSecret))
		}, wantCode: http.StatusUnauthorized},
		{name: "bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) }, wantCode: http.StatusOK},
		{name: "cookie", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "access_token", Value: valid}) }, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			newRouter().ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode != http.StatusOK {
				return
			}
			var body struct {
				Gin authz.Actor `json:"gin"`
				Ctx authz.Actor `json:"ctx"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "user-1", body.Gin.ID)
			assert.Equal(t, []string{authz.RoleEftReviewer}, body.Gin.Roles)
			assert.Equal(t, body.Gin, body.Ctx)
		})
	}
}

func TestRequireAnyRole(t *testing.T) {
	staff := sign(t, jwt.MapClaims{"sub": "u", "role": "staff"}, testSecret)
	admin := sign(t, jwt.MapClaims{"sub": "u", "role": authz.RoleAdmin}, testSecret)

	for token, want := range map[string]int{staff: http.StatusForbidden, admin: http.StatusNoContent} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		newRouter().ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}
}
