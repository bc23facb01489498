package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"masterlearn/internal/domain"
	"masterlearn/internal/service"
)

func protectedRouter(jwtSvc *service.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWTAuthMiddleware(jwtSvc, ""), func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok || identity.Username != "alice" {
			c.Status(http.StatusTeapot)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func issueToken(t *testing.T, jwtSvc *service.JWTService) string {
	t.Helper()
	token, err := jwtSvc.Issue(domain.Identity{Username: "alice", Email: "alice@x.com"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestJWTAuthMiddleware_AllowsBearerToken(t *testing.T) {
	jwtSvc := service.NewJWTService("secret", time.Hour)
	r := protectedRouter(jwtSvc)

	for _, scheme := range []string{"Bearer ", "bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", scheme+issueToken(t, jwtSvc))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for scheme %q, got %d", scheme, rec.Code)
		}
	}
}

func TestJWTAuthMiddleware_FallsBackToCookie(t *testing.T) {
	jwtSvc := service.NewJWTService("secret", time.Hour)
	r := protectedRouter(jwtSvc)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: issueToken(t, jwtSvc)})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestJWTAuthMiddleware_RejectsMissingToken(t *testing.T) {
	r := protectedRouter(service.NewJWTService("secret", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTAuthMiddleware_RejectsInvalidToken(t *testing.T) {
	other := service.NewJWTService("other-secret", time.Hour)
	r := protectedRouter(service.NewJWTService("secret", time.Hour))

	for _, token := range []string{"garbage", issueToken(t, other)} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	}
}

func TestJWTAuthMiddleware_NotConfigured(t *testing.T) {
	r := protectedRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
