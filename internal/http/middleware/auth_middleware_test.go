package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/classtrack/attendance-service/internal/domain"
	"github.com/classtrack/attendance-service/internal/security"
)

func newTestJWTManager() *security.JWTManager {
	return security.NewJWTManager(
		"iss",
		"aud",
		"abcdefghijklmnopqrstuvwxyz123456",
		"abcdefghijklmnopqrstuvwxyz654321",
	)
}

func TestAuthMiddlewareMissingTokenReturnsUnauthorized(t *testing.T) {
	jwtMgr := newTestJWTManager()
	h := AuthMiddleware(jwtMgr)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing token, got %d", rr.Code)
	}
}

func TestAuthMiddlewareValidBearerTokenPasses(t *testing.T) {
	jwtMgr := newTestJWTManager()
	token, err := jwtMgr.SignAccessToken("user-42", string(domain.RoleStudent), 15*time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	var seenRole string
	h := AuthMiddleware(jwtMgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Fatal("claims missing from context")
		}
		seenRole = claims.Role
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for valid token, got %d", rr.Code)
	}
	if seenRole != string(domain.RoleStudent) {
		t.Fatalf("expected student role in claims, got %q", seenRole)
	}
}

func TestAuthMiddlewareRejectsRefreshToken(t *testing.T) {
	jwtMgr := newTestJWTManager()
	token, err := jwtMgr.SignRefreshToken("user-42", time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	h := AuthMiddleware(jwtMgr)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for refresh token on access endpoint, got %d", rr.Code)
	}
}
