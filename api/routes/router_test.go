package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/worldtek/canteen-backend/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "canteen-test",
			ExpirationMinutes: 30,
		},
		Admin: config.AdminConfig{APIKey: "sekrit"},
	}
}

func newTestRouter() http.Handler {
	return NewRouter(testConfig(), nil, nil, nil, nil, nil, Services{})
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if env := w.Header().Get("X-Canteen-Env"); env != "test" {
		t.Fatalf("expected env header, got %q", env)
	}
}

func TestAuthenticatedRoutesRejectAnonymous(t *testing.T) {
	router := newTestRouter()

	for _, path := range []string{"/api/v1/cart", "/api/v1/orders", "/api/v1/wallet/balance"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s expected 401, got %d", path, w.Code)
		}
	}
}

func TestAdminRoutesRejectMissingKey(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/v1/dashboard/overview", nil))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
