package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/worldtek/canteen-backend/pkg/config"
)

func TestAdminKeyAllowsMatchingKey(t *testing.T) {
	handler := AdminKey(config.AdminConfig{APIKey: "sekrit"}, nil)(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	r.Header.Set("X-Admin-Key", "sekrit")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAdminKeyRejectsWrongKey(t *testing.T) {
	handler := AdminKey(config.AdminConfig{APIKey: "sekrit"}, nil)(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	r.Header.Set("X-Admin-Key", "guess")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestAdminKeyLocksWhenUnconfigured(t *testing.T) {
	handler := AdminKey(config.AdminConfig{}, nil)(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
