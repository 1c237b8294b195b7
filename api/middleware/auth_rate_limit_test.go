package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type memoryLimiter struct {
	counts map[string]int64
}

func newMemoryLimiter() *memoryLimiter {
	return &memoryLimiter{counts: map[string]int64{}}
}

func (m *memoryLimiter) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.counts[key]++
	return m.counts[key], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func otpRequest(mobile string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/auth/otp/request", strings.NewReader(`{"mobile":"`+mobile+`"}`))
	r.RemoteAddr = "10.0.0.1:1234"
	return r
}

func TestAuthRateLimitBlocksMobileAfterLimit(t *testing.T) {
	policy := NewAuthRateLimitPolicy("otp", time.Minute, 0, 3)
	handler := AuthRateLimit(policy, newMemoryLimiter(), nil)(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, otpRequest("919876543210"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d expected 200, got %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, otpRequest("919876543210"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}

func TestAuthRateLimitIsPerMobile(t *testing.T) {
	policy := NewAuthRateLimitPolicy("otp", time.Minute, 0, 1)
	handler := AuthRateLimit(policy, newMemoryLimiter(), nil)(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, otpRequest("919876543210"))
	if w.Code != http.StatusOK {
		t.Fatalf("first mobile expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, otpRequest("918765432109"))
	if w.Code != http.StatusOK {
		t.Fatalf("second mobile expected 200, got %d", w.Code)
	}
}

func TestAuthRateLimitBlocksIP(t *testing.T) {
	policy := NewAuthRateLimitPolicy("otp", time.Minute, 2, 0)
	handler := AuthRateLimit(policy, newMemoryLimiter(), nil)(okHandler())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, otpRequest("919876543210"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d expected 200, got %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, otpRequest("918765432109"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected shared IP budget to block, got %d", w.Code)
	}
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	policy := NewAuthRateLimitPolicy("otp", 0, 0, 0)
	handler := AuthRateLimit(policy, newMemoryLimiter(), nil)(okHandler())

	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, otpRequest("919876543210"))
		if w.Code != http.StatusOK {
			t.Fatalf("expected pass-through, got %d", w.Code)
		}
	}
}
