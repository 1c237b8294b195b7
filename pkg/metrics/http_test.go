package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.Observe("GET", "/api/orders", "200", 120*time.Millisecond)
	m.Observe("GET", "/api/orders", "200", 80*time.Millisecond)
	m.Observe("POST", "", "500", 10*time.Millisecond)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/orders", "200")); got != 2 {
		t.Fatalf("expected 2 requests recorded, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("POST", "unknown", "500")); got != 1 {
		t.Fatalf("expected empty route to normalize to unknown, got %v", got)
	}
}

func TestHTTPMetricsInFlight(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.IncInFlight()
	m.IncInFlight()
	m.DecInFlight()

	if got := testutil.ToFloat64(m.inFlight); got != 1 {
		t.Fatalf("expected 1 in flight, got %v", got)
	}
}

func TestHTTPMetricsNilSafe(t *testing.T) {
	var m *HTTPMetrics
	m.Observe("GET", "/", "200", time.Millisecond)
	m.IncInFlight()
	m.DecInFlight()

	empty := NewHTTPMetrics(nil)
	empty.Observe("GET", "/", "200", time.Millisecond)
}
