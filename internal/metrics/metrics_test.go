package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.ObserveRequest("GET", "/api/meal", 200, 5*time.Millisecond)
	m.ObserveRequest("GET", "/api/meal", 200, 7*time.Millisecond)
	m.ObserveQuery("select", time.Millisecond, nil)
	m.ObserveRecompute("meal_rate", 10*time.Millisecond, errors.New("boom"))
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/meal", "200")); got != 2 {
		t.Errorf("http_requests_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.recomputes.WithLabelValues("meal_rate", "error")); got != 1 {
		t.Errorf("recomputes_total{outcome=error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")); got != 2 {
		t.Errorf("cache misses = %v, want 2", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{"dormmess_http_requests_total", "dormmess_db_query_duration_seconds", "go_goroutines"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("exposition is missing %s", name)
		}
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET", "/", 200, time.Millisecond)
	m.ObserveQuery("select", time.Millisecond, nil)
	m.ObserveRecompute("overall_calculation", time.Millisecond, nil)
	m.CacheHit()
	m.CacheMiss()
}
