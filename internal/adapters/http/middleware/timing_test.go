package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"filmclub/internal/adapters/http/perf"
)

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

// TestTimingMiddleware_RecordsSample verifies that a request sample is recorded.
func TestTimingMiddleware_RecordsSample(t *testing.T) {
	collector := perf.NewCollector(100)
	handler := Timing(collector)(okHandler(http.StatusOK))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/history", nil))

	if collector.Total() != 1 {
		t.Errorf("Total = %d, want 1", collector.Total())
	}
}

// TestTimingMiddleware_SkipsStatic verifies static assets are excluded from timing.
func TestTimingMiddleware_SkipsStatic(t *testing.T) {
	collector := perf.NewCollector(100)
	handler := Timing(collector)(okHandler(http.StatusOK))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/static/app.css", nil))

	if collector.Total() != 0 {
		t.Errorf("Total = %d, want 0 (static excluded)", collector.Total())
	}
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

// TestTimingMiddleware_NilCollector verifies middleware works without a collector.
func TestTimingMiddleware_NilCollector(t *testing.T) {
	rr := httptest.NewRecorder()
	Timing(nil)(okHandler(http.StatusTeapot)).ServeHTTP(rr, httptest.NewRequest("GET", "/api/x", nil))
	if rr.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rr.Code)
	}
}

// TestTimingMiddleware_LabelsByRoutePattern verifies samples aggregate by mux pattern, not raw path.
func TestTimingMiddleware_LabelsByRoutePattern(t *testing.T) {
	collector := perf.NewCollector(100)
	mux := http.NewServeMux()
	mux.Handle("GET /api/weeks/{date}", Route(okHandler(http.StatusOK)))
	handler := Timing(collector)(mux)

	for _, date := range []string{"2026-10-12", "2026-10-19"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/weeks/"+date, nil))
	}
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nowhere", nil))

	report := collector.Report(time.Now().Add(-time.Minute), 10)
	counts := map[string]int{}
	for _, s := range report.SlowestRoutes {
		counts[s.Label] = s.Count
	}
	if counts["GET /api/weeks/{date}"] != 2 {
		t.Errorf("pattern count = %d, want 2 (got %v)", counts["GET /api/weeks/{date}"], counts)
	}
	if counts["GET /nowhere"] != 1 {
		t.Errorf("unmatched path count = %d, want 1", counts["GET /nowhere"])
	}
}

// TestTimingMiddleware_PoolNoStateLeak verifies that statusWriter pool reuse
// does not leak status codes between requests.
func TestTimingMiddleware_PoolNoStateLeak(t *testing.T) {
	collector := perf.NewCollector(100)

	Timing(collector)(okHandler(http.StatusInternalServerError)).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/fail", nil))

	handler := Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/ok", nil))

	report := collector.Report(time.Now().Add(-time.Minute), 10)
	for _, s := range report.SlowestRoutes {
		if s.Label == "GET /api/ok" && s.ErrorRate != 0 {
			t.Errorf("GET /api/ok ErrorRate = %v, want 0 (pool must not leak 500)", s.ErrorRate)
		}
	}
}

// TestTimingMiddleware_HandlerPanic verifies the deferred recording runs when a handler panics.
func TestTimingMiddleware_HandlerPanic(t *testing.T) {
	collector := perf.NewCollector(100)
	handler := Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic to propagate, got nil")
		}
		if collector.Total() != 1 {
			t.Errorf("Total = %d, want 1", collector.Total())
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/panic", nil))
}

// BenchmarkTimingMiddleware measures per-request overhead.
func BenchmarkTimingMiddleware(b *testing.B) {
	collector := perf.NewCollector(perf.DefaultCapacity)
	handler := Timing(collector)(okHandler(http.StatusOK))
	req := httptest.NewRequest("GET", "/api/bench", nil)

	b.ReportAllocs()
	for b.Loop() {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}
