package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newServerMetrics(t *testing.T) *HTTPServer {
	t.Helper()
	m, err := NewHTTPServer(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewHTTPServer: %v", err)
	}
	return m
}

func TestMiddleware_RecordsDurationAndCount(t *testing.T) {
	m := newServerMetrics(t)
	r := chi.NewRouter()
	r.Use(m.Middleware())
	r.Get("/documents/{document_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest("GET", "/documents/abc", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	val := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/documents/{document_id}", "200"))
	if val != 1 {
		t.Errorf("expected requests_total = 1 for route pattern, got %f", val)
	}
	if testutil.CollectAndCount(m.duration) == 0 {
		t.Error("expected duration observations")
	}
}

func TestMiddleware_DifferentStatusCodes(t *testing.T) {
	m := newServerMetrics(t)
	r := chi.NewRouter()
	r.Use(m.Middleware())

	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/notfound", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/error", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	tests := []struct {
		path           string
		expectedStatus string
	}{
		{"/ok", "200"},
		{"/notfound", "404"},
		{"/error", "500"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			val := testutil.ToFloat64(m.requests.WithLabelValues("GET", tc.path, tc.expectedStatus))
			if val < 1 {
				t.Errorf("expected requests_total for %s with status %s >= 1, got %f", tc.path, tc.expectedStatus, val)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unknown"},
		{"/search/documents/{schema_id}", "/search/documents/{schema_id}"},
	}
	for _, tc := range tests {
		if result := normalizePath(tc.input); result != tc.expected {
			t.Errorf("normalizePath(%q) = %q, want %q", tc.input, result, tc.expected)
		}
	}
}

func TestHTTPClient_Observe(t *testing.T) {
	m, err := NewHTTPClient(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	m.Observe("POST", "/search/documents/{schema_id}", 200, 10*time.Millisecond)
	m.Observe("POST", "/search/documents/{schema_id}", 0, time.Millisecond)
	m.Retry("POST", "/search/documents/{schema_id}")

	if v := testutil.ToFloat64(m.requests.WithLabelValues("POST", "/search/documents/{schema_id}", "200")); v != 1 {
		t.Errorf("requests{200} = %f, want 1", v)
	}
	if v := testutil.ToFloat64(m.requests.WithLabelValues("POST", "/search/documents/{schema_id}", "none")); v != 1 {
		t.Errorf("requests{none} = %f, want 1", v)
	}
	if v := testutil.ToFloat64(m.retries.WithLabelValues("POST", "/search/documents/{schema_id}")); v != 1 {
		t.Errorf("retries = %f, want 1", v)
	}
}

func TestHTTPClient_NilIsNoop(t *testing.T) {
	var m *HTTPClient
	m.Observe("GET", "/x", 200, time.Second)
	m.Retry("GET", "/x")
}

func TestRegister_ReusesExisting(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewHTTPClient(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewHTTPClient(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.requests != second.requests {
		t.Error("expected collector reuse on the same registry")
	}
}
