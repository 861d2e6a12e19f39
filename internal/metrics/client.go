package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPClient records outbound API calls by method, endpoint template and status.
type HTTPClient struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  *prometheus.CounterVec
}

// NewHTTPClient registers outbound call metrics on reg, reusing collectors
// that are already registered.
func NewHTTPClient(reg prometheus.Registerer) (*HTTPClient, error) {
	m := &HTTPClient{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chino",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total Chino API requests by method, endpoint and status.",
		}, []string{"method", "endpoint", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chino",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Chino API request duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "endpoint"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chino",
			Subsystem: "api",
			Name:      "retries_total",
			Help:      "Chino API request retries by method and endpoint.",
		}, []string{"method", "endpoint"}),
	}
	if err := Register(reg, &m.requests); err != nil {
		return nil, err
	}
	if err := Register(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := Register(reg, &m.retries); err != nil {
		return nil, err
	}
	return m, nil
}

// Observe records one completed attempt. status 0 means no response was received.
func (m *HTTPClient) Observe(method, endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "none"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, normalizePath(endpoint), label).Inc()
	m.duration.WithLabelValues(method, normalizePath(endpoint)).Observe(d.Seconds())
}

// Retry records one retried attempt.
func (m *HTTPClient) Retry(method, endpoint string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(method, normalizePath(endpoint)).Inc()
}

// Register registers a collector or reuses an existing one.
func Register[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("register metric: %w", err)
	}
	return nil
}
