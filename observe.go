package chino

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chino/internal/domain/search/mode"
	"github.com/kailas-cloud/chino/internal/domain/search/request"
	"github.com/kailas-cloud/chino/internal/metrics"
)

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	searches   *prometheus.CounterVec
	filters    *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chino",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Chino API operations by resource, action and outcome.",
		}, []string{"resource", "action", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chino",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "Chino API operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource", "action"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chino",
			Subsystem: "sdk",
			Name:      "searches_total",
			Help:      "Searches by endpoint, result type, paging scope and outcome.",
		}, []string{"endpoint", "result_type", "scope", "outcome"}),
		filters: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chino",
			Subsystem: "sdk",
			Name:      "search_filter_clauses",
			Help:      "Filter clauses per search request.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		}, []string{"endpoint"}),
	}
	if err := metrics.Register(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := metrics.Register(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := metrics.Register(reg, &m.searches); err != nil {
		return nil, err
	}
	if err := metrics.Register(reg, &m.filters); err != nil {
		return nil, err
	}
	return m, nil
}

// observer provides logging and metrics for SDK operations.
type observer struct {
	logger  *zap.Logger
	metrics *sdkMetrics
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

// Search scopes.
const (
	scopePage = "page"
	scopeAll  = "all"
)

// observe records an operation named resource.action, e.g. "documents.delete_all".
func (o *observer) observe(op string, start time.Time, err error, fields ...zap.Field) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	resource, action, _ := strings.Cut(op, ".")
	out := outcome(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(resource, action, out).Inc()
		o.metrics.duration.WithLabelValues(resource, action).Observe(dur.Seconds())
	}

	if o.logger != nil {
		fields = append(fields,
			zap.String("op", op),
			zap.String("outcome", out),
			zap.Duration("duration", dur),
		)
		if err != nil {
			o.logger.Warn("operation failed", append(fields, zap.Error(err))...)
		} else {
			o.logger.Debug("operation completed", fields...)
		}
	}
}

// observeSearch records a search against endpoint, then the operation itself.
func (o *observer) observeSearch(
	endpoint mode.Endpoint, scope string, req request.Request, start time.Time, err error,
) {
	if o == nil {
		return
	}
	rt := req.ResultType()
	clauses := len(req.Filters())
	if o.metrics != nil {
		o.metrics.searches.WithLabelValues(string(endpoint), string(rt), scope, outcome(err)).Inc()
		o.metrics.filters.WithLabelValues(string(endpoint)).Observe(float64(clauses))
	}
	action := string(endpoint)
	if scope == scopeAll {
		action += "_all"
	}
	o.observe("search."+action, start, err,
		zap.String("result_type", string(rt)),
		zap.String("filter_type", string(req.FilterType())),
		zap.Int("clauses", clauses),
	)
}

// outcome classifies err for metric labels.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrBadRequest):
		return "bad_request"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrServer):
		return "server_error"
	default:
		return "error"
	}
}
