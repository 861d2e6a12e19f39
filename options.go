package chino

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	baseURL     string
	customerID  string
	customerKey string
	bearerToken string
	userAgent   string

	httpClient   *http.Client
	timeout      time.Duration
	maxRetries   int
	retryInitial time.Duration
	retryMax     time.Duration
	retrySet     bool

	pageSize int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithBaseURL sets the API root, e.g. https://api.chino.io/v1.
// Defaults to the Chino test environment.
func WithBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = url
	})
}

// WithCustomerCredentials authenticates every call as the customer.
func WithCustomerCredentials(id, key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.customerID = id
		c.customerKey = key
	})
}

// WithBearerToken authenticates every call as the user owning the token.
// Takes precedence over customer credentials.
func WithBearerToken(token string) Option {
	return optionFunc(func(c *clientConfig) {
		c.bearerToken = token
	})
}

// WithHTTPClient sets the HTTP client used for API calls.
// Use it to configure TLS or proxies; WithTimeout is ignored when set.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithTimeout sets the per-request timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithRetry configures retries of failed calls: at most maxRetries repeats
// with exponential backoff starting at initial and capped at maxInterval.
// Default: 3 retries, 200ms initial, 5s cap. Pass 0 retries to disable.
func WithRetry(maxRetries int, initial, maxInterval time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxRetries = maxRetries
		c.retryInitial = initial
		c.retryMax = maxInterval
		c.retrySet = true
	})
}

// WithPageSize sets the page size used by helpers that walk every page
// (DeleteAll, History, SearchAll). Default: 100.
func WithPageSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.pageSize = size
	})
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return optionFunc(func(c *clientConfig) {
		c.userAgent = ua
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations,
// API request counts and durations) on the given registerer.
// Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
