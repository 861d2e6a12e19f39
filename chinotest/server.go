// Package chinotest runs an in-memory Chino API for tests.
//
// The server answers the repository, schema, document, user schema, user,
// group, collection, consent, token and search endpoints with the same
// envelopes as the real API, and evaluates search requests against the
// stored content.
package chinotest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chino/internal/domain"
	"github.com/kailas-cloud/chino/internal/metrics"
)

// Option configures the Server.
type Option func(*Server)

// WithCustomer requires Basic authentication with the customer id and key.
// Bearer tokens issued by the token endpoint are accepted as well.
func WithCustomer(id, key string) Option {
	return func(s *Server) {
		s.customerID = id
		s.customerKey = key
	}
}

// WithApplication registers an application that may issue user tokens.
func WithApplication(clientID, clientSecret string) Option {
	return func(s *Server) {
		s.apps[clientID] = clientSecret
	}
}

// WithLogger logs every handled error.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithPrometheus records request metrics on reg.
func WithPrometheus(reg prometheus.Registerer) Option {
	return func(s *Server) {
		s.reg = reg
	}
}

// WithFailures makes the next n requests fail with status before they are
// handled. Used to exercise client retries.
func WithFailures(n, status int) Option {
	return func(s *Server) {
		s.failures = n
		s.failStatus = status
	}
}

// Server is an in-memory Chino API.
type Server struct {
	*httptest.Server

	mu    sync.Mutex
	store *store

	customerID  string
	customerKey string
	apps        map[string]string
	tokens      map[string]string // access token -> user id
	refresh     map[string]string // refresh token -> user id

	failures   int
	failStatus int
	requests   int

	logger *zap.Logger
	reg    prometheus.Registerer
}

// NewServer starts a server. Call Close when done.
func NewServer(opts ...Option) *Server {
	s := &Server{
		store:   newStore(),
		apps:    make(map[string]string),
		tokens:  make(map[string]string),
		refresh: make(map[string]string),
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

// URL of the API root, to be passed to chino.WithBaseURL.
func (s *Server) BaseURL() string { return s.URL + "/v1" }

// Requests returns how many requests reached the server.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	if s.reg != nil {
		if m, err := metrics.NewHTTPServer(s.reg); err == nil {
			r.Use(m.Middleware())
		} else {
			s.logger.Warn("fake api metrics disabled", zap.Error(err))
		}
	}
	r.Use(s.countAndFail)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/token/", s.issueToken)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			s.routes(r)
		})
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *Server) countAndFail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		fail := s.failures > 0
		if fail {
			s.failures--
		}
		s.mu.Unlock()
		if fail {
			writeError(w, s.failStatus, http.StatusText(s.failStatus))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// envelope is the response wrapper of every endpoint.
type envelope struct {
	Result     string  `json:"result"`
	ResultCode int     `json:"result_code"`
	Message    *string `json:"message"`
	Data       any     `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Result:     "success",
		ResultCode: status,
		Data:       data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Result:     "error",
		ResultCode: status,
		Message:    &message,
	})
}

// statusOf maps domain errors onto HTTP statuses.
var statusOf = []struct {
	err    error
	status int
}{
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrBadRequest, http.StatusBadRequest},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
}

func (s *Server) handleError(w http.ResponseWriter, err error) {
	s.logger.Debug("fake api error", zap.Error(err))
	for _, m := range statusOf {
		if errors.Is(err, m.err) {
			writeError(w, m.status, err.Error())
			return
		}
	}
	s.logger.Error("fake api internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(domain.ErrBadRequest, err)
	}
	return nil
}

// paging reads offset and limit. Limit defaults to 100.
func paging(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 100
	}
	return offset, limit
}

func newID() string { return uuid.NewString() }
