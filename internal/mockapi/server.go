package mockapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	DefaultUsername = "admin"
	DefaultPassword = "password"
)

// Option customizes a Server.
type Option func(*Server)

// WithCredentials sets the accepted basic-auth pair.
func WithCredentials(username, password string) Option {
	return func(s *Server) {
		s.username = username
		s.password = password
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// Server is an in-memory stand-in for the Voice AI backend.
type Server struct {
	username string
	password string
	logger   *zap.Logger
	now      func() time.Time
	router   *mux.Router

	mu      sync.Mutex
	data    *Dataset
	fault   *fault
	webhook int64
}

type fault struct {
	status  int
	message string
}

// New builds a Server with the demo data set.
func New(opts ...Option) *Server {
	s := &Server{
		username: DefaultUsername,
		password: DefaultPassword,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	// Timestamps are served without a zone, so keep everything in UTC.
	clock := s.now
	s.now = func() time.Time { return clock().UTC() }
	s.data = NewDataset(s.now())
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, "Resource not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.Use(s.logRequests)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireAuth, s.injectFault)
	api.HandleFunc("/dashboard/metrics", s.handleMetrics).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/recent-calls", s.handleRecentCalls).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/system-status", s.handleSystemStatus).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/live-stats", s.handleLiveStats).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/call-trends", s.handleCallTrends).Methods(http.MethodGet)
	api.HandleFunc("/calls", s.handleCalls).Methods(http.MethodGet)
	api.HandleFunc("/calls/{id:[0-9]+}", s.handleCallDetail).Methods(http.MethodGet)
	api.HandleFunc("/appointments", s.handleAppointments).Methods(http.MethodGet)
	api.HandleFunc("/book-appointment", s.handleBookAppointment).Methods(http.MethodPost)
	api.HandleFunc("/available-slots", s.handleAvailableSlots).Methods(http.MethodGet)
	api.HandleFunc("/crm-trigger", s.handleCRMTrigger).Methods(http.MethodPost)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetFault makes every /api request fail with status and message until
// ClearFault is called.
func (s *Server) SetFault(status int, message string) {
	s.mu.Lock()
	s.fault = &fault{status: status, message: message}
	s.mu.Unlock()
}

// ClearFault restores normal responses.
func (s *Server) ClearFault() {
	s.mu.Lock()
	s.fault = nil
	s.mu.Unlock()
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mockapi.listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("mockapi.request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !s.checkAuth(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="VoiceAI API"`)
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":   "Authentication required",
				"message": "Please provide valid credentials",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkAuth(user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(s.password)) == 1
	return userOK && passOK
}

func (s *Server) injectFault(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f := s.fault
		s.mu.Unlock()
		if f != nil {
			writeError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func intParam(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func paginate[T any](items []T, page, perPage int) ([]T, int) {
	pages := (len(items) + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}, pages
	}
	end := min(start+perPage, len(items))
	return items[start:end], pages
}
