package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"eventcal/internal/config"
	"eventcal/internal/events"
	appLog "eventcal/internal/log"
	"eventcal/internal/metrics"
	"eventcal/internal/session"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 64 << 10

// Server provides the calendar generation and download API.
type Server struct {
	cfg      *config.Config
	acquirer *events.Acquirer
	store    *session.Store
	metrics  *metrics.Metrics
	loc      *time.Location
	now      func() time.Time
	mux      *http.ServeMux
}

// Deps are the collaborators injected into a Server.
type Deps struct {
	Config   *config.Config
	Acquirer *events.Acquirer
	Store    *session.Store
	Metrics  *metrics.Metrics
	Location *time.Location
	// Now overrides time.Now (tests).
	Now func() time.Time
}

// NewServer constructs a new Server.
func NewServer(d Deps) *Server {
	s := &Server{
		cfg:      d.Config,
		acquirer: d.Acquirer,
		store:    d.Store,
		metrics:  d.Metrics,
		loc:      d.Location,
		now:      d.Now,
		mux:      http.NewServeMux(),
	}
	if s.cfg == nil {
		s.cfg = config.DefaultConfig()
	}
	if s.store == nil {
		s.store = session.NewStore()
	}
	if s.acquirer == nil {
		s.acquirer = events.NewAcquirer(nil, nil, nil, nil)
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.recoverMiddleware(s.mux)
}

// StartServer serves until ctx is canceled, then shuts down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, s *Server) error {
	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/categories", s.handleCategories)
	s.mux.HandleFunc("POST /api/generate-calendar", s.handleGenerate)
	s.mux.HandleFunc("GET /api/download/{sessionId}", s.handleDownload)
	s.mux.HandleFunc("GET /events.ics", s.handleStaticCalendar)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// recoverMiddleware turns a panic in a handler into a 500 response.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				appLog.Error("handler panic", errors.New("panic"), "path", r.URL.Path, "panic", rec)
				writeFailure(w, http.StatusInternalServerError, "Internal server error", "unexpected failure while handling request")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

// failureResponse is the JSON body of every non-2xx API response.
type failureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeFailure(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, failureResponse{Success: false, Error: msg, Details: details})
}
