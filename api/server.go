// Package api provides the HTTP REST API server for secfilter.
//
// It exposes the filing search and export operations, provider status,
// health, and Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/secfilter/internal/config"
	"github.com/seenimoa/secfilter/internal/filings"
	"github.com/seenimoa/secfilter/internal/metrics"
	"github.com/seenimoa/secfilter/internal/provider"
	"github.com/seenimoa/secfilter/pkg/models"
	"github.com/seenimoa/secfilter/pkg/utils"
)

// FilingService is the pipeline the handlers call into.
type FilingService interface {
	FetchPage(ctx context.Context, req filings.PageRequest) (models.PaginatedResult, error)
	Export(ctx context.Context, req filings.ExportRequest) (models.ExportResult, error)
}

// StatusReporter exposes cache and feed state for /api/v1/status.
type StatusReporter interface {
	Status() filings.Status
}

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	pipeline FilingService
	registry *provider.Registry
	status   StatusReporter
	logger   *slog.Logger
	version  string
}

// NewServer creates a configured API server with all routes and middleware.
// registry may be nil, in which case /api/v1/providers reports nothing.
func NewServer(cfg *config.Config, pipeline FilingService, registry *provider.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		registry: registry,
		logger:   logger.With("component", "api"),
		version:  "dev",
	}
	srv.router = srv.buildRouter()
	return srv
}

// SetVersion sets the version reported by /health.
func (s *Server) SetVersion(v string) { s.version = v }

// SetStatusReporter sets the source of /api/v1/status.
func (s *Server) SetStatusReporter(r StatusReporter) { s.status = r }

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server and shuts it down gracefully on
// SIGINT/SIGTERM.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // exports page through whole feeds
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-done:
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if s.cfg != nil && len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/providers", s.handleProviders)
		r.Get("/status", s.handleStatus)

		r.Post("/filings", s.handleFilings)
		r.Post("/export", s.handleExport)
	})

	return r
}

// requestLogger logs one line per request through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ============================================================
// Request / Response Types
// ============================================================

// APIResponse is the standard JSON envelope for all API responses.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FilingsRequest is the body for POST /api/v1/filings and /api/v1/export.
// Dates accept YYYY-MM-DD or YYYYMMDD.
type FilingsRequest struct {
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	FileType     string   `json:"fileType"`
	MinMarketCap *float64 `json:"minMarketCap,omitempty"`
	MaxMarketCap *float64 `json:"maxMarketCap,omitempty"`
	Page         int      `json:"page,omitempty"`  // default 1
	Limit        int      `json:"limit,omitempty"` // default 50
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

// parsedRange holds the validated common fields of a FilingsRequest.
type parsedRange struct {
	formType   string
	start, end time.Time
	criteria   models.FilterCriteria
}

func (req FilingsRequest) parse() (parsedRange, string) {
	if req.StartDate == "" || req.EndDate == "" || req.FileType == "" {
		return parsedRange{}, "Missing required fields: startDate, endDate, and fileType are required"
	}
	start, err := utils.ParseDate(req.StartDate)
	if err != nil {
		return parsedRange{}, "invalid startDate; use YYYY-MM-DD"
	}
	end, err := utils.ParseDate(req.EndDate)
	if err != nil {
		return parsedRange{}, "invalid endDate; use YYYY-MM-DD"
	}
	return parsedRange{
		formType: req.FileType,
		start:    start,
		end:      end,
		criteria: models.FilterCriteria{MinMarketCap: req.MinMarketCap, MaxMarketCap: req.MaxMarketCap},
	}, ""
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: HealthResponse{
			Status:  "ok",
			Version: s.version,
			Time:    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: []provider.PingStatus{}})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.registry.PingAll(r.Context(), 10*time.Second),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := filings.CurrentStatus(nil, nil)
	if s.status != nil {
		st = s.status.Status()
	}
	data := struct {
		filings.Status
		Capabilities map[provider.Capability][]string `json:"capabilities,omitempty"`
	}{Status: st}
	if s.registry != nil {
		data.Capabilities = s.registry.Capabilities()
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func (s *Server) handleFilings(w http.ResponseWriter, r *http.Request) {
	var req FilingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rng, msg := req.parse()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := s.pipeline.FetchPage(r.Context(), filings.PageRequest{
		FormType: rng.formType,
		Start:    rng.start,
		End:      rng.end,
		Criteria: rng.criteria,
		Page:     req.Page,
		Limit:    req.Limit,
	})
	if err != nil {
		s.writePipelineError(w, r, "Failed to fetch filings", err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req FilingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rng, msg := req.parse()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := s.pipeline.Export(r.Context(), filings.ExportRequest{
		FormType: rng.formType,
		Start:    rng.start,
		End:      rng.end,
		Criteria: rng.criteria,
	})
	if err != nil {
		s.writePipelineError(w, r, "Failed to export filings", err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

// writePipelineError maps pipeline errors onto HTTP statuses.
func (s *Server) writePipelineError(w http.ResponseWriter, r *http.Request, what string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, filings.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, filings.ErrRateLimitExceeded):
		status = http.StatusTooManyRequests
	}
	s.logger.Error(what, "path", r.URL.Path, "status", status, "error", err)
	writeError(w, status, what+": "+err.Error())
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
