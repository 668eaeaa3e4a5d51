package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"

	"github.com/dshills/vulnscout/internal/model"
	"github.com/dshills/vulnscout/internal/output"
	"github.com/dshills/vulnscout/internal/scan"
	"github.com/dshills/vulnscout/internal/store"
)

const (
	DefaultAddr         = ":3000"
	DefaultListLimit    = 50
	MaxListLimit        = 500
	DefaultMaxBodyBytes = 5 << 20
)

// Config configures a Server.
type Config struct {
	Addr         string
	MaxBodyBytes int64
	Version      string
	Logger       hclog.Logger
}

// Server is the HTTP surface of vulnscout.
type Server struct {
	cfg     Config
	scans   *scan.Service
	webhook http.Handler
	router  chi.Router
	log     hclog.Logger
}

// New creates a Server. A nil webhook leaves /webhook/github unrouted.
func New(cfg Config, scans *scan.Service, webhook http.Handler) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	log := cfg.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	s := &Server{
		cfg:     cfg,
		scans:   scans,
		webhook: webhook,
		router:  chi.NewRouter(),
		log:     log.Named("http"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(securityHeaders)

	r.Get("/healthz", s.handleHealth)

	r.Post("/scan", s.handleCreateScan)
	r.Get("/scan", s.handleListScans)
	r.Get("/scan/{id}", s.handleGetScan)

	if s.webhook != nil {
		r.Method(http.MethodPost, "/webhook/github", s.webhook)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := s.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// --- HTTP handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.cfg.Version})
}

type scanRequest struct {
	Code     string `json:"code"`
	Filename string `json:"filename"`
	Language string `json:"language"`
	Repo     string `json:"repo"`
	PRNumber *int   `json:"prNumber"`
}

type scanResponse struct {
	Success bool        `json:"success"`
	Scan    *model.Scan `json:"scan,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (s *Server) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	var body scanRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	sc := s.scans.ScanCode(r.Context(), scan.Request{
		Code:     body.Code,
		Filename: body.Filename,
		Repo:     body.Repo,
		PRNumber: body.PRNumber,
		Language: body.Language,
	})
	if sc.Status == model.StatusFailed {
		status := http.StatusInternalServerError
		if sc.Error == scan.ErrEmptyInput.Error() {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, scanResponse{Success: false, Scan: sc, Error: sc.Error})
		return
	}
	writeJSON(w, http.StatusOK, scanResponse{Success: true, Scan: sc})
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxListLimit)
	}

	scans, err := s.scans.List(r.Context(), limit)
	if err != nil {
		s.log.Error("listing scans", "error", err)
		writeError(w, http.StatusInternalServerError, "listing scans failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"scans":   scans,
		"stats":   scan.ComputeStats(scans),
		"count":   len(scans),
	})
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sc, err := s.scans.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "scan not found")
		return
	}
	if err != nil {
		s.log.Error("loading scan", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "loading scan failed")
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, scanResponse{Success: true, Scan: sc})
	case "sarif", "markdown":
		report := output.NewReport(s.cfg.Version, sc)
		writer, _ := output.GetWriter(format)
		if format == "sarif" {
			w.Header().Set("Content-Type", "application/sarif+json")
		} else {
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		}
		if err := writer.Write(w, report); err != nil {
			s.log.Error("rendering scan", "id", id, "format", format, "error", err)
		}
	default:
		writeError(w, http.StatusBadRequest, "unsupported format: "+format)
	}
}
