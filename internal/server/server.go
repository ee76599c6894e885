// Package server is the HTTP + WebSocket API surface for the audit service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farolabs/faro/internal/app"
	"github.com/farolabs/faro/internal/logging"
	"github.com/farolabs/faro/internal/store"
)

// Server routes API requests to the audit service.
type Server struct {
	service  *app.Service
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
	addr     string
}

// New creates a Server over an already-built service.
func New(service *app.Service, addr string, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	s := &Server{
		service: service,
		router:  chi.NewRouter(),
		logger:  logger.With(logging.Field{Key: "component", Value: "server"}),
		addr:    addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	r.Options("/audits", s.optionsHandler("GET, POST"))
	r.Options("/audits/{jobID}", s.optionsHandler("GET, DELETE"))
	r.Options("/runs", s.optionsHandler("GET"))
	r.Options("/runs/{runID}", s.optionsHandler("GET, DELETE"))
	r.Options("/runs/{runID}/diff", s.optionsHandler("GET"))

	// Audit jobs
	r.Post("/audits", s.handleStartAudit)
	r.Get("/audits", s.handleListAudits)
	r.Get("/audits/{jobID}", s.handleGetAudit)
	r.Delete("/audits/{jobID}", s.handleDeleteAudit)

	// Persisted run history
	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{runID}", s.handleGetRun)
	r.Delete("/runs/{runID}", s.handleDeleteRun)
	r.Get("/runs/{runID}/diff", s.handleDiffRuns)

	// WebSocket progress for a streamed audit
	r.Get("/ws/audits", s.handleAuditWS)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/metrics", promhttp.HandlerFor(s.service.Gatherers(), promhttp.HandlerOpts{}).ServeHTTP)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("http_request",
		logging.Field{Key: "method", Value: r.Method},
		logging.Field{Key: "path", Value: r.URL.Path})
	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.addr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
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
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- HTTP handlers ---

type startAuditRequest struct {
	URL string `json:"url"`
	// Wait makes the request block until the audit finishes and returns
	// the report instead of a job.
	Wait bool `json:"wait,omitempty"`
}

func (s *Server) handleStartAudit(w http.ResponseWriter, r *http.Request) {
	var req startAuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	if req.Wait {
		result, err := s.service.RunAudit(r.Context(), req.URL)
		if err != nil {
			s.logger.Warn("audit failed", logging.Field{Key: "error", Value: err.Error()})
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	// Background jobs outlive the request, so they get their own context.
	job := s.service.StartAuditJob(context.Background(), req.URL)
	s.logger.Info("started audit job",
		logging.Field{Key: "job_id", Value: job.ID},
		logging.Field{Key: "url", Value: req.URL})
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleListAudits(w http.ResponseWriter, r *http.Request) {
	jobs := s.service.ListJobs()
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := s.service.GetJob(jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleDeleteAudit(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if err := s.service.DeleteJob(jobID); err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.logger.Info("deleted job", logging.Field{Key: "job_id", Value: jobID})
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}

	runs, err := s.service.Store().List(r.Context(), r.URL.Query().Get("url"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	run, err := s.service.Store().Get(r.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	err := s.service.Store().Delete(r.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDiffRuns(w http.ResponseWriter, r *http.Request) {
	headID := chi.URLParam(r, "runID")
	baseID := r.URL.Query().Get("base")
	if baseID == "" {
		writeError(w, http.StatusBadRequest, "base query parameter is required")
		return
	}

	diff, err := s.service.Store().DiffRuns(r.Context(), baseID, headID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- WebSockets ---

// handleAuditWS starts an audit for ?url= and streams its job events until
// the job finishes or the client goes away.
func (s *Server) handleAuditWS(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	job := s.service.StartAuditJob(r.Context(), target)
	s.logger.Info("started streamed audit", logging.Field{Key: "job_id", Value: job.ID})
	_ = conn.WriteJSON(job)

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; cancel job
			_ = s.service.CancelJob(job.ID)
			return
		}
	}
}
