package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/casalist/media-pipeline/internal/dbosruntime"
	"github.com/casalist/media-pipeline/internal/ingress"
	"github.com/casalist/media-pipeline/internal/metrics"
	"github.com/casalist/media-pipeline/internal/orchestration"
	"github.com/casalist/media-pipeline/internal/thumbnail"
	"github.com/casalist/media-pipeline/internal/validate"
	"github.com/casalist/media-pipeline/pkg/pipeline"
)

// Server exposes the direct-invocation HTTP surface of the pipeline.
type Server struct {
	validator *validate.BatchValidator
	deriver   *thumbnail.BatchDeriver
	bridge    *orchestration.Bridge
	runtime   *dbosruntime.Runtime
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewServer creates the handler set. bridge and runtime are optional: without
// a bridge /v1/process is not served, without a runtime /v1/runs is not.
func NewServer(validator *validate.BatchValidator, deriver *thumbnail.BatchDeriver, bridge *orchestration.Bridge, runtime *dbosruntime.Runtime, m *metrics.Metrics, logger zerolog.Logger) *Server {
	return &Server{
		validator: validator,
		deriver:   deriver,
		bridge:    bridge,
		runtime:   runtime,
		metrics:   m,
		logger:    logger,
	}
}

// Router builds the chi router for the server.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}

	r.Post("/v1/validate", s.handleValidate)
	r.Post("/v1/derive", s.handleDerive)
	if s.bridge != nil {
		r.Post("/v1/process", s.handleProcess)
	}
	if s.runtime != nil {
		r.Get("/v1/runs/{runID}", s.handleRunStatus)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleValidate runs the validation stage only. Direct invocation never
// signals the downstream trigger.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var payload pipeline.BatchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	start := time.Now()
	report, err := s.validator.Validate(r.Context(), payload)
	if s.metrics != nil {
		s.metrics.StageDuration.WithLabelValues("validate").Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleDerive(w http.ResponseWriter, r *http.Request) {
	var req pipeline.DerivationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	start := time.Now()
	report, err := s.deriver.DeriveBatch(r.Context(), req)
	if s.metrics != nil {
		s.metrics.StageDuration.WithLabelValues("derive").Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// processResponse is the /v1/process reply: the validation report plus
// whether the downstream workflow was triggered.
type processResponse struct {
	Report    pipeline.ValidationReport `json:"report"`
	Triggered bool                      `json:"triggered"`
}

// handleProcess mimics a transport record: validate, then signal the
// downstream trigger when the batch is clean.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	payload, err := ingress.ParsePayload(body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	report, err := s.validator.Validate(r.Context(), payload)
	if err != nil {
		s.writeError(w, err)
		return
	}

	triggered, err := s.bridge.MaybeSignal(r.Context(), report, body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, processResponse{Report: report, Triggered: triggered})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	status, err := s.runtime.GetWorkflowStatus(r.Context(), runID)
	if err != nil {
		s.logger.Warn().Str("run_id", runID).Err(err).Msg("workflow status lookup failed")
		http.Error(w, "workflow not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, pipeline.ErrMalformedBatch) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Error().Err(err).Msg("request failed")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
