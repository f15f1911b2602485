// Package chi exposes the operational HTTP surface: health, provider
// status, pipeline triggering and Prometheus metrics.
package chi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/paperbase/semsearch/internal/domain"
	"github.com/paperbase/semsearch/internal/metrics"
	healthuc "github.com/paperbase/semsearch/internal/usecase/health"
	"github.com/paperbase/semsearch/internal/usecase/pipeline"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest    = "bad_request"
	codeInternalError = "internal_error"
)

// PipelineRunner triggers embedding batches.
type PipelineRunner interface {
	FillGaps(ctx context.Context, ownerID string) (pipeline.Report, error)
	Regenerate(ctx context.Context, ownerID string) (pipeline.Report, error)
}

// ProviderDirectory reports the configured provider chain.
type ProviderDirectory interface {
	Status(ctx context.Context) []domain.ProviderStatus
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server implements the operational HTTP handlers.
type Server struct {
	pipeline  PipelineRunner
	providers ProviderDirectory
	health    HealthChecker
	logger    *zap.Logger
}

// NewServer creates an operational HTTP server.
func NewServer(p PipelineRunner, providers ProviderDirectory, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{pipeline: p, providers: providers, health: health, logger: logger}
}

// Router assembles the chi router with the standard middleware stack.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.HealthCheck)
	r.Get("/providers", s.Providers)
	r.Post("/pipeline/run", s.RunPipeline)
	r.Get("/metrics", s.Metrics)
	return r
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, report)
}

// Providers handles GET /providers.
func (s *Server) Providers(w http.ResponseWriter, r *http.Request) {
	statuses := s.providers.Status(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"providers": statuses,
	})
}

type runPipelineRequest struct {
	OwnerID string `json:"owner_id"`
	Force   bool   `json:"force"`
}

type runPipelineResponse struct {
	Mode      string `json:"mode"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Aborted   bool   `json:"aborted"`
}

// RunPipeline handles POST /pipeline/run. The batch runs synchronously on
// the request context; closing the connection stops it between documents.
func (s *Server) RunPipeline(w http.ResponseWriter, r *http.Request) {
	var req runPipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.OwnerID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "owner_id is required")
		return
	}

	mode := pipeline.ModeFillGaps
	run := s.pipeline.FillGaps
	if req.Force {
		mode = pipeline.ModeRegenerate
		run = s.pipeline.Regenerate
	}

	report, err := run(r.Context(), req.OwnerID)
	if err != nil {
		s.logger.Error("Pipeline run failed",
			zap.String("owner_id", req.OwnerID),
			zap.String("mode", string(mode)),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, runPipelineResponse{
		Mode:      string(mode),
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
		Aborted:   report.Aborted,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
