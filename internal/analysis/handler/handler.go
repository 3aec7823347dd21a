// Package handler serves the stateless analysis endpoints: batch and single
// record correlation, unified trust scoring, and health.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"verity/internal/analysis/metrics"
	"verity/internal/detection"
	"verity/internal/evidence"
	"verity/internal/platform/middleware"
	"verity/internal/trust"
	"verity/pkg/platform/httputil"
	"verity/pkg/requestcontext"
)

const defaultHealthTimeout = 2 * time.Second

// Handler handles /api/analyze, /api/unified and /api/health.
type Handler struct {
	reference     []detection.Record
	probers       []evidence.Prober
	healthTimeout time.Duration
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithReference sets the population single records are compared against.
func WithReference(records []detection.Record) Option {
	return func(h *Handler) {
		h.reference = records
	}
}

// WithProbers sets the collaborators reported by /api/health/services.
func WithProbers(timeout time.Duration, probers ...evidence.Prober) Option {
	return func(h *Handler) {
		if timeout > 0 {
			h.healthTimeout = timeout
		}
		h.probers = probers
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

func New(logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		healthTimeout: defaultHealthTimeout,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the analysis routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/analyze", h.handleAnalyze)
	r.Post("/api/unified", h.handleUnified)
	r.Get("/api/health", h.handleHealth)
	r.Get("/api/health/services", h.handleServices)
}

type analyzeResponse struct {
	Success bool               `json:"success"`
	Summary detection.Summary  `json:"summary"`
	Results []detection.Result `json:"results"`
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AnalyzeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	now := requestcontext.Now(ctx)
	var results []detection.Result
	if req.single != nil {
		results = []detection.Result{detection.AnalyzeAgainst(*req.single, h.reference, now)}
	} else {
		results = detection.AnalyzeBatch(req.records, now)
	}
	for _, res := range results {
		h.metrics.ObserveAnalysis(res.Analysis.IsSynthetic, ruleFamilies(res.Analysis.Reasons))
	}

	summary := detection.Summarize(results)
	h.logger.InfoContext(ctx, "records analysed",
		"request_id", requestID,
		"total", summary.TotalRecords,
		"synthetic", summary.SyntheticCount,
	)
	httputil.WriteJSON(w, http.StatusOK, analyzeResponse{
		Success: true,
		Summary: summary,
		Results: results,
	})
}

type unifiedResponse struct {
	Success bool `json:"success"`
	trust.Result
}

func (h *Handler) handleUnified(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[UnifiedRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	correlationID := requestID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	record := trust.WithUnifiedDefaults(*req.Record, req.Behavior != nil, correlationID)

	var visualAge float64
	if req.Biometric != nil {
		visualAge = req.Biometric.VisualAge
	}

	result := trust.Aggregate(trust.Input{
		Record:     record,
		Population: h.reference,
		Behavior:   req.Behavior,
		VisualAge:  visualAge,
		Now:        requestcontext.Now(ctx),
	})
	h.metrics.ObserveUnified(result.CompositeScore, string(result.Behavior.Source))

	h.logger.InfoContext(ctx, "unified analysis",
		"request_id", requestID,
		"composite_score", result.CompositeScore,
		"behavior_source", string(result.Behavior.Source),
		"overridden", result.Overridden,
	)
	httputil.WriteJSON(w, http.StatusOK, unifiedResponse{Success: true, Result: result})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": requestcontext.Now(r.Context()).UTC().Format(time.RFC3339Nano),
	})
}

// handleServices reports collaborator reachability. The endpoint itself
// always answers 200; offline collaborators degrade, they do not fail.
func (h *Handler) handleServices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	services := evidence.CheckAll(ctx, h.healthTimeout, func() time.Time { return requestcontext.Now(ctx) }, h.probers...)

	status := "ok"
	for _, s := range services {
		if s.Status == evidence.StatusOffline {
			status = "degraded"
			break
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":   status,
		"services": services,
	})
}

func ruleFamilies(reasons []detection.Reason) []string {
	families := make([]string, len(reasons))
	for i, reason := range reasons {
		families[i] = detection.RuleFamily(reason.Rule)
	}
	return families
}
