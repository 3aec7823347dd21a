package dashboard

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"verity/internal/platform/middleware"
	"verity/pkg/platform/httputil"
)

// maxRecent caps the limit query parameter of the activity feed.
const maxRecent = 50

// Handler serves /api/dashboard.
type Handler struct {
	service *Service
	logger  *slog.Logger
	admin   func(http.Handler) http.Handler
}

// NewHandler creates the dashboard handler. admin guards every route; nil
// leaves them open.
func NewHandler(service *Service, logger *slog.Logger, admin func(http.Handler) http.Handler) *Handler {
	if admin == nil {
		admin = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{service: service, logger: logger, admin: admin}
}

// Register registers the dashboard routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/dashboard", func(r chi.Router) {
		r.Use(h.admin)
		r.Get("/stats", h.handleStats)
		r.Get("/risk-distribution", h.handleRiskDistribution)
		r.Get("/recent", h.handleRecent)
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleRiskDistribution(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.service.RiskDistribution(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, buckets)
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	n := DefaultRecent
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			n = min(v, maxRecent)
		}
	}
	recent, err := h.service.Recent(r.Context(), n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	h.logger.ErrorContext(ctx, "dashboard query failed",
		"request_id", middleware.GetRequestID(ctx),
		"path", r.URL.Path,
		"error", err,
	)
	httputil.WriteError(w, err)
}
