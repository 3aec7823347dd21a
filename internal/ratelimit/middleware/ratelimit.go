// Package middleware limits requests per client address with a sliding
// window per endpoint class.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"verity/internal/ratelimit/metrics"
	"verity/internal/ratelimit/models"
	"verity/pkg/platform/httputil"
	"verity/pkg/requestcontext"
)

// BucketStore is a sliding window counter.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

// DefaultLimits apply per client address per minute.
var DefaultLimits = map[models.EndpointClass]models.Limit{
	models.ClassWrite:    {RequestsPerWindow: 30, Window: time.Minute},
	models.ClassRead:     {RequestsPerWindow: 120, Window: time.Minute},
	models.ClassAnalysis: {RequestsPerWindow: 60, Window: time.Minute},
}

type Middleware struct {
	store    BucketStore
	limits   map[models.EndpointClass]models.Limit
	metrics  *metrics.Metrics
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithLimit overrides the limit of one class. Non-positive values are ignored.
func WithLimit(class models.EndpointClass, limit models.Limit) Option {
	return func(m *Middleware) {
		if limit.RequestsPerWindow > 0 && limit.Window > 0 {
			m.limits[class] = limit
		}
	}
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

func New(store BucketStore, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:  store,
		limits: make(map[models.EndpointClass]models.Limit, len(DefaultLimits)),
		logger: logger,
	}
	for class, limit := range DefaultLimits {
		m.limits[class] = limit
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Classify maps a request to its endpoint class. Health and metrics probes
// are never limited.
func Classify(r *http.Request) (models.EndpointClass, bool) {
	path := r.URL.Path
	switch {
	case path == "/metrics", strings.HasPrefix(path, "/api/health"):
		return "", false
	case path == "/api/analyze", path == "/api/unified":
		return models.ClassAnalysis, true
	case r.Method == http.MethodGet, r.Method == http.MethodHead:
		return models.ClassRead, true
	default:
		return models.ClassWrite, true
	}
}

// ByRoute limits every request in the class Classify assigns to it.
func (m *Middleware) ByRoute() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class, limited := Classify(r)
			if !limited || m.disabled {
				next.ServeHTTP(w, r)
				return
			}
			if m.allow(w, r, class) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// allow checks the bucket and writes the 429 when the client is over its
// limit. Store failures let the request through.
func (m *Middleware) allow(w http.ResponseWriter, r *http.Request, class models.EndpointClass) bool {
	ctx := r.Context()
	limit, ok := m.limits[class]
	if !ok {
		return true
	}
	ip := requestcontext.ClientIP(ctx)

	result, err := m.store.Allow(ctx, models.NewIPRateLimitKey(ip, class), limit.RequestsPerWindow, limit.Window)
	if err != nil {
		m.metrics.IncrementStoreErrors()
		m.logger.ErrorContext(ctx, "failed to check IP rate limit",
			"error", err,
			"class", string(class),
			"request_id", requestcontext.RequestID(ctx),
		)
		return true
	}

	addRateLimitHeaders(w, result)
	if !result.Allowed {
		m.metrics.IncrementRejections(string(class))
		m.logger.WarnContext(ctx, "rate limit exceeded",
			"class", string(class),
			"request_id", requestcontext.RequestID(ctx),
		)
		writeRateLimitExceeded(w, result)
		return false
	}
	return true
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests from this IP address. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
