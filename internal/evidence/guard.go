package evidence

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"verity/internal/evidence/metrics"
	"verity/pkg/platform/circuit"
)

// Guard bounds a collaborator call with a timeout and a circuit breaker.
// Calls are never retried; failures are reported as CollaboratorError.
type Guard struct {
	name    string
	timeout time.Duration
	breaker *circuit.Breaker
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

func WithTimeout(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) GuardOption {
	return func(g *Guard) {
		if b != nil {
			g.breaker = b
		}
	}
}

func WithMetrics(m *metrics.Metrics) GuardOption {
	return func(g *Guard) {
		g.metrics = m
	}
}

func WithLogger(logger *slog.Logger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGuard creates a guard with a 10s timeout and a default breaker.
func NewGuard(name string, opts ...GuardOption) *Guard {
	g := &Guard{
		name:    name,
		timeout: 10 * time.Second,
		logger:  slog.Default(),
		tracer:  otel.Tracer("verity/evidence"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.breaker == nil {
		g.breaker = circuit.New(name)
	}
	return g
}

func (g *Guard) Name() string {
	return g.name
}

// CircuitState reports the breaker state for health output.
func (g *Guard) CircuitState() circuit.State {
	return g.breaker.State()
}

// Call runs fn under the guard's timeout inside a span named after the
// collaborator. A rejected call (open circuit) returns ErrorCircuitOpen
// without invoking fn.
func (g *Guard) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, span := g.tracer.Start(ctx, "collaborator."+g.name, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	err := g.call(ctx, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (g *Guard) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if !g.breaker.Allow() {
		g.metrics.ObserveCall(g.name, string(ErrorCircuitOpen), 0)
		return NewError(ErrorCircuitOpen, g.name, "circuit open", nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	elapsed := time.Since(start)

	if err == nil {
		g.metrics.ObserveCall(g.name, "ok", elapsed)
		if _, change := g.breaker.RecordSuccess(); change.Closed {
			g.metrics.SetCircuitOpen(g.name, false)
			g.logger.InfoContext(ctx, "collaborator circuit closed", "collaborator", g.name)
		}
		return nil
	}

	cerr := classify(g.name, err)
	g.metrics.ObserveCall(g.name, string(cerr.Category), elapsed)

	// the caller gave up; says nothing about the collaborator
	if ctx.Err() != nil {
		return cerr
	}

	if cerr.Category == ErrorTimeout || cerr.Category == ErrorOutage {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.metrics.SetCircuitOpen(g.name, true)
			g.logger.WarnContext(ctx, "collaborator circuit opened", "collaborator", g.name)
		}
	} else {
		g.breaker.RecordSuccess()
	}
	return cerr
}

// NewHTTPClient returns an HTTP client whose requests are traced.
// Timeouts come from the Guard's context, not the client.
func NewHTTPClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}
