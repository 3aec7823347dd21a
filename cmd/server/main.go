package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	analysishandler "verity/internal/analysis/handler"
	analysismetrics "verity/internal/analysis/metrics"
	"verity/internal/audit"
	"verity/internal/dashboard"
	"verity/internal/detection"
	"verity/internal/evidence"
	"verity/internal/evidence/age"
	"verity/internal/evidence/document"
	"verity/internal/evidence/liveness"
	evidencemetrics "verity/internal/evidence/metrics"
	httpapi "verity/internal/http"
	kychandler "verity/internal/kyc/handler"
	kycmetrics "verity/internal/kyc/metrics"
	kycservice "verity/internal/kyc/service"
	kycmemory "verity/internal/kyc/store/memory"
	kycpostgres "verity/internal/kyc/store/postgres"
	kycredis "verity/internal/kyc/store/redis"
	ratelimitmetrics "verity/internal/ratelimit/metrics"
	ratelimit "verity/internal/ratelimit/middleware"
	ratelimitmodels "verity/internal/ratelimit/models"
	"verity/internal/ratelimit/store/bucket"
	jwttoken "verity/internal/jwt_token"
	"verity/internal/platform/config"
	"verity/internal/platform/httpserver"
	"verity/internal/platform/kafka"
	"verity/internal/platform/logger"
	"verity/internal/platform/metrics"
	"verity/internal/platform/middleware"
	"verity/internal/platform/postgres"
	"verity/internal/platform/redis"
	"verity/internal/platform/telemetry"
	auditmodel "verity/pkg/platform/audit"
	auditpublisher "verity/pkg/platform/audit/publisher"
	auditkafka "verity/pkg/platform/audit/store/kafka"
	auditmemory "verity/pkg/platform/audit/store/memory"
	auditpostgres "verity/pkg/platform/audit/store/postgres"
	"verity/pkg/platform/circuit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	configPath := pflag.StringP("config", "c", "config.yaml", "path to an optional YAML config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verity: %v\n", err)
		os.Exit(1)
	}

	log, logCloser := logger.New(cfg.Log)
	err = run(cfg, log)
	_ = logCloser.Close()
	if err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// infra holds the storage backends selected by configuration and the
// functions that release them.
type infra struct {
	store   kycservice.Store
	db      *sql.DB
	redis   *redis.Client
	closers []func()
}

func (i *infra) close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		i.closers[j]()
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(cfg.Telemetry, os.Stdout, log)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	var reference []detection.Record
	if cfg.Detection.ReferenceFile != "" {
		reference, err = detection.LoadReference(cfg.Detection.ReferenceFile)
		if err != nil {
			return fmt.Errorf("load reference population: %w", err)
		}
		log.Info("reference population loaded", "records", len(reference))
	}

	backends, err := buildStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backends.close()

	publisher, err := buildAuditPublisher(ctx, cfg, backends, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("audit publisher drain failed", "error", err)
		}
	}()
	recorder := audit.NewRecorder(publisher, cfg.Audit.HashKey, log)

	collaborators := cfg.Collaborators
	evMetrics := evidencemetrics.New()
	guard := func(name string, timeout time.Duration) *evidence.Guard {
		breaker := circuit.New(name,
			circuit.WithFailureThreshold(collaborators.FailureThreshold),
			circuit.WithSuccessThreshold(collaborators.SuccessThreshold),
			circuit.WithCooldown(collaborators.Cooldown),
		)
		return evidence.NewGuard(name,
			evidence.WithTimeout(timeout),
			evidence.WithBreaker(breaker),
			evidence.WithMetrics(evMetrics),
			evidence.WithLogger(log),
		)
	}
	ageClient := age.New(collaborators.AgeURL, evidence.NewHTTPClient(),
		guard(evidence.CollaboratorAge, collaborators.AgeTimeout))
	documentClient := document.New(collaborators.DocumentURL, evidence.NewHTTPClient(),
		guard(evidence.CollaboratorDocument, collaborators.DocumentTimeout))
	livenessClient := liveness.New(collaborators.LivenessURL,
		guard(evidence.CollaboratorLiveness, collaborators.LivenessTimeout))

	kycService := kycservice.New(backends.store,
		kycservice.WithReference(reference),
		kycservice.WithAgeEstimator(ageClient),
		kycservice.WithDocumentAnalyzer(documentClient),
		kycservice.WithLivenessVerifier(livenessClient),
		kycservice.WithAuditRecorder(recorder),
		kycservice.WithMetrics(kycmetrics.New()),
		kycservice.WithLogger(log),
	)

	var validator middleware.TokenValidator
	if cfg.Admin.JWTSecret != "" {
		validator = jwttoken.NewJWTService(cfg.Admin.JWTSecret, cfg.Admin.Issuer)
	} else {
		log.Warn("admin routes are unauthenticated; set admin.jwt_secret to protect them")
	}
	requireAdmin := middleware.RequireAdmin(validator, log)

	rateLimit, err := buildRateLimit(ctx, cfg, backends, log)
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(
		httpapi.Options{
			Logger:         log,
			Metrics:        metrics.New(),
			RequestTimeout: cfg.Server.RequestTimeout,
			ServiceName:    cfg.Telemetry.ServiceName,
			RateLimit:      rateLimit,
		},
		kychandler.New(kycService, log, requireAdmin),
		dashboard.NewHandler(dashboard.New(backends.store), log, requireAdmin),
		analysishandler.New(log,
			analysishandler.WithReference(reference),
			analysishandler.WithProbers(collaborators.HealthTimeout, ageClient, documentClient, livenessClient),
			analysishandler.WithMetrics(analysismetrics.New()),
		),
	)

	srv := httpserver.New(cfg.Server, router)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting verity",
			"addr", cfg.Server.Addr,
			"storage", cfg.Storage.Driver,
			"reference_records", len(reference),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func buildStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (*infra, error) {
	backends := &infra{}
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		backends.db = db
		backends.store = kycpostgres.New(db)
		backends.closers = append(backends.closers, func() { _ = db.Close() })
	case config.DriverRedis:
		client, err := backends.redisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		backends.store = kycredis.New(client.Client, cfg.Redis.KeyPrefix, cfg.Redis.TTL)
	default:
		backends.store = kycmemory.New()
	}
	log.Info("application store ready", "driver", cfg.Storage.Driver)
	return backends, nil
}

// redisClient connects once; the application store and the rate limiter
// share the connection pool.
func (i *infra) redisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if i.redis != nil {
		return i.redis, nil
	}
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	i.redis = client
	i.closers = append(i.closers, func() { _ = client.Close() })
	return client, nil
}

// buildRateLimit returns nil when rate limiting is disabled. Buckets are kept
// in Redis when it is configured so replicas share one budget.
func buildRateLimit(ctx context.Context, cfg *config.Config, backends *infra, log *slog.Logger) (func(http.Handler) http.Handler, error) {
	rl := cfg.RateLimit
	if !rl.Enabled {
		log.Info("rate limiting disabled")
		return nil, nil
	}

	var store ratelimit.BucketStore = bucket.New()
	if cfg.Redis.URL != "" {
		client, err := backends.redisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store = bucket.NewRedis(client.Client, cfg.Redis.KeyPrefix)
	}

	limiter := ratelimit.New(store, log,
		ratelimit.WithLimit(ratelimitmodels.ClassWrite, ratelimitmodels.Limit{RequestsPerWindow: rl.WriteLimit, Window: rl.Window}),
		ratelimit.WithLimit(ratelimitmodels.ClassRead, ratelimitmodels.Limit{RequestsPerWindow: rl.ReadLimit, Window: rl.Window}),
		ratelimit.WithLimit(ratelimitmodels.ClassAnalysis, ratelimitmodels.Limit{RequestsPerWindow: rl.AnalysisLimit, Window: rl.Window}),
		ratelimit.WithMetrics(ratelimitmetrics.New()),
	)
	return limiter.ByRoute(), nil
}

// buildAuditPublisher keeps a queryable view of audit events (postgres when
// available, memory otherwise) and, with brokers configured, streams every
// event to Kafka ahead of the view.
func buildAuditPublisher(ctx context.Context, cfg *config.Config, backends *infra, log *slog.Logger) (*auditpublisher.Publisher, error) {
	var store auditmodel.Store = auditmemory.NewInMemoryStore()
	if backends.db != nil {
		store = auditpostgres.New(backends.db)
	}

	producer, err := kafka.NewProducer(ctx, cfg.Kafka)
	if err != nil {
		return nil, fmt.Errorf("audit kafka: %w", err)
	}
	if producer != nil {
		store = auditkafka.New(producer, store)
		backends.closers = append(backends.closers, producer.Close)
		log.Info("audit events streaming to kafka", "topic", producer.Topic())
	}

	return auditpublisher.NewPublisher(store,
		auditpublisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer),
		auditpublisher.WithLogger(log),
	), nil
}
