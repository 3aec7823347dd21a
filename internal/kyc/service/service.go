// Package service owns the KYC application lifecycle: creation, personal
// info, documents, biometric evidence and the scored decision.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"verity/internal/agecheck"
	"verity/internal/behavior"
	"verity/internal/detection"
	"verity/internal/evidence"
	"verity/internal/evidence/document"
	"verity/internal/kyc/metrics"
	"verity/internal/kyc/models"
	"verity/internal/trust"
	id "verity/pkg/domain"
	dErrors "verity/pkg/domain-errors"
	"verity/pkg/platform/clientinfo"
	"verity/pkg/platform/sentinel"
	"verity/pkg/requestcontext"
)

// evidenceTimeout bounds biometric evidence gathering as a whole; each
// collaborator also applies its own timeout.
const evidenceTimeout = 20 * time.Second

// Service runs the application state machine.
type Service struct {
	store     Store
	reference []detection.Record
	age       AgeEstimator
	liveness  LivenessVerifier
	documents DocumentAnalyzer
	audit     AuditRecorder
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithReference(records []detection.Record) Option {
	return func(s *Service) {
		s.reference = records
	}
}

func WithAgeEstimator(age AgeEstimator) Option {
	return func(s *Service) {
		s.age = age
	}
}

func WithLivenessVerifier(liveness LivenessVerifier) Option {
	return func(s *Service) {
		s.liveness = liveness
	}
}

func WithDocumentAnalyzer(documents DocumentAnalyzer) Option {
	return func(s *Service) {
		s.documents = documents
	}
}

func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(s *Service) {
		s.audit = recorder
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates the lifecycle service. Collaborators are optional; without
// them biometric evidence falls back to submitted values and defaults.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates a pending application with a fresh id.
func (s *Service) Start(ctx context.Context) (*models.Application, error) {
	app := models.NewApplication(id.NewApplicationID(), requestcontext.Now(ctx), clientFromContext(ctx))
	if err := s.store.Create(ctx, app); err != nil {
		return nil, translateStoreErr(err)
	}

	s.metrics.IncrementStarted()
	s.recordStarted(ctx, app)
	s.logger.InfoContext(ctx, "application started",
		"application_id", app.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return app, nil
}

// SubmitPersonalInfo attaches identity data and telemetry and moves the
// application to processing_info. Unknown ids are created, since clients may
// generate the id themselves.
func (s *Service) SubmitPersonalInfo(ctx context.Context, appID id.ApplicationID, info models.PersonalInfo, telemetry *trust.Behavior) (*models.Application, error) {
	if err := s.ensureExists(ctx, appID); err != nil {
		return nil, err
	}

	telemetry = bufferTelemetry(telemetry)
	now := requestcontext.Now(ctx)

	app, err := s.store.Execute(ctx, appID,
		func(app *models.Application) error {
			return requireTransition(app, models.StatusProcessingInfo)
		},
		func(app *models.Application) {
			app.PersonalInfo = &info
			app.Behavior = telemetry
			app.Status = models.StatusProcessingInfo
			app.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.metrics.IncrementTransition(string(models.StatusProcessingInfo))
	if s.audit != nil {
		s.audit.PersonalInfoReceived(ctx, app)
	}
	s.logger.InfoContext(ctx, "personal info received",
		"application_id", appID.String(),
		"telemetry_events", eventCount(telemetry),
		"request_id", requestcontext.RequestID(ctx),
	)
	return app, nil
}

// SubmitDocument analyzes an identity document and stores its verdict. The
// verdict is informational and does not change the score. An unreachable
// analyzer yields a verdict with available=false.
func (s *Service) SubmitDocument(ctx context.Context, appID id.ApplicationID, upload document.Upload) (*models.Document, error) {
	current, err := s.store.FindByID(ctx, appID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if err := requireOpen(current); err != nil {
		return nil, err
	}

	doc := models.Document{
		ID:         id.NewDocumentID(),
		FileName:   upload.FileName,
		Size:       len(upload.Content),
		IssueDate:  upload.IssueDate,
		UploadedAt: requestcontext.Now(ctx),
		Verdict:    s.analyzeDocument(ctx, appID, upload),
	}

	app, err := s.store.Execute(ctx, appID,
		requireOpen,
		func(app *models.Application) {
			app.Documents = append(app.Documents, doc)
			app.UpdatedAt = doc.UploadedAt
		},
	)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	if s.audit != nil {
		s.audit.DocumentReceived(ctx, app, doc)
	}
	return &doc, nil
}

// SubmitBiometric resolves camera evidence, scores the application and
// records the decision.
func (s *Service) SubmitBiometric(ctx context.Context, appID id.ApplicationID, submission models.BiometricSubmission) (*models.Application, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDecisionLatency(time.Since(start)) }()

	current, err := s.store.FindByID(ctx, appID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	// fail fast before spending collaborator calls
	if err := requireDecidable(current); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	bio := s.gatherBiometric(ctx, appID, submission)
	bio.SubmittedAt = now

	population, err := s.population(ctx, appID)
	if err != nil {
		return nil, err
	}

	result := s.score(current, population, bio, now)
	status := models.DecideStatus(result)

	app, err := s.store.Execute(ctx, appID,
		requireDecidable,
		func(app *models.Application) {
			app.Biometric = &bio
			app.Result = &result
			app.Status = status
			app.DecidedAt = &now
			app.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.metrics.IncrementTransition(string(status))
	s.metrics.ObserveCompositeScore(result.CompositeScore)
	if s.audit != nil {
		s.audit.Decision(ctx, app)
	}
	s.logger.InfoContext(ctx, "application decided",
		"application_id", appID.String(),
		"status", string(status),
		"composite_score", result.CompositeScore,
		"behavior_source", string(result.Behavior.Source),
		"age_source", bio.AgeSource,
		"request_id", requestcontext.RequestID(ctx),
	)
	return app, nil
}

// GetStatus returns the current status.
func (s *Service) GetStatus(ctx context.Context, appID id.ApplicationID) (models.Status, error) {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return "", err
	}
	return app.Status, nil
}

// GetResult returns the verdict, or nil while the application is undecided.
func (s *Service) GetResult(ctx context.Context, appID id.ApplicationID) (*trust.Result, error) {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return nil, err
	}
	return app.Result, nil
}

// Get returns the full application.
func (s *Service) Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	app, err := s.store.FindByID(ctx, appID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return app, nil
}

// List returns summaries of all applications, newest first.
func (s *Service) List(ctx context.Context) ([]models.Summary, error) {
	apps, err := s.store.List(ctx)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	summaries := make([]models.Summary, 0, len(apps))
	for _, app := range apps {
		summaries = append(summaries, app.Summarize())
	}
	return summaries, nil
}

// Delete removes an application.
func (s *Service) Delete(ctx context.Context, appID id.ApplicationID) error {
	if err := s.store.Delete(ctx, appID); err != nil {
		return translateStoreErr(err)
	}
	if s.audit != nil {
		s.audit.Deleted(ctx, appID)
	}
	s.logger.InfoContext(ctx, "application deleted",
		"application_id", appID.String(),
		"actor", requestcontext.Subject(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// -----------------------------------------------------------------------------
// Scoring
// -----------------------------------------------------------------------------

// score runs the aggregator over the application's personal info. The
// client-reported form time is only used when no telemetry was captured.
// score runs the aggregator. The fallback age stands in for the detector's
// faceAge only; without a measured age the age check is skipped.
func (s *Service) score(app *models.Application, population []detection.Record, bio models.Biometric, now time.Time) trust.Result {
	record, _ := app.Record()
	useTelemetryTiming := app.Behavior != nil || app.PersonalInfo == nil || app.PersonalInfo.FormTime == nil
	record = trust.WithUnifiedDefaults(record, useTelemetryTiming, app.ID.String())
	record.FaceAge = bio.VisualAge

	visualAge := bio.VisualAge
	if bio.AgeSource == models.AgeSourceFallback {
		visualAge = 0
	}

	return trust.Aggregate(trust.Input{
		Record:     record,
		Population: population,
		Behavior:   app.Behavior,
		VisualAge:  visualAge,
		Now:        now,
	})
}

// population is the reference set plus every other application's personal info.
func (s *Service) population(ctx context.Context, appID id.ApplicationID) ([]detection.Record, error) {
	apps, err := s.store.List(ctx)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	population := make([]detection.Record, 0, len(s.reference)+len(apps))
	population = append(population, s.reference...)
	for _, other := range apps {
		if other.ID == appID {
			continue
		}
		if record, ok := other.Record(); ok {
			population = append(population, record)
		}
	}
	return population, nil
}

// -----------------------------------------------------------------------------
// Evidence
// -----------------------------------------------------------------------------

// gatherBiometric resolves visual age and liveness in parallel. Neither
// branch fails: collaborator errors degrade to fallbacks.
func (s *Service) gatherBiometric(ctx context.Context, appID id.ApplicationID, sub models.BiometricSubmission) models.Biometric {
	ctx, cancel := context.WithTimeout(ctx, evidenceTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	var bio models.Biometric

	g.Go(func() error {
		start := time.Now()
		bio.VisualAge, bio.AgeSource, bio.AgeEstimate = s.resolveVisualAge(ctx, appID, sub)
		s.metrics.ObserveEvidenceLatency("visual_age", time.Since(start))
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		bio.Liveness, bio.LivenessSource = s.resolveLiveness(ctx, appID, sub)
		s.metrics.ObserveEvidenceLatency("liveness", time.Since(start))
		return nil
	})

	_ = g.Wait()
	return bio
}

// resolveVisualAge prefers an explicit age, then a submitted range, then the
// estimator on the face image, then DefaultVisualAge.
func (s *Service) resolveVisualAge(ctx context.Context, appID id.ApplicationID, sub models.BiometricSubmission) (float64, string, *evidence.AgeEstimate) {
	if sub.VisualAge != nil && *sub.VisualAge > 0 {
		return *sub.VisualAge, models.AgeSourceExplicit, nil
	}
	if sub.StartAge != nil && sub.EndAge != nil {
		return agecheck.VisualAge(*sub.StartAge, *sub.EndAge), models.AgeSourceRange, nil
	}
	if len(sub.FaceImage) > 0 && s.age != nil && s.age.Enabled() {
		estimate, err := s.age.Estimate(ctx, sub.FaceImage)
		if err == nil {
			return float64(estimate.AverageAge), models.AgeSourceEstimator, &estimate
		}
		s.logFallback(ctx, appID, evidence.CollaboratorAge, err)
	}
	s.metrics.IncrementFallback("visual_age")
	return models.DefaultVisualAge, models.AgeSourceFallback, nil
}

// resolveLiveness prefers an explicit client verdict, then the liveness
// collaborator on submitted frames.
func (s *Service) resolveLiveness(ctx context.Context, appID id.ApplicationID, sub models.BiometricSubmission) (evidence.LivenessResult, string) {
	if sub.LivenessVerified != nil {
		return evidence.LivenessResult{Available: true, Verified: *sub.LivenessVerified}, models.LivenessSourceExplicit
	}
	if len(sub.Frames) > 0 && s.liveness != nil && s.liveness.Enabled() {
		result, err := s.liveness.Verify(ctx, sub.Frames)
		if err == nil {
			return result, models.LivenessSourceCollaborator
		}
		s.logFallback(ctx, appID, evidence.CollaboratorLiveness, err)
		s.metrics.IncrementFallback("liveness")
		return evidence.LivenessResult{Available: false}, models.LivenessSourceCollaborator
	}
	return evidence.LivenessResult{}, models.LivenessSourceNone
}

func (s *Service) analyzeDocument(ctx context.Context, appID id.ApplicationID, upload document.Upload) evidence.DocumentVerdict {
	unavailable := evidence.DocumentVerdict{Available: false, Flags: []string{}}
	if s.documents == nil || !s.documents.Enabled() {
		return unavailable
	}
	verdict, err := s.documents.Analyze(ctx, upload)
	if err != nil {
		s.logFallback(ctx, appID, evidence.CollaboratorDocument, err)
		s.metrics.IncrementFallback("document")
		return unavailable
	}
	return verdict
}

func (s *Service) logFallback(ctx context.Context, appID id.ApplicationID, collaborator string, err error) {
	s.logger.WarnContext(ctx, "collaborator unavailable, using fallback",
		"collaborator", collaborator,
		"category", string(evidence.GetCategory(err)),
		"application_id", appID.String(),
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// ensureExists creates a pending application for a client-generated id.
func (s *Service) ensureExists(ctx context.Context, appID id.ApplicationID) error {
	_, err := s.store.FindByID(ctx, appID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return translateStoreErr(err)
	}

	app := models.NewApplication(appID, requestcontext.Now(ctx), clientFromContext(ctx))
	if err := s.store.Create(ctx, app); err != nil {
		// lost a race with a concurrent create; the application exists now
		if errors.Is(err, sentinel.ErrConflict) {
			return nil
		}
		return translateStoreErr(err)
	}
	s.metrics.IncrementStarted()
	s.recordStarted(ctx, app)
	return nil
}

func (s *Service) recordStarted(ctx context.Context, app *models.Application) {
	if s.audit != nil {
		s.audit.Started(ctx, app)
	}
}

func requireTransition(app *models.Application, next models.Status) error {
	if !app.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeConflict, "application is "+app.Status.String()+" and cannot move to "+next.String())
	}
	return nil
}

// requireOpen allows document uploads until a decision is made.
func requireOpen(app *models.Application) error {
	if app.Status.IsDecided() {
		return dErrors.New(dErrors.CodeConflict, "application is already "+app.Status.String())
	}
	return nil
}

func requireDecidable(app *models.Application) error {
	if app.Status != models.StatusProcessingInfo {
		return dErrors.New(dErrors.CodeConflict, "biometric submission requires status processing_info, application is "+app.Status.String())
	}
	return nil
}

// bufferTelemetry keeps only the most recent events through the ring buffer.
func bufferTelemetry(telemetry *trust.Behavior) *trust.Behavior {
	if telemetry == nil {
		return nil
	}
	buf := behavior.NewEventBuffer(behavior.MaxEvents)
	for _, e := range telemetry.Events {
		buf.Push(e)
	}
	out := *telemetry
	out.Events = buf.Events()
	return &out
}

func eventCount(telemetry *trust.Behavior) int {
	if telemetry == nil {
		return 0
	}
	return len(telemetry.Events)
}

func clientFromContext(ctx context.Context) clientinfo.Info {
	return clientinfo.Parse(requestcontext.ClientIP(ctx), requestcontext.UserAgent(ctx), requestcontext.DeviceID(ctx))
}

func translateStoreErr(err error) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "application already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "application store failure")
	}
}
