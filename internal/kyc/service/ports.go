package service

import (
	"context"

	"verity/internal/evidence"
	"verity/internal/evidence/document"
	"verity/internal/kyc/models"
	id "verity/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/ports-mocks.go -package=mocks

// Store persists applications. Implementations return sentinel.ErrNotFound
// for unknown ids and sentinel.ErrConflict when creating an existing id.
type Store interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	Update(ctx context.Context, app *models.Application) error
	Delete(ctx context.Context, appID id.ApplicationID) error
	// List returns every application, newest first.
	List(ctx context.Context) ([]*models.Application, error)
	// Execute loads the application, runs validate and then mutate atomically
	// with respect to other writers of the same id, and persists the result.
	// A validate error aborts without writing and is returned unchanged.
	Execute(ctx context.Context, appID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error)
}

// AgeEstimator estimates an age range from a face snapshot.
type AgeEstimator interface {
	Enabled() bool
	Estimate(ctx context.Context, image []byte) (evidence.AgeEstimate, error)
}

// LivenessVerifier runs a liveness challenge over captured frames.
type LivenessVerifier interface {
	Enabled() bool
	Verify(ctx context.Context, frames [][]byte) (evidence.LivenessResult, error)
}

// DocumentAnalyzer checks an identity document for forgery.
type DocumentAnalyzer interface {
	Enabled() bool
	Analyze(ctx context.Context, upload document.Upload) (evidence.DocumentVerdict, error)
}

// AuditRecorder records lifecycle milestones.
type AuditRecorder interface {
	Started(ctx context.Context, app *models.Application)
	PersonalInfoReceived(ctx context.Context, app *models.Application)
	DocumentReceived(ctx context.Context, app *models.Application, doc models.Document)
	Decision(ctx context.Context, app *models.Application)
	Deleted(ctx context.Context, appID id.ApplicationID)
}
