// Package handler exposes the KYC application lifecycle over HTTP.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"verity/internal/evidence/document"
	"verity/internal/kyc/models"
	"verity/internal/platform/middleware"
	"verity/internal/trust"
	id "verity/pkg/domain"
	dErrors "verity/pkg/domain-errors"
	"verity/pkg/platform/httputil"
)

// maxUploadBytes bounds a document upload.
const maxUploadBytes = 10 << 20

//go:generate mockgen -source=handler.go -destination=mocks/kyc-mocks.go -package=mocks Service

// Service defines the lifecycle operations the handler needs.
type Service interface {
	Start(ctx context.Context) (*models.Application, error)
	SubmitPersonalInfo(ctx context.Context, appID id.ApplicationID, info models.PersonalInfo, telemetry *trust.Behavior) (*models.Application, error)
	SubmitDocument(ctx context.Context, appID id.ApplicationID, upload document.Upload) (*models.Document, error)
	SubmitBiometric(ctx context.Context, appID id.ApplicationID, submission models.BiometricSubmission) (*models.Application, error)
	GetStatus(ctx context.Context, appID id.ApplicationID) (models.Status, error)
	GetResult(ctx context.Context, appID id.ApplicationID) (*trust.Result, error)
	Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	List(ctx context.Context) ([]models.Summary, error)
	Delete(ctx context.Context, appID id.ApplicationID) error
}

// Handler handles /api/kyc endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
	admin   func(http.Handler) http.Handler
}

// New creates a KYC handler. admin guards the listing, read and delete
// routes; nil leaves them open.
func New(service Service, logger *slog.Logger, admin func(http.Handler) http.Handler) *Handler {
	if admin == nil {
		admin = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{
		service: service,
		logger:  logger,
		admin:   admin,
	}
}

// Register registers the KYC routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/kyc", func(r chi.Router) {
		r.Post("/start", h.handleStart)
		r.Post("/{id}/personal-info", h.handlePersonalInfo)
		r.Post("/{id}/document", h.handleDocument)
		r.Post("/{id}/biometric", h.handleBiometric)
		r.Get("/{id}/status", h.handleStatus)
		r.Get("/{id}/result", h.handleResult)

		r.Group(func(r chi.Router) {
			r.Use(h.admin)
			r.Get("/applications", h.handleList)
			r.Get("/{id}", h.handleGet)
			r.Delete("/{id}", h.handleDelete)
		})
	})
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, err := h.service.Start(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to start application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"applicationId": app.ID})
}

func (h *Handler) handlePersonalInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[PersonalInfoRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if _, err := h.service.SubmitPersonalInfo(ctx, appID, *req.PersonalInfo, req.BehaviorData); err != nil {
		h.fail(ctx, w, "failed to submit personal info", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Personal info received",
		"applicationId": appID,
	})
}

func (h *Handler) handleDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	upload, err := readUpload(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid document upload",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	doc, err := h.service.SubmitDocument(ctx, appID, upload)
	if err != nil {
		h.fail(ctx, w, "failed to submit document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"documentId": doc.ID,
		"verdict":    doc.Verdict,
	})
}

func (h *Handler) handleBiometric(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[BiometricRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.SubmitBiometric(ctx, appID, req.Submission())
	if err != nil {
		h.fail(ctx, w, "failed to submit biometric", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  app.Status,
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}
	status, err := h.service.GetStatus(ctx, appID)
	if err != nil {
		h.fail(ctx, w, "failed to get status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"status": status})
}

// handleResult returns the verdict, or {"status":"pending"} before a decision.
func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}
	result, err := h.service.GetResult(ctx, appID)
	if err != nil {
		h.fail(ctx, w, "failed to get result", err)
		return
	}
	if result == nil {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"status": models.StatusPending})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.service.List(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list applications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}
	app, err := h.service.Get(ctx, appID)
	if err != nil {
		h.fail(ctx, w, "failed to get application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, appID); err != nil {
		h.fail(ctx, w, "failed to delete application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) applicationID(w http.ResponseWriter, r *http.Request) (id.ApplicationID, bool) {
	appID, err := id.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid application id"))
		return id.ApplicationID{}, false
	}
	return appID, true
}

// fail logs at warn for client errors and at error for everything else.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	requestID := middleware.GetRequestID(ctx)
	if de, ok := dErrors.As(err); ok && de.Code != dErrors.CodeInternal {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestID,
			"error", err,
		)
	} else {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestID,
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

// readUpload reads the "document" multipart file and the optional
// docIssueDate field.
func readUpload(w http.ResponseWriter, r *http.Request) (document.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return document.Upload{}, dErrors.New(dErrors.CodeBadRequest, "expected multipart form data")
	}
	file, header, err := r.FormFile("document")
	if errors.Is(err, http.ErrMissingFile) {
		return document.Upload{}, dErrors.New(dErrors.CodeBadRequest, "No file uploaded")
	}
	if err != nil {
		return document.Upload{}, dErrors.New(dErrors.CodeBadRequest, "invalid document upload")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return document.Upload{}, dErrors.New(dErrors.CodeBadRequest, "failed to read document")
	}
	return document.Upload{
		Content:   content,
		FileName:  header.Filename,
		IssueDate: r.FormValue("docIssueDate"),
	}, nil
}
