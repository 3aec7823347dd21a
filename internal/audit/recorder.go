// Package audit records the KYC decision trail. Applicant PII never leaves
// this package raw: the email is replaced by a keyed blake2b hash.
package audit

import (
	"context"
	"encoding/hex"
	"log/slog"
	"strings"

	"golang.org/x/crypto/blake2b"

	"verity/internal/kyc/models"
	id "verity/pkg/domain"
	audit "verity/pkg/platform/audit"
	"verity/pkg/requestcontext"
)

// Emitter accepts audit events.
type Emitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Recorder turns lifecycle milestones into audit events.
type Recorder struct {
	emitter Emitter
	key     []byte
	logger  *slog.Logger
}

// NewRecorder creates a recorder. hashKey keys the subject hash; blake2b
// accepts keys up to 64 bytes, longer keys are truncated.
func NewRecorder(emitter Emitter, hashKey string, logger *slog.Logger) *Recorder {
	key := []byte(hashKey)
	if len(key) > blake2b.Size {
		key = key[:blake2b.Size]
	}
	return &Recorder{emitter: emitter, key: key, logger: logger}
}

// SubjectHash returns the keyed hash of a normalized email, or "" for an empty one.
func (r *Recorder) SubjectHash(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return ""
	}
	h, err := blake2b.New256(r.key)
	if err != nil {
		// only reachable with a key over 64 bytes, which NewRecorder prevents
		return ""
	}
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))
}

func (r *Recorder) Started(ctx context.Context, app *models.Application) {
	r.emit(ctx, r.base(ctx, app, audit.EventApplicationStarted))
}

func (r *Recorder) PersonalInfoReceived(ctx context.Context, app *models.Application) {
	r.emit(ctx, r.base(ctx, app, audit.EventPersonalInfoReceived))
}

func (r *Recorder) DocumentReceived(ctx context.Context, app *models.Application, doc models.Document) {
	event := r.base(ctx, app, audit.EventDocumentReceived)
	if doc.Verdict.Available {
		if doc.Verdict.IsAuthentic {
			event.Reason = "document authentic"
		} else {
			event.Reason = "document flagged"
		}
	} else {
		event.Reason = "document service unavailable"
	}
	r.emit(ctx, event)
}

// Decision records the verdict with the triggered rule names as the reason.
func (r *Recorder) Decision(ctx context.Context, app *models.Application) {
	event := r.base(ctx, app, audit.EventDecisionMade)
	event.Decision = string(app.Status)
	if app.Result != nil {
		event.CompositeScore = app.Result.CompositeScore
		rules := make([]string, 0, len(app.Result.Details))
		for _, reason := range app.Result.Details {
			rules = append(rules, reason.Rule)
		}
		event.Reason = strings.Join(rules, "; ")
	}
	r.emit(ctx, event)
}

func (r *Recorder) Deleted(ctx context.Context, appID id.ApplicationID) {
	r.emit(ctx, audit.Event{
		Timestamp:     requestcontext.Now(ctx),
		ApplicationID: appID,
		Action:        string(audit.EventApplicationDeleted),
		RequestID:     requestcontext.RequestID(ctx),
		ActorID:       requestcontext.Subject(ctx),
	})
}

func (r *Recorder) base(ctx context.Context, app *models.Application, action audit.AuditEvent) audit.Event {
	event := audit.Event{
		Timestamp:     requestcontext.Now(ctx),
		ApplicationID: app.ID,
		Action:        string(action),
		RequestID:     requestcontext.RequestID(ctx),
		ActorID:       requestcontext.Subject(ctx),
	}
	if app.PersonalInfo != nil {
		event.SubjectHash = r.SubjectHash(app.PersonalInfo.Email)
	}
	return event
}

// emit never fails the caller; a lost audit event is logged.
func (r *Recorder) emit(ctx context.Context, event audit.Event) {
	if r == nil || r.emitter == nil {
		return
	}
	if err := r.emitter.Emit(ctx, event); err != nil && r.logger != nil {
		r.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"application_id", event.ApplicationID.String(),
			"request_id", event.RequestID,
			"error", err,
		)
	}
}
