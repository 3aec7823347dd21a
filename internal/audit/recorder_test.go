package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verity/internal/detection"
	"verity/internal/evidence"
	"verity/internal/kyc/models"
	"verity/internal/trust"
	id "verity/pkg/domain"
	audit "verity/pkg/platform/audit"
	"verity/pkg/platform/clientinfo"
	"verity/pkg/requestcontext"
)

type captureEmitter struct {
	events []audit.Event
	err    error
}

func (c *captureEmitter) Emit(_ context.Context, event audit.Event) error {
	c.events = append(c.events, event)
	return c.err
}

func newApp() *models.Application {
	app := models.NewApplication(id.NewApplicationID(), time.Now(), clientinfo.Info{})
	app.PersonalInfo = &models.PersonalInfo{Name: "Ada", Email: " Ada@Example.com "}
	return app
}

func TestRecorder_SubjectHash(t *testing.T) {
	r := NewRecorder(nil, "key-one", nil)

	h1 := r.SubjectHash("ada@example.com")
	assert.Len(t, h1, 64)
	assert.Equal(t, h1, r.SubjectHash("  ADA@example.com "), "normalized before hashing")
	assert.NotEqual(t, h1, NewRecorder(nil, "key-two", nil).SubjectHash("ada@example.com"), "keyed")
	assert.Empty(t, r.SubjectHash(""))
}

func TestRecorder_Decision(t *testing.T) {
	emitter := &captureEmitter{}
	r := NewRecorder(emitter, "key", nil)
	app := newApp()
	app.Status = models.StatusRejected
	app.Result = &trust.Result{
		CompositeScore: 82,
		Details: []detection.Reason{
			{Rule: detection.RuleClusterEmail},
			{Rule: detection.RuleNetworkConflict},
		},
	}

	ctx := requestcontext.WithRequestID(context.Background(), "req-1")
	r.Decision(ctx, app)

	require.Len(t, emitter.events, 1)
	event := emitter.events[0]
	assert.Equal(t, string(audit.EventDecisionMade), event.Action)
	assert.Equal(t, "rejected", event.Decision)
	assert.Equal(t, 82, event.CompositeScore)
	assert.Equal(t, "Identity Clustering - Email; Network Fingerprint Conflict", event.Reason)
	assert.Equal(t, "req-1", event.RequestID)
	assert.Equal(t, r.SubjectHash("ada@example.com"), event.SubjectHash)
	assert.NotContains(t, event.SubjectHash, "ada")
}

func TestRecorder_DocumentReceived(t *testing.T) {
	emitter := &captureEmitter{}
	r := NewRecorder(emitter, "key", nil)
	app := newApp()

	r.DocumentReceived(context.Background(), app, models.Document{Verdict: evidence.DocumentVerdict{Available: false}})
	r.DocumentReceived(context.Background(), app, models.Document{Verdict: evidence.DocumentVerdict{Available: true, IsAuthentic: true}})

	require.Len(t, emitter.events, 2)
	assert.Equal(t, "document service unavailable", emitter.events[0].Reason)
	assert.Equal(t, "document authentic", emitter.events[1].Reason)
}

func TestRecorder_EmitFailureIsSwallowed(t *testing.T) {
	emitter := &captureEmitter{err: errors.New("buffer full")}
	r := NewRecorder(emitter, "key", slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.NotPanics(t, func() {
		r.Started(context.Background(), newApp())
		r.Deleted(context.Background(), id.NewApplicationID())
	})
	assert.Len(t, emitter.events, 2)
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() { r.Deleted(context.Background(), id.NewApplicationID()) })
}
