// Package audit defines the decision audit trail: event shapes, the Store
// contract, and the categories used to route events.
package audit

import (
	"context"
	"time"

	id "verity/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers verdicts and deletions that must be retained.
	CategoryCompliance EventCategory = "compliance"
	// CategoryOperations covers routine workflow progress.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted when an application moves through the workflow. PII is
// never stored raw; SubjectHash carries a keyed hash of the applicant email.
type Event struct {
	Category       EventCategory    `json:"category"`
	Timestamp      time.Time        `json:"timestamp"`
	ApplicationID  id.ApplicationID `json:"applicationId"`
	Action         string           `json:"action"`
	Decision       string           `json:"decision,omitempty"`
	Reason         string           `json:"reason,omitempty"`
	CompositeScore int              `json:"compositeScore,omitempty"`
	SubjectHash    string           `json:"subjectHash,omitempty"`
	RequestID      string           `json:"requestId,omitempty"`
	ActorID        string           `json:"actorId,omitempty"`
}

// AuditEvent is the action name of an event.
type AuditEvent string

const (
	EventApplicationStarted   AuditEvent = "application_started"
	EventPersonalInfoReceived AuditEvent = "personal_info_received"
	EventDocumentReceived     AuditEvent = "document_received"
	EventDecisionMade         AuditEvent = "decision_made"
	EventApplicationDeleted   AuditEvent = "application_deleted"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventApplicationStarted:   CategoryOperations,
	EventPersonalInfoReceived: CategoryOperations,
	EventDocumentReceived:     CategoryOperations,
	EventDecisionMade:         CategoryCompliance,
	EventApplicationDeleted:   CategoryCompliance,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByApplication(ctx context.Context, appID id.ApplicationID) ([]Event, error)
}
