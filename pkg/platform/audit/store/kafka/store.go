// Package kafka publishes audit events to a Kafka topic and keeps a local
// materialized copy for queries.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	id "verity/pkg/domain"
	audit "verity/pkg/platform/audit"
)

// Producer is the subset of the Kafka producer the store needs.
type Producer interface {
	Produce(ctx context.Context, key, value []byte) error
}

// Store writes each event to Kafka, keyed by application id so events of one
// application stay ordered, then appends it to the local view.
type Store struct {
	producer Producer
	view     audit.Store
}

// New creates a Kafka-backed audit store. view serves ListByApplication.
func New(producer Producer, view audit.Store) *Store {
	return &Store{producer: producer, view: view}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if err := s.producer.Produce(ctx, []byte(event.ApplicationID.String()), payload); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return s.view.Append(ctx, event)
}

func (s *Store) ListByApplication(ctx context.Context, appID id.ApplicationID) ([]audit.Event, error) {
	return s.view.ListByApplication(ctx, appID)
}
