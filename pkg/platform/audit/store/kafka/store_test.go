package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "verity/pkg/domain"
	audit "verity/pkg/platform/audit"
	"verity/pkg/platform/audit/store/memory"
)

type recordingProducer struct {
	keys   [][]byte
	values [][]byte
	err    error
}

func (p *recordingProducer) Produce(_ context.Context, key, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
	return nil
}

func TestStore_Append(t *testing.T) {
	producer := &recordingProducer{}
	view := memory.NewInMemoryStore()
	store := New(producer, view)
	appID := id.NewApplicationID()

	err := store.Append(context.Background(), audit.Event{
		ApplicationID:  appID,
		Action:         string(audit.EventDecisionMade),
		Decision:       "review",
		CompositeScore: 55,
	})
	require.NoError(t, err)

	require.Len(t, producer.keys, 1)
	assert.Equal(t, appID.String(), string(producer.keys[0]))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(producer.values[0], &decoded))
	assert.Equal(t, "review", decoded["decision"])
	assert.Equal(t, 55.0, decoded["compositeScore"])

	events, err := store.ListByApplication(context.Background(), appID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestStore_AppendProducerFailureSkipsView(t *testing.T) {
	producer := &recordingProducer{err: errors.New("broker down")}
	view := memory.NewInMemoryStore()
	store := New(producer, view)
	appID := id.NewApplicationID()

	err := store.Append(context.Background(), audit.Event{ApplicationID: appID, Action: "x"})
	require.Error(t, err)

	events, err := view.ListByApplication(context.Background(), appID)
	require.NoError(t, err)
	assert.Empty(t, events)
}
