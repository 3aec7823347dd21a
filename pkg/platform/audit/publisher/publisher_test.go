package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "verity/pkg/domain"
	audit "verity/pkg/platform/audit"
	"verity/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	appID := id.NewApplicationID()
	err := pub.Emit(context.Background(), audit.Event{
		ApplicationID: appID,
		Action:        string(audit.EventDecisionMade),
		Decision:      "approved",
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), appID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventDecisionMade), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category, "category derived from action")
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	appID := id.NewApplicationID()
	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			ApplicationID: appID,
			Action:        string(audit.EventPersonalInfoReceived),
		}))
	}

	require.NoError(t, pub.Close())

	events, err := store.ListByApplication(context.Background(), appID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFullDoesNotPanic(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{
				ApplicationID: id.NewApplicationID(),
				Action:        string(audit.EventApplicationStarted),
			})
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_CancelledContextInAsyncMode(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pub.Emit(ctx, audit.Event{ApplicationID: id.NewApplicationID(), Action: "x"})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPublisher_Timestamps(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("sets missing timestamp", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		pub := NewPublisher(store, WithClock(func() time.Time { return fixed }))
		appID := id.NewApplicationID()

		require.NoError(t, pub.Emit(context.Background(), audit.Event{ApplicationID: appID, Action: "x"}))

		events, _ := pub.List(context.Background(), appID)
		require.Len(t, events, 1)
		assert.Equal(t, fixed, events[0].Timestamp)
	})

	t.Run("preserves existing timestamp", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		pub := NewPublisher(store)
		appID := id.NewApplicationID()
		custom := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

		require.NoError(t, pub.Emit(context.Background(), audit.Event{ApplicationID: appID, Action: "x", Timestamp: custom}))

		events, _ := pub.List(context.Background(), appID)
		require.Len(t, events, 1)
		assert.Equal(t, custom, events[0].Timestamp)
	})
}

func TestPublisher_SeparatesApplications(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	app1, app2 := id.NewApplicationID(), id.NewApplicationID()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{ApplicationID: app1, Action: string(audit.EventApplicationStarted)}))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{ApplicationID: app1, Action: string(audit.EventDecisionMade)}))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{ApplicationID: app2, Action: string(audit.EventApplicationDeleted)}))

	events1, err := pub.List(context.Background(), app1)
	require.NoError(t, err)
	require.Len(t, events1, 2)
	assert.Equal(t, string(audit.EventApplicationStarted), events1[0].Action)

	recent, err := store.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, string(audit.EventApplicationDeleted), recent[0].Action)
}
