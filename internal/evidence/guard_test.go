package evidence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verity/pkg/platform/circuit"
)

func TestGuard_Call(t *testing.T) {
	t.Run("success passes through", func(t *testing.T) {
		g := NewGuard("age")
		require.NoError(t, g.Call(context.Background(), func(context.Context) error { return nil }))
	})

	t.Run("applies timeout to the call context", func(t *testing.T) {
		g := NewGuard("age", WithTimeout(20*time.Millisecond))
		err := g.Call(context.Background(), func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		assert.Equal(t, ErrorTimeout, GetCategory(err))
		assert.True(t, errors.Is(err, ErrUnavailable))
	})

	t.Run("opens after consecutive outages", func(t *testing.T) {
		breaker := circuit.New("age", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
		g := NewGuard("age", WithBreaker(breaker))
		failing := func(context.Context) error { return errors.New("connection refused") }

		_ = g.Call(context.Background(), failing)
		_ = g.Call(context.Background(), failing)
		assert.Equal(t, circuit.StateOpen, g.CircuitState())

		called := false
		err := g.Call(context.Background(), func(context.Context) error {
			called = true
			return nil
		})
		assert.False(t, called)
		assert.Equal(t, ErrorCircuitOpen, GetCategory(err))
	})

	t.Run("bad data does not trip the breaker", func(t *testing.T) {
		breaker := circuit.New("document", circuit.WithFailureThreshold(1))
		g := NewGuard("document", WithBreaker(breaker))
		err := g.Call(context.Background(), func(context.Context) error {
			return NewError(ErrorBadData, "document", "decode", nil)
		})
		assert.Equal(t, ErrorBadData, GetCategory(err))
		assert.Equal(t, circuit.StateClosed, g.CircuitState())
	})

	t.Run("caller cancellation is not a collaborator failure", func(t *testing.T) {
		breaker := circuit.New("age", circuit.WithFailureThreshold(1))
		g := NewGuard("age", WithBreaker(breaker))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_ = g.Call(ctx, func(ctx context.Context) error { return ctx.Err() })
		assert.Equal(t, circuit.StateClosed, g.CircuitState())
	})
}

func TestCollaboratorError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewError(ErrorOutage, "age", "call failed", cause)

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "collaborator age [outage]")
	assert.Equal(t, ErrorInternal, GetCategory(errors.New("plain")))
}
