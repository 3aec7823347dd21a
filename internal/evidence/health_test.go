package evidence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubProber struct {
	name    string
	enabled bool
	err     error
	delay   time.Duration
}

func (s stubProber) Name() string         { return s.name }
func (s stubProber) Endpoint() string     { return "http://" + s.name }
func (s stubProber) Enabled() bool        { return s.enabled }
func (s stubProber) CircuitState() string { return "closed" }
func (s stubProber) Probe(ctx context.Context) error {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.err
}

func TestCheckAll(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	now := func() time.Time { return fixed }

	results := CheckAll(context.Background(), 50*time.Millisecond, now,
		stubProber{name: "age", enabled: true},
		stubProber{name: "document", enabled: true, err: errors.New("refused")},
		stubProber{name: "liveness", enabled: true, delay: time.Second},
		stubProber{name: "extra", enabled: false},
	)

	assert.Len(t, results, 4)
	assert.Equal(t, StatusOnline, results[0].Status)
	assert.Equal(t, StatusOffline, results[1].Status)
	assert.Equal(t, "refused", results[1].Error)
	assert.Equal(t, StatusOffline, results[2].Status, "probe bounded by timeout")
	assert.Equal(t, StatusDisabled, results[3].Status)
	assert.Equal(t, fixed, results[0].CheckedAt)
	assert.Equal(t, "liveness", results[2].Name)
}
