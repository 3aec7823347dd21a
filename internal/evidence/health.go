package evidence

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Prober is a collaborator that can report its reachability.
type Prober interface {
	Name() string
	Endpoint() string
	Enabled() bool
	CircuitState() string
	Probe(ctx context.Context) error
}

// CheckAll probes every collaborator in parallel, each bounded by timeout.
// Results keep the order of probers.
func CheckAll(ctx context.Context, timeout time.Duration, now func() time.Time, probers ...Prober) []ServiceHealth {
	results := make([]ServiceHealth, len(probers))
	var g errgroup.Group
	for i, p := range probers {
		g.Go(func() error {
			results[i] = check(ctx, timeout, now, p)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func check(ctx context.Context, timeout time.Duration, now func() time.Time, p Prober) ServiceHealth {
	h := ServiceHealth{
		Name:      p.Name(),
		URL:       p.Endpoint(),
		Circuit:   p.CircuitState(),
		CheckedAt: now(),
	}
	if !p.Enabled() {
		h.Status = StatusDisabled
		return h
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := p.Probe(probeCtx)
	h.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		h.Status = StatusOffline
		h.Error = err.Error()
		return h
	}
	h.Status = StatusOnline
	return h
}
