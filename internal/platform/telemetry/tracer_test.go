package telemetry

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"verity/internal/platform/config"
)

func TestInitTracer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("disabled is a no-op", func(t *testing.T) {
		shutdown, err := InitTracer(config.TelemetryConfig{}, io.Discard, logger)
		require.NoError(t, err)
		require.NoError(t, shutdown(context.Background()))
	})

	t.Run("enabled exports spans on shutdown", func(t *testing.T) {
		previous := otel.GetTracerProvider()
		t.Cleanup(func() { otel.SetTracerProvider(previous) })

		var buf bytes.Buffer
		shutdown, err := InitTracer(config.TelemetryConfig{Tracing: true, ServiceName: "verity-test"}, &buf, logger)
		require.NoError(t, err)

		_, span := otel.Tracer("test").Start(context.Background(), "score-application")
		span.End()

		require.NoError(t, shutdown(context.Background()))
		assert.Contains(t, buf.String(), "score-application")
	})
}
