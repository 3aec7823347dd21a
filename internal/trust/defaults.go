package trust

import "verity/internal/detection"

const (
	// DefaultIP is used when the client did not report an address.
	DefaultIP = "127.0.0.1"
	// TelemetryFormTimeMs replaces the form timer when telemetry is present.
	TelemetryFormTimeMs = 5000
)

// WithUnifiedDefaults fills fields a browser submission does not carry.
func WithUnifiedDefaults(record detection.Record, hasBehavior bool, correlationID string) detection.Record {
	if record.IP == "" {
		record.IP = DefaultIP
	}
	if hasBehavior {
		record.FormTime = TelemetryFormTimeMs
	}
	if record.UserID == "" {
		record.UserID = correlationID
	}
	return record
}
