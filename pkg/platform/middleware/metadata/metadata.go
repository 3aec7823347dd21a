// Package metadata captures client network metadata (IP, User-Agent, device id)
// into the request context for handlers and services.
package metadata

import (
	"net"
	"net/http"
	"strings"

	"verity/pkg/requestcontext"
)

// DeviceIDHeader lets browser clients report a stable device identifier.
const DeviceIDHeader = "X-Device-ID"

// ClientMetadata extracts client IP address, User-Agent and device id from the
// request and adds them to the context. Apply it early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), r.Header.Get("User-Agent"))
		if deviceID := strings.TrimSpace(r.Header.Get(DeviceIDHeader)); deviceID != "" {
			ctx = requestcontext.WithDeviceID(ctx, deviceID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest extracts the real client IP, honouring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For is "client, proxy1, proxy2"; the first entry is the client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if addr := r.RemoteAddr; addr != "" {
		if host, _, err := net.SplitHostPort(addr); err == nil {
			return host
		}
		return addr
	}

	return "unknown"
}
