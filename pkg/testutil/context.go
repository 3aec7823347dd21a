package testutil

import (
	"net/http"
	"time"

	"verity/pkg/requestcontext"
)

// WithRequestTime pins the request's "now", as the RequestTime middleware
// would with a fixed clock.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// FixedTime is middleware that pins every request's "now" to t.
func FixedTime(t time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, WithRequestTime(r, t))
		})
	}
}
