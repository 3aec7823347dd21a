package models

import (
	"strings"
	"time"
)

// EndpointClass categorizes endpoints for differentiated rate limiting.
type EndpointClass string

const (
	// ClassWrite: KYC lifecycle submissions - start, personal info, document, biometric, delete
	ClassWrite EndpointClass = "write"
	// ClassRead: status, result, listings and dashboards
	ClassRead EndpointClass = "read"
	// ClassAnalysis: stateless scoring - /api/analyze, /api/unified
	ClassAnalysis EndpointClass = "analysis"
)

// IsValid checks if the endpoint class is one of the supported enum values.
func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassWrite, ClassRead, ClassAnalysis:
		return true
	}
	return false
}

// Limit is the number of requests allowed per sliding window.
type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
}

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// RateLimitExceededResponse is the API response when rate limit is exceeded.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"` // seconds
}

// SanitizeKeySegment escapes the key delimiter so a client-controlled value
// such as "1.2.3.4:write" cannot address another bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// NewIPRateLimitKey returns the bucket key for one client address and class.
func NewIPRateLimitKey(ip string, class EndpointClass) string {
	return "ip:" + SanitizeKeySegment(ip) + ":" + string(class)
}
