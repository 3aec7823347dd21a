package evidence

import "time"

// Collaborator names, used in logs, metrics and health reports.
const (
	CollaboratorAge      = "age"
	CollaboratorDocument = "document"
	CollaboratorLiveness = "liveness"
)

// Fallback ages used when the estimation service answers without a range.
const (
	DefaultStartAge = 25
	DefaultEndAge   = 32
)

// AgeEstimate is the age range returned by the age-estimation collaborator.
type AgeEstimate struct {
	StartAge   int `json:"startAge"`
	EndAge     int `json:"endAge"`
	AverageAge int `json:"averageAge"`
}

// DocumentVerdict is the forgery analysis of an identity document.
// Available is false when the collaborator could not be reached.
type DocumentVerdict struct {
	Available         bool     `json:"available"`
	IsAuthentic       bool     `json:"isAuthentic"`
	ForgeryScore      float64  `json:"forgeryScore"`
	Confidence        float64  `json:"confidence"`
	DocumentType      string   `json:"documentType,omitempty"`
	Flags             []string `json:"flags"`
	DocIssueDateValid *bool    `json:"docIssueDateValid,omitempty"`
}

// Liveness session states reported by the liveness collaborator.
const (
	LivenessSuccess = "SUCCESS"
	LivenessFailed  = "FAILED"
)

// LivenessResult summarizes one liveness challenge session.
type LivenessResult struct {
	Available  bool   `json:"available"`
	Verified   bool   `json:"verified"`
	State      string `json:"state,omitempty"`
	Challenge  string `json:"challenge,omitempty"`
	FramesSent int    `json:"framesSent"`
}

// ServiceHealth is the reachability of one collaborator.
type ServiceHealth struct {
	Name      string    `json:"name"`
	URL       string    `json:"url,omitempty"`
	Status    string    `json:"status"` // online, offline, disabled
	Circuit   string    `json:"circuit"`
	LatencyMs int64     `json:"latencyMs"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Health statuses.
const (
	StatusOnline   = "online"
	StatusOffline  = "offline"
	StatusDisabled = "disabled"
)
