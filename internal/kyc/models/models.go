package models

import (
	"sort"
	"strings"
	"time"

	"verity/internal/detection"
	"verity/internal/evidence"
	"verity/internal/trust"
	id "verity/pkg/domain"
	"verity/pkg/platform/clientinfo"
)

// Status is the lifecycle state of an application.
type Status string

const (
	StatusPending        Status = "pending"
	StatusProcessingInfo Status = "processing_info"
	StatusApproved       Status = "approved"
	StatusReview         Status = "review"
	StatusRejected       Status = "rejected"
)

// Decision thresholds on the composite score.
const (
	RejectAbove = 70
	ReviewAbove = 40
)

// DefaultVisualAge is used when no estimate could be obtained.
const DefaultVisualAge = 25

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessingInfo, StatusApproved, StatusReview, StatusRejected:
		return true
	}
	return false
}

// IsDecided reports whether s is a terminal decision.
func (s Status) IsDecided() bool {
	return s == StatusApproved || s == StatusReview || s == StatusRejected
}

// CanTransitionTo enforces pending -> processing_info -> decision.
// There are no backward transitions; restarting means a new application.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessingInfo
	case StatusProcessingInfo:
		return next.IsDecided()
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// DecideStatus maps an aggregated verdict to the final status.
func DecideStatus(result trust.Result) Status {
	switch {
	case result.Breakdown.IsSynthetic || result.CompositeScore > RejectAbove:
		return StatusRejected
	case result.CompositeScore > ReviewAbove:
		return StatusReview
	default:
		return StatusApproved
	}
}

// PersonalInfo is the identity data entered by the applicant.
type PersonalInfo struct {
	Name     string   `json:"name"`
	DOB      string   `json:"dob"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone,omitempty"`
	DeviceID string   `json:"deviceId,omitempty"`
	IP       string   `json:"ip,omitempty"`
	UserID   string   `json:"userId,omitempty"`
	FormTime *float64 `json:"formTime,omitempty"`
}

// Document is an uploaded identity document and its forgery verdict.
type Document struct {
	ID         id.DocumentID            `json:"id"`
	FileName   string                   `json:"fileName"`
	Size       int                      `json:"size"`
	IssueDate  string                   `json:"issueDate,omitempty"`
	UploadedAt time.Time                `json:"uploadedAt"`
	Verdict    evidence.DocumentVerdict `json:"verdict"`
}

// Where the visual age came from.
const (
	AgeSourceExplicit  = "explicit"
	AgeSourceRange     = "range"
	AgeSourceEstimator = "estimator"
	AgeSourceFallback  = "fallback"
)

// Where the liveness verdict came from.
const (
	LivenessSourceExplicit     = "explicit"
	LivenessSourceCollaborator = "collaborator"
	LivenessSourceNone         = "none"
)

// Biometric holds the resolved camera evidence for an application.
type Biometric struct {
	VisualAge      float64                 `json:"visualAge"`
	AgeSource      string                  `json:"ageSource"`
	AgeEstimate    *evidence.AgeEstimate   `json:"ageEstimate,omitempty"`
	Liveness       evidence.LivenessResult `json:"liveness"`
	LivenessSource string                  `json:"livenessSource"`
	SubmittedAt    time.Time               `json:"submittedAt"`
}

// Application is one KYC onboarding attempt.
type Application struct {
	ID           id.ApplicationID `json:"id"`
	Status       Status           `json:"status"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	PersonalInfo *PersonalInfo    `json:"personalInfo"`
	Behavior     *trust.Behavior  `json:"behaviorData"`
	Documents    []Document       `json:"documents"`
	Biometric    *Biometric       `json:"biometric"`
	Result       *trust.Result    `json:"result"`
	DecidedAt    *time.Time       `json:"decidedAt,omitempty"`
	Client       clientinfo.Info  `json:"client"`
}

// NewApplication creates a pending application.
func NewApplication(appID id.ApplicationID, now time.Time, client clientinfo.Info) *Application {
	return &Application{
		ID:        appID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Documents: []Document{},
		Client:    client,
	}
}

// Name returns the applicant name or "" when personal info is missing.
func (a *Application) Name() string {
	if a.PersonalInfo == nil {
		return ""
	}
	return strings.TrimSpace(a.PersonalInfo.Name)
}

// RiskScore is the composite score, or 0 before a decision.
func (a *Application) RiskScore() int {
	if a.Result == nil {
		return 0
	}
	return a.Result.CompositeScore
}

// Record converts personal info into a detection record. The application
// id is the correlation key when no userId was supplied.
func (a *Application) Record() (detection.Record, bool) {
	if a.PersonalInfo == nil {
		return detection.Record{}, false
	}
	p := a.PersonalInfo
	record := detection.Record{
		Name:     p.Name,
		DOB:      p.DOB,
		Email:    p.Email,
		Phone:    p.Phone,
		DeviceID: p.DeviceID,
		IP:       p.IP,
		UserID:   p.UserID,
	}
	if record.UserID == "" {
		record.UserID = a.ID.String()
	}
	if p.FormTime != nil {
		record.FormTime = *p.FormTime
	}
	return record, true
}

// Clone returns a copy that shares no mutable state with a.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	c := *a
	if a.PersonalInfo != nil {
		p := *a.PersonalInfo
		if a.PersonalInfo.FormTime != nil {
			ft := *a.PersonalInfo.FormTime
			p.FormTime = &ft
		}
		c.PersonalInfo = &p
	}
	if a.Behavior != nil {
		b := *a.Behavior
		b.Events = append(b.Events[:0:0], a.Behavior.Events...)
		c.Behavior = &b
	}
	c.Documents = append([]Document{}, a.Documents...)
	if a.Biometric != nil {
		bio := *a.Biometric
		c.Biometric = &bio
	}
	if a.Result != nil {
		r := *a.Result
		c.Result = &r
	}
	if a.DecidedAt != nil {
		t := *a.DecidedAt
		c.DecidedAt = &t
	}
	return &c
}

// Summary is the list view of an application.
type Summary struct {
	ID        id.ApplicationID `json:"id"`
	Name      string           `json:"name"`
	Status    Status           `json:"status"`
	Date      time.Time        `json:"date"`
	RiskScore int              `json:"riskScore"`
}

// Summarize builds the list view; a missing name reads "Unknown".
func (a *Application) Summarize() Summary {
	name := a.Name()
	if name == "" {
		name = "Unknown"
	}
	return Summary{
		ID:        a.ID,
		Name:      name,
		Status:    a.Status,
		Date:      a.CreatedAt,
		RiskScore: a.RiskScore(),
	}
}

// SortNewestFirst orders by creation time descending, then by id so equal
// timestamps list deterministically.
func SortNewestFirst(apps []*Application) {
	sort.SliceStable(apps, func(i, j int) bool {
		if !apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].CreatedAt.After(apps[j].CreatedAt)
		}
		return apps[i].ID.String() < apps[j].ID.String()
	})
}

// BiometricSubmission is the camera evidence sent by the client. Any field
// may be absent; the lifecycle resolves what is missing from collaborators.
type BiometricSubmission struct {
	VisualAge        *float64
	StartAge         *float64
	EndAge           *float64
	FaceImage        []byte
	Frames           [][]byte
	LivenessVerified *bool
}
