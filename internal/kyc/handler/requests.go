package handler

import (
	"encoding/base64"
	"strings"

	"verity/internal/kyc/models"
	"verity/internal/trust"
	dErrors "verity/pkg/domain-errors"
)

// maxFrames bounds the liveness frames accepted in one submission.
const maxFrames = 60

// PersonalInfoRequest is the body of POST /api/kyc/{id}/personal-info.
type PersonalInfoRequest struct {
	PersonalInfo *models.PersonalInfo `json:"personalInfo"`
	BehaviorData *trust.Behavior      `json:"behaviorData"`
}

// Validate trims the identity fields and requires name, dob and email.
func (r *PersonalInfoRequest) Validate() error {
	if r.PersonalInfo == nil {
		return dErrors.New(dErrors.CodeValidation, "personalInfo is required")
	}
	p := r.PersonalInfo
	p.Name = strings.TrimSpace(p.Name)
	p.DOB = strings.TrimSpace(p.DOB)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.DeviceID = strings.TrimSpace(p.DeviceID)
	p.IP = strings.TrimSpace(p.IP)
	p.UserID = strings.TrimSpace(p.UserID)

	var missing []string
	if p.Name == "" {
		missing = append(missing, "name")
	}
	if p.DOB == "" {
		missing = append(missing, "dob")
	}
	if p.Email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return dErrors.WithDetails(dErrors.CodeValidation, "missing required fields",
			map[string]any{"missingFields": missing})
	}
	if p.FormTime != nil && *p.FormTime < 0 {
		return dErrors.New(dErrors.CodeValidation, "formTime must not be negative")
	}
	return nil
}

// LivenessResult mirrors the verdict a browser-side liveness widget reports.
type LivenessResult struct {
	VisualAge *float64 `json:"visualAge,omitempty"`
	StartAge  *float64 `json:"startAge,omitempty"`
	EndAge    *float64 `json:"endAge,omitempty"`
	Verified  *bool    `json:"verified,omitempty"`
}

// BiometricRequest is the body of POST /api/kyc/{id}/biometric. Images are
// base64, optionally as data URLs. Top-level fields win over livenessResult.
type BiometricRequest struct {
	FaceImage        string          `json:"faceImage,omitempty"`
	Frames           []string        `json:"frames,omitempty"`
	VisualAge        *float64        `json:"visualAge,omitempty"`
	StartAge         *float64        `json:"startAge,omitempty"`
	EndAge           *float64        `json:"endAge,omitempty"`
	LivenessVerified *bool           `json:"livenessVerified,omitempty"`
	LivenessResult   *LivenessResult `json:"livenessResult,omitempty"`

	submission models.BiometricSubmission
}

// Validate decodes the images and checks the age fields.
func (r *BiometricRequest) Validate() error {
	sub := models.BiometricSubmission{
		VisualAge:        r.VisualAge,
		StartAge:         r.StartAge,
		EndAge:           r.EndAge,
		LivenessVerified: r.LivenessVerified,
	}
	if lr := r.LivenessResult; lr != nil {
		if sub.VisualAge == nil {
			sub.VisualAge = lr.VisualAge
		}
		if sub.StartAge == nil && sub.EndAge == nil {
			sub.StartAge, sub.EndAge = lr.StartAge, lr.EndAge
		}
		if sub.LivenessVerified == nil {
			sub.LivenessVerified = lr.Verified
		}
	}

	if sub.VisualAge != nil && (*sub.VisualAge < 0 || *sub.VisualAge > 150) {
		return dErrors.New(dErrors.CodeValidation, "visualAge must be between 0 and 150")
	}
	if (sub.StartAge == nil) != (sub.EndAge == nil) {
		return dErrors.New(dErrors.CodeValidation, "startAge and endAge must be sent together")
	}
	if sub.StartAge != nil && (*sub.StartAge < 0 || *sub.EndAge < *sub.StartAge) {
		return dErrors.New(dErrors.CodeValidation, "age range is invalid")
	}

	if r.FaceImage != "" {
		image, err := decodeImage(r.FaceImage)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "faceImage is not valid base64")
		}
		sub.FaceImage = image
	}
	if len(r.Frames) > maxFrames {
		return dErrors.New(dErrors.CodeValidation, "too many liveness frames")
	}
	for _, f := range r.Frames {
		frame, err := decodeImage(f)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "frames must be valid base64")
		}
		sub.Frames = append(sub.Frames, frame)
	}

	r.submission = sub
	return nil
}

// Submission returns the decoded submission; valid after Validate.
func (r *BiometricRequest) Submission() models.BiometricSubmission {
	return r.submission
}

// decodeImage accepts raw base64 or a data URL.
func decodeImage(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if _, payload, ok := strings.Cut(s, ","); ok {
			s = payload
		}
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}
