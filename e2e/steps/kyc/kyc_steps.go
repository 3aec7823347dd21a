package kyc

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string, headers map[string]string) error
	DELETE(path string) error
	GetResponseField(field string) (any, error)
	GetApplicationID() string
	SetApplicationID(appID string)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers KYC lifecycle step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &kycSteps{tc: tc}

	ctx.Step(`^I start a KYC application$`, steps.startApplication)
	ctx.Step(`^I submit personal info for a new applicant aged (\d+)$`, steps.submitFreshApplicant)
	ctx.Step(`^I submit personal info for a new applicant aged (\d+) on the previous applicant's device$`, steps.submitOnPreviousDevice)
	ctx.Step(`^I submit a biometric result with visual age (\d+)$`, steps.submitBiometric)
	ctx.Step(`^I submit a biometric result for an unknown application$`, steps.submitBiometricUnknown)
	ctx.Step(`^the application status should be "([^"]*)"$`, steps.statusShouldBe)
	ctx.Step(`^I fetch the application result$`, steps.fetchResult)
	ctx.Step(`^I delete the application$`, steps.deleteApplication)
}

type kycSteps struct {
	tc         TestContext
	lastDevice string
}

func (s *kycSteps) startApplication(ctx context.Context) error {
	if err := s.tc.POST("/api/kyc/start", map[string]any{}); err != nil {
		return err
	}
	if err := s.expectStatus(200); err != nil {
		return err
	}
	appID, err := s.tc.GetResponseField("applicationId")
	if err != nil {
		return err
	}
	s.tc.SetApplicationID(fmt.Sprint(appID))
	return nil
}

func (s *kycSteps) submitFreshApplicant(ctx context.Context, age int) error {
	return s.submitPersonalInfo(dobForAge(age), "")
}

func (s *kycSteps) submitOnPreviousDevice(ctx context.Context, age int) error {
	if s.lastDevice == "" {
		return fmt.Errorf("no previous applicant in this scenario")
	}
	return s.submitPersonalInfo(dobForAge(age), s.lastDevice)
}

// dobForAge returns January 1st of the birth year, so the exact age and the
// calendar-year age agree.
func dobForAge(age int) string {
	return fmt.Sprintf("%04d-01-01", time.Now().UTC().Year()-age)
}

// submitPersonalInfo uses identifiers unique to this run so applications
// left by earlier runs never cluster with the new one.
func (s *kycSteps) submitPersonalInfo(dob, deviceID string) error {
	suffix := strconv.FormatInt(time.Now().UnixNano(), 36)
	if deviceID == "" {
		deviceID = "e2e-device-" + suffix
	}
	s.lastDevice = deviceID

	formTime := 30000
	body := map[string]any{
		"personalInfo": map[string]any{
			"name":     "E2E Applicant " + suffix,
			"dob":      dob,
			"email":    "e2e-" + suffix + "@example.com",
			"phone":    "+1555" + suffix,
			"deviceId": deviceID,
			"formTime": formTime,
		},
	}
	if err := s.tc.POST("/api/kyc/"+s.tc.GetApplicationID()+"/personal-info", body); err != nil {
		return err
	}
	return s.expectStatus(200)
}

func (s *kycSteps) submitBiometric(ctx context.Context, visualAge int) error {
	body := map[string]any{
		"livenessResult": map[string]any{
			"visualAge": visualAge,
			"verified":  true,
		},
	}
	return s.tc.POST("/api/kyc/"+s.tc.GetApplicationID()+"/biometric", body)
}

func (s *kycSteps) submitBiometricUnknown(ctx context.Context) error {
	return s.tc.POST("/api/kyc/00000000-0000-4000-8000-000000000000/biometric", map[string]any{"visualAge": 30})
}

func (s *kycSteps) statusShouldBe(ctx context.Context, expected string) error {
	if err := s.tc.GET("/api/kyc/"+s.tc.GetApplicationID()+"/status", nil); err != nil {
		return err
	}
	if err := s.expectStatus(200); err != nil {
		return err
	}
	status, err := s.tc.GetResponseField("status")
	if err != nil {
		return err
	}
	if status != expected {
		return fmt.Errorf("expected application status %q, got %v", expected, status)
	}
	return nil
}

func (s *kycSteps) fetchResult(ctx context.Context) error {
	return s.tc.GET("/api/kyc/"+s.tc.GetApplicationID()+"/result", nil)
}

func (s *kycSteps) deleteApplication(ctx context.Context) error {
	return s.tc.DELETE("/api/kyc/" + s.tc.GetApplicationID())
}

func (s *kycSteps) expectStatus(expected int) error {
	if got := s.tc.GetLastResponseStatus(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, s.tc.GetLastResponseBody())
	}
	return nil
}
