package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
}

// RegisterSteps registers stateless analysis step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &analysisSteps{tc: tc}

	ctx.Step(`^I analyze a batch of (\d+) applicants where (\d+) share an email address$`, steps.analyzeBatch)
	ctx.Step(`^I analyze a batch with no records$`, steps.analyzeEmpty)
	ctx.Step(`^I request a unified score with form time (\d+) and visual age (\d+)$`, steps.unified)
}

type analysisSteps struct {
	tc TestContext
}

// applicantAge is the age of every generated applicant; dobs fall on January
// 1st so the stated and the calendar-year age agree.
const applicantAge = 30

func dob() string {
	return fmt.Sprintf("%04d-01-01", time.Now().UTC().Year()-applicantAge)
}

func record(i int, email string) map[string]any {
	return map[string]any{
		"name":     fmt.Sprintf("Applicant %d", i),
		"dob":      dob(),
		"email":    email,
		"phone":    fmt.Sprintf("+1555000%03d", i),
		"faceAge":  applicantAge,
		"deviceId": fmt.Sprintf("batch-device-%d", i),
		"ip":       fmt.Sprintf("198.51.100.%d", i+1),
		"formTime": 30000,
		"userId":   fmt.Sprintf("batch-user-%d", i),
	}
}

func (s *analysisSteps) analyzeBatch(ctx context.Context, total, sharing int) error {
	if sharing > total {
		return fmt.Errorf("cannot share among %d of %d applicants", sharing, total)
	}
	records := make([]map[string]any, total)
	for i := range total {
		email := fmt.Sprintf("batch-%d@example.com", i)
		if i < sharing {
			email = "shared@example.com"
		}
		records[i] = record(i, email)
	}
	return s.tc.POST("/api/analyze", map[string]any{"records": records})
}

func (s *analysisSteps) analyzeEmpty(ctx context.Context) error {
	return s.tc.POST("/api/analyze", map[string]any{"records": []any{}})
}

func (s *analysisSteps) unified(ctx context.Context, formTime, visualAge int) error {
	body := map[string]any{
		"record": map[string]any{
			"name":     "Unified Applicant",
			"dob":      dob(),
			"email":    "unified-e2e@example.com",
			"faceAge":  applicantAge,
			"deviceId": "unified-e2e-device",
			"formTime": formTime,
		},
		"biometric": map[string]any{"visualAge": visualAge, "livenessVerified": true},
	}
	return s.tc.POST("/api/unified", body)
}
