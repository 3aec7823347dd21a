package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"verity/internal/detection"
	"verity/internal/evidence"
	"verity/pkg/testutil"
)

type AnalysisHandlerSuite struct {
	suite.Suite
	router http.Handler
}

func TestAnalysisHandlerSuite(t *testing.T) {
	suite.Run(t, new(AnalysisHandlerSuite))
}

var now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func (s *AnalysisHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(testutil.FixedTime(now))
	New(logger,
		WithReference([]detection.Record{{UserID: "ref-1", Email: "known@example.com", DeviceID: "dev-ref"}}),
		WithProbers(time.Second,
			stubProber{name: "age", enabled: true},
			stubProber{name: "liveness", enabled: true, err: errors.New("dial refused")},
			stubProber{name: "document"},
		),
	).Register(r)
	s.router = r
}

func fullRecord(userID, email, deviceID string) map[string]any {
	return map[string]any{
		"name":     "Ada Lovelace",
		"dob":      "1996-01-10",
		"email":    email,
		"phone":    "+1555" + userID,
		"faceAge":  30,
		"deviceId": deviceID,
		"ip":       "10.0.0." + userID,
		"formTime": 5000,
		"userId":   userID,
	}
}

func (s *AnalysisHandlerSuite) post(path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path, body))
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	return rr, resp
}

func (s *AnalysisHandlerSuite) TestAnalyzeValidation() {
	s.Run("no records key", func() {
		rr, resp := s.post("/api/analyze", map[string]any{})
		s.Equal(http.StatusBadRequest, rr.Code)
		s.Equal("Invalid request format. Expected { records: [...] }", resp["error_description"])
	})

	s.Run("records is not an array", func() {
		rr, _ := s.post("/api/analyze", map[string]any{"records": "nope"})
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("empty batch", func() {
		rr, resp := s.post("/api/analyze", map[string]any{"records": []any{}})
		s.Equal(http.StatusBadRequest, rr.Code)
		s.Equal("No records provided for analysis", resp["error_description"])
	})

	s.Run("single record lists missing fields", func() {
		record := fullRecord("1", "a@example.com", "d1")
		delete(record, "phone")
		delete(record, "userId")
		rr, resp := s.post("/api/analyze", map[string]any{"record": record})

		s.Equal(http.StatusBadRequest, rr.Code)
		details := resp["details"].(map[string]any)
		s.Equal([]any{"phone", "userId"}, details["missingFields"])
	})

	s.Run("batch lists invalid records by index", func() {
		bad := fullRecord("2", "b@example.com", "d2")
		delete(bad, "formTime")
		rr, resp := s.post("/api/analyze", map[string]any{"records": []any{fullRecord("1", "a@example.com", "d1"), bad}})

		s.Equal(http.StatusBadRequest, rr.Code)
		invalid := resp["details"].(map[string]any)["invalidRecords"].([]any)
		s.Require().Len(invalid, 1)
		entry := invalid[0].(map[string]any)
		s.Equal(float64(1), entry["index"])
		s.Equal([]any{"formTime"}, entry["missingFields"])
	})

	s.Run("empty values still count as present", func() {
		record := fullRecord("1", "", "")
		rr, _ := s.post("/api/analyze", map[string]any{"record": record})
		s.Equal(http.StatusOK, rr.Code)
	})
}

func (s *AnalysisHandlerSuite) TestAnalyzeBatch() {
	records := []any{
		fullRecord("1", "shared@example.com", "d1"),
		fullRecord("2", "shared@example.com", "d2"),
		fullRecord("3", "c@example.com", "d3"),
	}
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/analyze", map[string]any{"records": records}))
	s.Require().Equal(http.StatusOK, rr.Code)

	var resp analyzeResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Equal(3, resp.Summary.TotalRecords)
	s.Equal(0, resp.Summary.SyntheticCount)
	s.Equal(2, resp.Summary.RulesTriggered["Identity Clustering"])
	s.Require().Len(resp.Results, 3)
	s.Equal(40, resp.Results[0].Analysis.RiskScore)
	s.Equal("1", resp.Results[0].UserID)
	s.Equal(0, resp.Results[2].Analysis.RiskScore)
}

func (s *AnalysisHandlerSuite) TestAnalyzeSingleAgainstReference() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/analyze",
		map[string]any{"record": fullRecord("9", "new@example.com", "dev-ref")}))
	s.Require().Equal(http.StatusOK, rr.Code)

	var resp analyzeResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Require().Len(resp.Results, 1)
	s.True(resp.Results[0].Analysis.IsSynthetic, "device shared with a reference user is critical")
	s.Equal(1, resp.Summary.SyntheticCount)
}

func (s *AnalysisHandlerSuite) TestUnified() {
	s.Run("clean record with neutral behavior", func() {
		body := map[string]any{
			"record":    map[string]any{"name": "Ada", "dob": "1996-01-10", "email": "ada@example.com", "faceAge": 30, "formTime": 5000},
			"biometric": map[string]any{"visualAge": 30},
		}
		rr, resp := s.post("/api/unified", body)

		s.Equal(http.StatusOK, rr.Code)
		s.Equal(true, resp["success"])
		s.Equal(float64(15), resp["compositeScore"])
		breakdown := resp["breakdown"].(map[string]any)
		s.Equal(float64(50), breakdown["behaviorScore"])
		s.Equal(false, breakdown["isSynthetic"])
	})

	s.Run("behavior presence overrides a bot-speed form timer", func() {
		body := map[string]any{
			"record":   map[string]any{"name": "Ada", "dob": "1996-01-10", "email": "ada@example.com", "faceAge": 30, "formTime": 500},
			"behavior": map[string]any{"velocity": 1.2, "avgKeystroke": 140},
		}
		_, resp := s.post("/api/unified", body)
		breakdown := resp["breakdown"].(map[string]any)
		s.Equal(float64(0), breakdown["identityScore"])
		s.Equal(float64(0), resp["compositeScore"])
	})

	s.Run("large age gap is overridden to 75", func() {
		body := map[string]any{
			"record":    map[string]any{"name": "Ada", "dob": "1996-01-10", "email": "ada@example.com", "faceAge": 30, "formTime": 5000},
			"biometric": map[string]any{"visualAge": 52},
		}
		_, resp := s.post("/api/unified", body)
		s.Equal(float64(75), resp["compositeScore"])
		s.Equal(true, resp["breakdown"].(map[string]any)["isSynthetic"])
	})

	s.Run("record is required", func() {
		rr, _ := s.post("/api/unified", map[string]any{"behavior": map[string]any{}})
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *AnalysisHandlerSuite) TestHealth() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/health"))
	s.Require().Equal(http.StatusOK, rr.Code)
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Equal("ok", resp["status"])
	s.Equal("2026-06-15T12:00:00Z", resp["timestamp"])
}

func (s *AnalysisHandlerSuite) TestServices() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/health/services"))
	s.Require().Equal(http.StatusOK, rr.Code)

	var resp struct {
		Status   string                   `json:"status"`
		Services []evidence.ServiceHealth `json:"services"`
	}
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Equal("degraded", resp.Status)
	s.Require().Len(resp.Services, 3)
	s.Equal(evidence.StatusOnline, resp.Services[0].Status)
	s.Equal(evidence.StatusOffline, resp.Services[1].Status)
	s.Equal("dial refused", resp.Services[1].Error)
	s.Equal(evidence.StatusDisabled, resp.Services[2].Status)
}

type stubProber struct {
	name    string
	enabled bool
	err     error
}

func (p stubProber) Name() string                  { return p.name }
func (p stubProber) Endpoint() string              { return "http://" + p.name }
func (p stubProber) Enabled() bool                 { return p.enabled }
func (p stubProber) CircuitState() string          { return "closed" }
func (p stubProber) Probe(_ context.Context) error { return p.err }

func TestAnalyzeRequest_MalformedRecord(t *testing.T) {
	req := AnalyzeRequest{Records: json.RawMessage(`[{"faceAge":"thirty"}]`)}
	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 0 is malformed")
}
