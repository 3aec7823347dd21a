// Package age calls the remote age-estimation service with a face snapshot.
package age

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strings"

	"verity/internal/evidence"
)

const (
	predictPath = "/api/predict-age"
	// legacyPath is served by older deployments of the estimator.
	legacyPath = "/detect"
)

// Client estimates an age range from an image.
type Client struct {
	baseURL string
	http    *http.Client
	guard   *evidence.Guard
}

// New creates an age client. An empty baseURL disables it.
func New(baseURL string, httpClient *http.Client, guard *evidence.Guard) *Client {
	if httpClient == nil {
		httpClient = evidence.NewHTTPClient()
	}
	if guard == nil {
		guard = evidence.NewGuard(evidence.CollaboratorAge)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		guard:   guard,
	}
}

func (c *Client) Name() string         { return evidence.CollaboratorAge }
func (c *Client) Endpoint() string     { return c.baseURL }
func (c *Client) Enabled() bool        { return c.baseURL != "" }
func (c *Client) CircuitState() string { return c.guard.CircuitState().String() }

type estimateResponse struct {
	DetectAge *ageRange `json:"detectAge"`
	ageRange
}

type ageRange struct {
	StartAge *float64 `json:"startAge"`
	EndAge   *float64 `json:"endAge"`
}

// Estimate posts image as multipart field "image". A 404 on the primary
// path falls back to the legacy path once.
func (c *Client) Estimate(ctx context.Context, image []byte) (evidence.AgeEstimate, error) {
	if !c.Enabled() {
		return evidence.AgeEstimate{}, evidence.NewError(evidence.ErrorNotConfigured, c.Name(), "age service not configured", nil)
	}
	if len(image) == 0 {
		return evidence.AgeEstimate{}, evidence.NewError(evidence.ErrorBadData, c.Name(), "empty image", nil)
	}

	var result evidence.AgeEstimate
	err := c.guard.Call(ctx, func(ctx context.Context) error {
		body, contentType, err := multipartImage(image)
		if err != nil {
			return evidence.NewError(evidence.ErrorInternal, c.Name(), "build request", err)
		}
		resp, err := c.post(ctx, predictPath, bytes.NewReader(body), contentType)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			resp, err = c.post(ctx, legacyPath, bytes.NewReader(body), contentType)
			if err != nil {
				return err
			}
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound || resp.StatusCode >= http.StatusInternalServerError {
			return evidence.NewError(evidence.ErrorOutage, c.Name(), fmt.Sprintf("status %d", resp.StatusCode), nil)
		}
		if resp.StatusCode != http.StatusOK {
			return evidence.NewError(evidence.ErrorBadData, c.Name(), fmt.Sprintf("status %d", resp.StatusCode), nil)
		}

		var decoded estimateResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&decoded); err != nil {
			return evidence.NewError(evidence.ErrorBadData, c.Name(), "decode response", err)
		}
		result = toEstimate(decoded)
		return nil
	})
	return result, err
}

// Probe treats any HTTP answer below 500 (including 404 on "/") as reachable.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, evidence.NewError(evidence.ErrorInternal, c.Name(), "build request", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.http.Do(req)
}

// multipartImage encodes image once; each attempt reads its own reader.
func multipartImage(image []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", "capture.jpg")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func toEstimate(r estimateResponse) evidence.AgeEstimate {
	start := pick(r.DetectAge, r.StartAge, func(a *ageRange) *float64 { return a.StartAge }, evidence.DefaultStartAge)
	end := pick(r.DetectAge, r.EndAge, func(a *ageRange) *float64 { return a.EndAge }, evidence.DefaultEndAge)
	return evidence.AgeEstimate{
		StartAge:   int(math.Round(start)),
		EndAge:     int(math.Round(end)),
		AverageAge: int(math.Round((start + end) / 2)),
	}
}

// pick prefers the nested detectAge value, then the top-level one, then def.
func pick(nested *ageRange, top *float64, field func(*ageRange) *float64, def float64) float64 {
	if nested != nil {
		if v := field(nested); v != nil {
			return *v
		}
	}
	if top != nil {
		return *top
	}
	return def
}
