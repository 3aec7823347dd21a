// Package document calls the remote document-forgery analysis service.
package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"verity/internal/evidence"
)

const analyzePath = "/api/analyze/document"

// Upload is a document file plus its optional issue date (YYYY-MM-DD).
type Upload struct {
	Content   []byte
	FileName  string
	IssueDate string
}

// Client analyzes identity documents.
type Client struct {
	baseURL string
	http    *http.Client
	guard   *evidence.Guard
}

// New creates a document client. An empty baseURL disables it.
func New(baseURL string, httpClient *http.Client, guard *evidence.Guard) *Client {
	if httpClient == nil {
		httpClient = evidence.NewHTTPClient()
	}
	if guard == nil {
		guard = evidence.NewGuard(evidence.CollaboratorDocument)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		guard:   guard,
	}
}

func (c *Client) Name() string         { return evidence.CollaboratorDocument }
func (c *Client) Endpoint() string     { return c.baseURL }
func (c *Client) Enabled() bool        { return c.baseURL != "" }
func (c *Client) CircuitState() string { return c.guard.CircuitState().String() }

type analyzeResponse struct {
	ForgeryScore      float64  `json:"forgeryScore"`
	Confidence        float64  `json:"confidence"`
	IsAuthentic       bool     `json:"isAuthentic"`
	DocumentType      string   `json:"documentType"`
	Flags             []string `json:"flags"`
	DocIssueDateValid *bool    `json:"docIssueDateValid"`
}

// Analyze posts the document as multipart field "document".
func (c *Client) Analyze(ctx context.Context, upload Upload) (evidence.DocumentVerdict, error) {
	if !c.Enabled() {
		return evidence.DocumentVerdict{}, evidence.NewError(evidence.ErrorNotConfigured, c.Name(), "document service not configured", nil)
	}

	var verdict evidence.DocumentVerdict
	err := c.guard.Call(ctx, func(ctx context.Context) error {
		body, contentType, err := multipartDocument(upload)
		if err != nil {
			return evidence.NewError(evidence.ErrorInternal, c.Name(), "build request", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, body)
		if err != nil {
			return evidence.NewError(evidence.ErrorInternal, c.Name(), "build request", err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound || resp.StatusCode >= http.StatusInternalServerError {
			return evidence.NewError(evidence.ErrorOutage, c.Name(), fmt.Sprintf("status %d", resp.StatusCode), nil)
		}
		if resp.StatusCode != http.StatusOK {
			return evidence.NewError(evidence.ErrorBadData, c.Name(), fmt.Sprintf("status %d", resp.StatusCode), nil)
		}

		var decoded analyzeResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&decoded); err != nil {
			return evidence.NewError(evidence.ErrorBadData, c.Name(), "decode response", err)
		}
		flags := decoded.Flags
		if flags == nil {
			flags = []string{}
		}
		verdict = evidence.DocumentVerdict{
			Available:         true,
			IsAuthentic:       decoded.IsAuthentic,
			ForgeryScore:      decoded.ForgeryScore,
			Confidence:        decoded.Confidence,
			DocumentType:      decoded.DocumentType,
			Flags:             flags,
			DocIssueDateValid: decoded.DocIssueDateValid,
		}
		return nil
	})
	return verdict, err
}

// Probe checks the service's health endpoint.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func multipartDocument(upload Upload) (io.Reader, string, error) {
	name := upload.FileName
	if name == "" {
		name = "document.jpg"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("document", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(upload.Content); err != nil {
		return nil, "", err
	}
	if upload.IssueDate != "" {
		if err := w.WriteField("docIssueDate", upload.IssueDate); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
