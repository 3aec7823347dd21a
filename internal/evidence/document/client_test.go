package document

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verity/internal/evidence"
)

func TestAnalyze(t *testing.T) {
	t.Run("returns verdict and forwards issue date", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/analyze/document", r.URL.Path)
			file, header, err := r.FormFile("document")
			require.NoError(t, err)
			data, _ := io.ReadAll(file)
			assert.Equal(t, "passport.png", header.Filename)
			assert.Equal(t, "scan", string(data))
			assert.Equal(t, "2020-01-15", r.FormValue("docIssueDate"))
			_, _ = w.Write([]byte(`{"forgeryScore":0.12,"confidence":0.9,"isAuthentic":true,"documentType":"passport","flags":["glare"],"docIssueDateValid":true}`))
		}))
		defer srv.Close()

		got, err := New(srv.URL, srv.Client(), nil).Analyze(context.Background(), Upload{
			Content:   []byte("scan"),
			FileName:  "passport.png",
			IssueDate: "2020-01-15",
		})
		require.NoError(t, err)
		assert.True(t, got.Available)
		assert.True(t, got.IsAuthentic)
		assert.Equal(t, 0.12, got.ForgeryScore)
		assert.Equal(t, "passport", got.DocumentType)
		assert.Equal(t, []string{"glare"}, got.Flags)
		require.NotNil(t, got.DocIssueDateValid)
		assert.True(t, *got.DocIssueDateValid)
	})

	t.Run("flags default to empty", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"forgeryScore":0.8,"isAuthentic":false}`))
		}))
		defer srv.Close()

		got, err := New(srv.URL, srv.Client(), nil).Analyze(context.Background(), Upload{Content: []byte("x")})
		require.NoError(t, err)
		assert.NotNil(t, got.Flags)
		assert.Nil(t, got.DocIssueDateValid)
	})

	t.Run("offline service is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		_, err := New(srv.URL, srv.Client(), nil).Analyze(context.Background(), Upload{Content: []byte("x")})
		assert.True(t, errors.Is(err, evidence.ErrUnavailable))
	})

	t.Run("malformed body is bad data", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		_, err := New(srv.URL, srv.Client(), nil).Analyze(context.Background(), Upload{Content: []byte("x")})
		assert.Equal(t, evidence.ErrorBadData, evidence.GetCategory(err))
	})
}
