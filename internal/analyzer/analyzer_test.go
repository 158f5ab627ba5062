package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scamshield/scamshield/internal/model"
)

func TestValidateContent(t *testing.T) {
	cases := []struct {
		name    string
		content Content
		wantErr error
	}{
		{
			name:    "text ok",
			content: Content{Kind: model.ScanText, Body: "suspicious message"},
		},
		{
			name:    "empty body",
			content: Content{Kind: model.ScanText, Body: ""},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "whitespace body",
			content: Content{Kind: model.ScanText, Body: "  \t\n"},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "pdf file ok",
			content: Content{Kind: model.ScanFile, Body: "doc.pdf", MediaType: "application/pdf"},
		},
		{
			name:    "media type case-insensitive",
			content: Content{Kind: model.ScanFile, Body: "pic.png", MediaType: "Image/PNG"},
		},
		{
			name:    "executable rejected",
			content: Content{Kind: model.ScanFile, Body: "x.exe", MediaType: "application/x-msdownload"},
			wantErr: ErrUnsupportedMediaType,
		},
		{
			name:    "file without media type rejected",
			content: Content{Kind: model.ScanFile, Body: "mystery"},
			wantErr: ErrUnsupportedMediaType,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateContent(tc.content)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestClassify_Success(t *testing.T) {
	var got classifyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(Result{
			RiskLevel: model.RiskSuspicious,
			RiskScore: 64,
			Analysis:  "urgency and payment request markers",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	res, err := c.Classify(context.Background(), Content{Kind: model.ScanText, Body: "wire me money"})

	require.NoError(t, err)
	assert.Equal(t, model.RiskSuspicious, res.RiskLevel)
	assert.Equal(t, 64, res.RiskScore)
	assert.Equal(t, "wire me money", got.Content)
	assert.Equal(t, "text", got.Type)
}

func TestClassify_Non200IsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.Classify(context.Background(), Content{Kind: model.ScanText, Body: "hello"})

	assert.ErrorIs(t, err, ErrUpstream)
}

func TestClassify_SlowEngineIsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond)
	start := time.Now()
	_, err := c.Classify(context.Background(), Content{Kind: model.ScanText, Body: "hello"})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), time.Second, "the deadline must be enforced")
}

func TestClassify_OutOfContractResponse(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"unknown level", `{"risk_level":"catastrophic","risk_score":50,"analysis":"x"}`},
		{"score above range", `{"risk_level":"safe","risk_score":140,"analysis":"x"}`},
		{"score below range", `{"risk_level":"safe","risk_score":-1,"analysis":"x"}`},
		{"not json", `<html>oops</html>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, 5*time.Second)
			_, err := c.Classify(context.Background(), Content{Kind: model.ScanText, Body: "hello"})
			assert.ErrorIs(t, err, ErrUpstream)
		})
	}
}

func TestClassify_ValidatesBeforeCalling(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.Classify(context.Background(), Content{Kind: model.ScanText, Body: ""})

	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Zero(t, calls)
}
