// Package analyzer wraps the external scam-classification engine. The
// engine is an opaque collaborator reached over HTTP: it receives the
// submitted content and returns a risk classification. Nothing in this
// package interprets or recomputes the classification; it only validates
// input, bounds the call in time, and maps failures onto typed errors.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/scamshield/scamshield/internal/model"
)

// Sentinel errors describing why a classification attempt failed. Handlers
// match on these with errors.Is to pick status codes and retry hints.
var (
	// ErrTimeout means the engine did not answer within the hard deadline.
	ErrTimeout = errors.New("analysis timed out")
	// ErrUpstream means the engine answered with a failure or an
	// out-of-contract response.
	ErrUpstream = errors.New("analysis engine error")
	// ErrEmptyContent means there was nothing to classify.
	ErrEmptyContent = errors.New("content is empty")
	// ErrUnsupportedMediaType means a file submission declared a media
	// type outside the accepted set.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

// Content is a single submission handed to the engine: inline text, or a
// file reference with its declared media type.
type Content struct {
	Kind      model.ScanKind
	Body      string // inline text, or the file name for file scans
	MediaType string // declared media type, file scans only
}

// Result is the engine's successful classification. RiskLevel and
// RiskScore are produced together and stored verbatim downstream.
type Result struct {
	RiskLevel model.RiskLevel `json:"risk_level"`
	RiskScore int             `json:"risk_score"`
	Analysis  string          `json:"analysis"`
}

// Engine classifies content within a bounded time. Implementations must
// return one of the sentinel errors above (possibly wrapped) on failure.
type Engine interface {
	Classify(ctx context.Context, content Content) (Result, error)
}

// acceptedMediaTypes mirrors the upload filter of the submission form:
// pdf, docx, txt, jpg, png, mp4, mov, avi, zip.
var acceptedMediaTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain":       true,
	"image/jpeg":       true,
	"image/png":        true,
	"video/mp4":        true,
	"video/quicktime":  true,
	"video/x-msvideo":  true,
	"application/zip":  true,
	"application/x-zip-compressed": true,
}

// ValidateContent checks a submission before any engine cost is incurred.
func ValidateContent(content Content) error {
	if strings.TrimSpace(content.Body) == "" {
		return ErrEmptyContent
	}
	if content.Kind == model.ScanFile {
		if !acceptedMediaTypes[strings.ToLower(strings.TrimSpace(content.MediaType))] {
			return fmt.Errorf("%w: %q", ErrUnsupportedMediaType, content.MediaType)
		}
	}
	return nil
}

// Client is the HTTP implementation of Engine. Every call carries a hard
// timeout so a stalled engine can never wedge a submission.
type Client struct {
	url     string
	timeout time.Duration
	http    *http.Client
}

// NewClient builds a Client for the engine at url. A non-positive timeout
// falls back to 30 seconds.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:     url,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
}

type classifyRequest struct {
	Content  string `json:"content"`
	Type     string `json:"type"`
	FileType string `json:"file_type,omitempty"`
}

// Classify validates the content, posts it to the engine and decodes the
// classification. The context passed in is bounded by the client timeout;
// deadline expiry maps to ErrTimeout, every other transport or protocol
// failure maps to ErrUpstream.
func (c *Client) Classify(ctx context.Context, content Content) (Result, error) {
	if err := ValidateContent(content); err != nil {
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(classifyRequest{
		Content:  content.Body,
		Type:     string(content.Kind),
		FileType: content.MediaType,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, ErrTimeout
		}
		return Result{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	// An out-of-contract classification is an engine fault, not something
	// to repair here.
	if !res.RiskLevel.Valid() || res.RiskScore < 0 || res.RiskScore > 100 {
		return Result{}, fmt.Errorf("%w: invalid classification (level=%q score=%d)", ErrUpstream, res.RiskLevel, res.RiskScore)
	}
	return res, nil
}
