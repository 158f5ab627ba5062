// Package location provides the best-effort geolocation lookup used when
// composing an SOS escalation. A lookup is never allowed to delay the
// dispatch beyond its own short timeout; callers substitute the
// Unavailable literal whenever it fails.
package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Unavailable is the literal substituted into an escalation when no
// position could be acquired in time.
const Unavailable = "Location unavailable"

// Provider resolves a human-readable position string for the current
// deployment. Implementations must honor ctx and return promptly.
type Provider interface {
	Locate(ctx context.Context) (string, error)
}

// HTTPProvider queries a geolocation endpoint (an ip-api style service)
// that answers with {"lat": ..., "lon": ...}.
type HTTPProvider struct {
	url     string
	timeout time.Duration
	http    *http.Client
}

// NewHTTPProvider builds a provider for the endpoint at url. A
// non-positive timeout falls back to 3 seconds; the point of this lookup
// is to be short.
func NewHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPProvider{url: url, timeout: timeout, http: &http.Client{Timeout: timeout}}
}

// Locate fetches the position and formats it as "Lat: <lat>, Lng: <lon>".
func (p *HTTPProvider) Locate(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geolocation: status %d", resp.StatusCode)
	}
	var body struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return fmt.Sprintf("Lat: %v, Lng: %v", body.Lat, body.Lon), nil
}
