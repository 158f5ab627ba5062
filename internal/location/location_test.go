package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate_FormatsPosition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lat": 52.52, "lon": 13.405}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, time.Second)
	got, err := p.Locate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Lat: 52.52, Lng: 13.405", got)
}

func TestLocate_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, time.Second)
	_, err := p.Locate(context.Background())

	assert.Error(t, err)
}

func TestLocate_TimeoutEnforced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, 50*time.Millisecond)
	start := time.Now()
	_, err := p.Locate(context.Background())

	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
