//go:build registry

package registry

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit a live station registry and require STATION_REGISTRY_URL
// (plus STATION_REGISTRY_TOKEN when the deployment enforces auth) and
// STATION_REGISTRY_PROBE naming a station known to be registered.
// Run with: go test -tags=registry ./internal/adapter/registry/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	baseURL := os.Getenv("STATION_REGISTRY_URL")
	if baseURL == "" {
		t.Fatal("STATION_REGISTRY_URL must be set to run smoke tests")
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      os.Getenv("STATION_REGISTRY_TOKEN"),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func probeStation(t *testing.T) string {
	t.Helper()
	station := os.Getenv("STATION_REGISTRY_PROBE")
	if station == "" {
		t.Fatal("STATION_REGISTRY_PROBE must name a registered station")
	}
	return station
}

func TestSmoke_Lookup(t *testing.T) {
	c := smokeClient(t)

	info, err := c.Lookup(context.Background(), probeStation(t))
	require.NoError(t, err)

	assert.NotEmpty(t, info.Name)
	assert.NotEmpty(t, info.Zone)
}

func TestSmoke_Lookup_UnknownStation(t *testing.T) {
	c := smokeClient(t)

	info, err := c.Lookup(context.Background(), "smoke-test-does-not-exist")
	require.NoError(t, err)
	assert.Empty(t, info.Name)
}

func TestSmoke_CachedDirectory(t *testing.T) {
	c := smokeClient(t)
	cached := NewCachedDirectory(c, 10)
	station := probeStation(t)

	// First call: cache miss → real API call.
	r1, err := cached.Lookup(context.Background(), station)
	require.NoError(t, err)
	assert.NotEmpty(t, r1.Name)

	// Second call: cache hit → no API call.
	r2, err := cached.Lookup(context.Background(), station)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
