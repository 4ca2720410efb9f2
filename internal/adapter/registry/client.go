package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openplume/air-quality-etl/internal/domain"
)

// Client implements domain.StationDirectory against the station registry
// HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *slog.Logger
}

// NewClient creates a registry client for the API at baseURL. The token is
// sent as a bearer credential when non-empty.
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		logger:  logger,
	}
}

// Lookup fetches the registry record for a station ID.
func (c *Client) Lookup(ctx context.Context, station string) (domain.StationInfo, error) {
	u := fmt.Sprintf("%s/stations/%s", c.baseURL, url.PathEscape(station))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.StationInfo{}, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.StationInfo{}, fmt.Errorf("station lookup request: %w", err)
	}
	defer resp.Body.Close()

	// A station missing from the registry is not an error: the caller
	// records the miss and keeps the event.
	if resp.StatusCode == http.StatusNotFound {
		return domain.StationInfo{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.StationInfo{}, fmt.Errorf("registry API error: status %d: %s", resp.StatusCode, body)
	}

	var rec stationRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return domain.StationInfo{}, fmt.Errorf("decode response: %w", err)
	}

	return domain.StationInfo{
		Name: rec.Name,
		Zone: rec.Zone,
		Lat:  rec.Coordinates.Lat,
		Lon:  rec.Coordinates.Lon,
	}, nil
}

// Station registry API response types.

type stationRecord struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Zone        string      `json:"zone"`
	Coordinates coordinates `json:"coordinates"`
}

type coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
