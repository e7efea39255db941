// Package mapbox resolves basemap selector values to Mapbox styles and
// probes the Styles API to confirm the access token can load them.
package mapbox

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

	"github.com/okh2o/stream-dashboard/internal/domain"
)

const stylePrefix = "mapbox://styles/"

// Short selector values map onto these Mapbox-owned styles.
var shortStyles = map[domain.BasemapStyle]string{
	domain.StyleOutdoors:  "mapbox/outdoors-v11",
	domain.StyleSatellite: "mapbox/satellite-v9",
}

// StylePath returns the "owner/id" path of a basemap style.
func StylePath(style domain.BasemapStyle) (string, error) {
	if p, ok := shortStyles[style]; ok {
		return p, nil
	}
	s := string(style)
	if !strings.HasPrefix(s, stylePrefix) {
		return "", fmt.Errorf("unsupported basemap style %q", s)
	}
	p := strings.TrimPrefix(s, stylePrefix)
	if owner, id, ok := strings.Cut(p, "/"); !ok || owner == "" || id == "" {
		return "", fmt.Errorf("malformed style URL %q", s)
	}
	return p, nil
}

// Client talks to the Mapbox Styles API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Mapbox Styles API client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/styles/v1",
		logger:  logger,
	}
}

// CheckStyle fetches one style document and returns an error unless Mapbox
// serves it for the configured token.
func (c *Client) CheckStyle(ctx context.Context, style domain.BasemapStyle) error {
	path, err := StylePath(style)
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/%s?%s", c.baseURL, path, url.Values{"access_token": {c.token}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("style %s request: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mapbox API error: style %s: status %d: %s", path, resp.StatusCode, body)
	}

	var doc styleDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode style %s: %w", path, err)
	}
	if doc.Version == 0 {
		return fmt.Errorf("style %s: response is not a style document", path)
	}

	c.logger.Debug("mapbox style available", "style", path, "name", doc.Name)
	return nil
}

// CheckReadiness verifies every selectable basemap style loads.
func (c *Client) CheckReadiness(ctx context.Context) error {
	for _, style := range domain.BasemapStyles {
		if err := c.CheckStyle(ctx, style); err != nil {
			return err
		}
	}
	return nil
}

// styleDocument is the subset of a Mapbox GL style we look at.
type styleDocument struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
	Owner   string `json:"owner"`
	ID      string `json:"id"`
}
