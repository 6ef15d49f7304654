// Package geocode wraps a Nominatim-compatible reverse-geocoding endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/verdantlabs/farmpilot-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://nominatim.openstreetmap.org"
	responseBodyReadLimit int64 = 1024
)

// Client resolves coordinates to human-readable place names.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured geocoding base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithAPIKey attaches an API key for hosted Nominatim providers.
func WithAPIKey(apiKey string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(apiKey)
	}
}

// NewClient builds the reverse-geocoding client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		userAgent:  "farmpilot-backend/1.0",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Place is the normalized reverse-geocoding result.
type Place struct {
	DisplayName string
	Locality    string
	Region      string
	Country     string
}

// Reverse resolves a coordinate pair to a place description.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "geocode client not configured")
	}

	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%.6f", lat))
	query.Set("lon", fmt.Sprintf("%.6f", lon))
	query.Set("format", "jsonv2")
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}

	endpoint := fmt.Sprintf("%s/reverse?%s", strings.TrimRight(c.baseURL, "/"), query.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build reverse geocode request")
	}
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute reverse geocode request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "reverse geocode request failed")
	}

	var apiResp struct {
		DisplayName string `json:"display_name"`
		Address     struct {
			Village string `json:"village"`
			Town    string `json:"town"`
			City    string `json:"city"`
			County  string `json:"county"`
			State   string `json:"state"`
			Country string `json:"country"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode reverse geocode response")
	}

	locality := apiResp.Address.City
	if locality == "" {
		locality = apiResp.Address.Town
	}
	if locality == "" {
		locality = apiResp.Address.Village
	}
	region := apiResp.Address.State
	if region == "" {
		region = apiResp.Address.County
	}

	return &Place{
		DisplayName: apiResp.DisplayName,
		Locality:    locality,
		Region:      region,
		Country:     apiResp.Address.Country,
	}, nil
}
