// Package weatherapi wraps the WeatherAPI.com forecast endpoint.
package weatherapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/verdantlabs/farmpilot-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://api.weatherapi.com/v1"
	defaultForecastDays         = 5
	responseBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("weather api key is required")

// Client calls the hosted weather forecast API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
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

// WithBaseURL overrides the configured forecast base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the weather client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Forecast is the normalized forecast payload.
type Forecast struct {
	Current CurrentConditions
	Days    []DailyForecast
}

// CurrentConditions describes the observed weather at request time.
type CurrentConditions struct {
	TempC       float64
	Condition   string
	HumidityPct int
	WindKph     float64
}

// DailyForecast is one forecast day.
type DailyForecast struct {
	Date         string
	HighC        float64
	LowC         float64
	Condition    string
	ChanceOfRain int
	HumidityPct  int
	WindKph      float64
}

// FetchForecast retrieves current conditions plus a daily forecast for the
// given coordinates. days is clamped to the provider's free-tier ceiling.
func (c *Client) FetchForecast(ctx context.Context, lat, lon float64, days int) (*Forecast, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "weather client not configured")
	}
	if days <= 0 {
		days = defaultForecastDays
	}
	if days > 10 {
		days = 10
	}

	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("q", fmt.Sprintf("%.4f,%.4f", lat, lon))
	query.Set("days", strconv.Itoa(days))

	endpoint := fmt.Sprintf("%s/forecast.json?%s", strings.TrimRight(c.baseURL, "/"), query.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build forecast request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute forecast request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "forecast request failed")
	}

	var apiResp struct {
		Current struct {
			TempC     float64 `json:"temp_c"`
			Humidity  int     `json:"humidity"`
			WindKph   float64 `json:"wind_kph"`
			Condition struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
		Forecast struct {
			ForecastDay []struct {
				Date string `json:"date"`
				Day  struct {
					MaxTempC          float64 `json:"maxtemp_c"`
					MinTempC          float64 `json:"mintemp_c"`
					AvgHumidity       float64 `json:"avghumidity"`
					MaxWindKph        float64 `json:"maxwind_kph"`
					DailyChanceOfRain int     `json:"daily_chance_of_rain"`
					Condition         struct {
						Text string `json:"text"`
					} `json:"condition"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode forecast response")
	}

	forecast := &Forecast{
		Current: CurrentConditions{
			TempC:       apiResp.Current.TempC,
			Condition:   apiResp.Current.Condition.Text,
			HumidityPct: apiResp.Current.Humidity,
			WindKph:     apiResp.Current.WindKph,
		},
	}
	for _, d := range apiResp.Forecast.ForecastDay {
		forecast.Days = append(forecast.Days, DailyForecast{
			Date:         d.Date,
			HighC:        d.Day.MaxTempC,
			LowC:         d.Day.MinTempC,
			Condition:    d.Day.Condition.Text,
			ChanceOfRain: d.Day.DailyChanceOfRain,
			HumidityPct:  int(d.Day.AvgHumidity),
			WindKph:      d.Day.MaxWindKph,
		})
	}

	return forecast, nil
}
