package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/verdantlabs/farmpilot-backend/internal/profile"
	"github.com/verdantlabs/farmpilot-backend/internal/weather"
	"github.com/verdantlabs/farmpilot-backend/pkg/enums"
	"github.com/verdantlabs/farmpilot-backend/pkg/geocode"
	"github.com/verdantlabs/farmpilot-backend/pkg/llm"
)

type stubWeatherService struct {
	snap weather.Snapshot
	ok   bool
}

func (s stubWeatherService) SnapshotFor(ctx context.Context, lat, lon float64) (weather.Snapshot, bool) {
	return s.snap, s.ok
}

type stubCopilotService struct {
	insights []string
	degraded bool
}

func (s stubCopilotService) Insights(ctx context.Context, p *profile.FarmProfile, snap weather.Snapshot) ([]string, bool) {
	return s.insights, s.degraded
}

func (s stubCopilotService) Chat(ctx context.Context, p *profile.FarmProfile, history []llm.Message, message string) (string, bool) {
	return "", s.degraded
}

type stubGeocoder struct {
	place *geocode.Place
	err   error
}

func (s stubGeocoder) Reverse(ctx context.Context, lat, lon float64) (*geocode.Place, error) {
	return s.place, s.err
}

func dashboardProfile() *profile.FarmProfile {
	p := profile.NewFarmProfile("acct-1", time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC))
	p.FarmName = "Willow Creek"
	p.Location.Coords = &profile.Coords{Lat: 33.2148, Lon: -97.1331}
	p.Location.Preference = profile.PreferCoordinates
	return p
}

func TestDashboardAggregatesCollaborators(t *testing.T) {
	p := dashboardProfile()
	svc := &testProfileService{
		getFn: func(ctx context.Context, accountID string) (*profile.FarmProfile, error) {
			return p, nil
		},
		replaceFn: func(ctx context.Context, accountID string, tasks []profile.Task) (*profile.FarmProfile, error) {
			clone := p.Clone()
			clone.Tasks = append(clone.Tasks, tasks...)
			return clone, nil
		},
	}

	handler := Dashboard{
		Profiles: svc,
		Weather: stubWeatherService{
			snap: weather.Snapshot{Days: []weather.DayForecast{{Date: "2024-04-02", HighC: 24, LowC: 12, ChanceOfRain: 80}}},
			ok:   true,
		},
		Copilot:  stubCopilotService{insights: []string{"Check irrigation lines before the rain arrives."}},
		Geocoder: stubGeocoder{place: &geocode.Place{Locality: "Ponder", Region: "Texas"}},
		Logger:   testLogger(),
		Now:      func() time.Time { return time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC) },
	}.Handler()

	resp := httptest.NewRecorder()
	handler(resp, authedRequest(http.MethodGet, "/api/v1/dashboard", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data    dashboardView `json:"data"`
		Notices []struct {
			Source string `json:"source"`
		} `json:"notices"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Notices) != 0 {
		t.Fatalf("expected no notices, got %v", envelope.Notices)
	}
	if envelope.Data.LocationLabel != "Ponder, Texas" {
		t.Fatalf("unexpected location label %q", envelope.Data.LocationLabel)
	}
	if len(envelope.Data.Insights) != 1 {
		t.Fatalf("expected insight passthrough, got %v", envelope.Data.Insights)
	}
	if len(envelope.Data.Alerts) == 0 {
		t.Fatal("expected rain alert from forecast")
	}
	if len(envelope.Data.Tasks) == 0 {
		t.Fatal("expected synthesized irrigation task")
	}
	foundMachine := false
	for _, task := range envelope.Data.Tasks {
		if task.Source == enums.TaskSourceInsight {
			foundMachine = true
		}
	}
	if !foundMachine {
		t.Fatal("expected a machine-sourced task")
	}
}

func TestDashboardDegradesWithNotices(t *testing.T) {
	p := dashboardProfile()
	svc := &testProfileService{
		getFn: func(ctx context.Context, accountID string) (*profile.FarmProfile, error) {
			return p, nil
		},
		replaceFn: func(ctx context.Context, accountID string, tasks []profile.Task) (*profile.FarmProfile, error) {
			clone := p.Clone()
			clone.Tasks = append(clone.Tasks, tasks...)
			return clone, nil
		},
	}

	handler := Dashboard{
		Profiles: svc,
		Weather:  stubWeatherService{ok: false},
		Copilot:  stubCopilotService{insights: []string{"Monitor soil moisture levels and adjust irrigation as needed."}, degraded: true},
		Logger:   testLogger(),
		Now:      func() time.Time { return time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC) },
	}.Handler()

	resp := httptest.NewRecorder()
	handler(resp, authedRequest(http.MethodGet, "/api/v1/dashboard", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("degraded dashboard must still return 200, got %d", resp.Code)
	}

	var envelope struct {
		Data    dashboardView `json:"data"`
		Notices []struct {
			Source string `json:"source"`
		} `json:"notices"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	sources := map[string]bool{}
	for _, n := range envelope.Notices {
		sources[n.Source] = true
	}
	if !sources["weather"] || !sources["copilot"] {
		t.Fatalf("expected weather and copilot notices, got %v", envelope.Notices)
	}
	if envelope.Data.LocationLabel != "" {
		t.Fatalf("expected empty label without geocoder, got %q", envelope.Data.LocationLabel)
	}
}

func TestDashboardSkipsWeatherWithoutCoordinates(t *testing.T) {
	p := profile.NewFarmProfile("acct-1", time.Now())
	p.Location.Text = "Ponder, Texas"
	p.Location.Preference = profile.PreferText

	weatherCalled := false
	svc := &testProfileService{
		getFn: func(ctx context.Context, accountID string) (*profile.FarmProfile, error) {
			return p, nil
		},
	}

	handler := Dashboard{
		Profiles: svc,
		Weather: weatherFunc(func(ctx context.Context, lat, lon float64) (weather.Snapshot, bool) {
			weatherCalled = true
			return weather.Snapshot{}, true
		}),
		Copilot: stubCopilotService{},
		Logger:  testLogger(),
	}.Handler()

	resp := httptest.NewRecorder()
	handler(resp, authedRequest(http.MethodGet, "/api/v1/dashboard", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if weatherCalled {
		t.Fatal("weather must not be fetched without authoritative coordinates")
	}
}

type weatherFunc func(ctx context.Context, lat, lon float64) (weather.Snapshot, bool)

func (f weatherFunc) SnapshotFor(ctx context.Context, lat, lon float64) (weather.Snapshot, bool) {
	return f(ctx, lat, lon)
}
