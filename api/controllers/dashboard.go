package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/verdantlabs/farmpilot-backend/api/middleware"
	"github.com/verdantlabs/farmpilot-backend/api/responses"
	"github.com/verdantlabs/farmpilot-backend/internal/copilot"
	"github.com/verdantlabs/farmpilot-backend/internal/derived"
	"github.com/verdantlabs/farmpilot-backend/internal/finance"
	"github.com/verdantlabs/farmpilot-backend/internal/profile"
	"github.com/verdantlabs/farmpilot-backend/internal/weather"
	"github.com/verdantlabs/farmpilot-backend/pkg/enums"
	"github.com/verdantlabs/farmpilot-backend/pkg/geocode"
	"github.com/verdantlabs/farmpilot-backend/pkg/logger"
	"github.com/verdantlabs/farmpilot-backend/pkg/types"
)

// Geocoder resolves coordinates to a human-readable place.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*geocode.Place, error)
}

// Dashboard aggregates everything the home screen needs in one request.
type Dashboard struct {
	Profiles profile.Service
	Weather  weather.Service
	Copilot  copilot.Service
	Geocoder Geocoder
	Logger   *logger.Logger
	Now      func() time.Time
}

type dashboardView struct {
	Profile       *profileView     `json:"profile"`
	LocationLabel string           `json:"location_label,omitempty"`
	Weather       weather.Snapshot `json:"weather"`
	Insights      []string         `json:"insights"`
	Alerts        []derived.Alert  `json:"alerts"`
	Tasks         []profile.Task   `json:"tasks"`
	Finance       finance.Estimate `json:"finance"`
}

func (d Dashboard) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

// Handler serves GET /dashboard. Collaborator failures degrade to partial
// data with a notice, never an error status.
func (d Dashboard) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		accountID := middleware.AccountIDFromContext(ctx)

		p, err := d.Profiles.GetProfile(ctx, accountID)
		if err != nil {
			responses.WriteError(ctx, d.Logger, w, err)
			return
		}

		var notices []types.Notice

		var snap weather.Snapshot
		if coords := p.Location.Authoritative(); coords != nil && d.Weather != nil {
			var ok bool
			snap, ok = d.Weather.SnapshotFor(ctx, coords.Lat, coords.Lon)
			if !ok {
				notices = append(notices, types.Notice{
					Source:  "weather",
					Message: "Weather data is temporarily unavailable.",
				})
			}
		}

		var insights []string
		if d.Copilot != nil {
			var degraded bool
			insights, degraded = d.Copilot.Insights(ctx, p, snap)
			if degraded {
				notices = append(notices, types.Notice{
					Source:  "copilot",
					Message: "Advisory insights are running in offline mode.",
				})
			}
		}

		today := d.now()
		if synth := derived.SynthesizeTasks(insights, userTasks(p), today); len(synth) > 0 {
			updated, replaceErr := d.Profiles.ReplaceInsightTasks(ctx, accountID, synth)
			if replaceErr != nil {
				responses.WriteError(ctx, d.Logger, w, replaceErr)
				return
			}
			p = updated
		}

		views := derived.Compute(p, snap, insights, today)

		view, renderErr := renderProfile(p)
		if renderErr != nil {
			responses.WriteError(ctx, d.Logger, w, renderErr)
			return
		}

		payload := dashboardView{
			Profile:       view,
			LocationLabel: d.locationLabel(ctx, p),
			Weather:       views.Weather,
			Insights:      views.Insights,
			Alerts:        views.Alerts,
			Tasks:         views.Tasks,
			Finance:       finance.EstimateFor(p),
		}
		if payload.Insights == nil {
			payload.Insights = []string{}
		}
		if payload.Alerts == nil {
			payload.Alerts = []derived.Alert{}
		}
		if payload.Tasks == nil {
			payload.Tasks = []profile.Task{}
		}

		responses.WriteSuccessNotices(w, payload, notices)
	}
}

// locationLabel prefers the stored text, then a reverse geocode of the
// authoritative coordinates. Lookup failures just leave the label empty.
func (d Dashboard) locationLabel(ctx context.Context, p *profile.FarmProfile) string {
	if p.Location.Text != "" {
		return p.Location.Text
	}
	coords := p.Location.Authoritative()
	if coords == nil || d.Geocoder == nil {
		return ""
	}
	place, err := d.Geocoder.Reverse(ctx, coords.Lat, coords.Lon)
	if err != nil {
		if d.Logger != nil {
			d.Logger.Warn(d.Logger.WithField(ctx, "reason", err.Error()), "reverse geocode failed")
		}
		return ""
	}
	parts := make([]string, 0, 2)
	if place.Locality != "" {
		parts = append(parts, place.Locality)
	}
	if place.Region != "" {
		parts = append(parts, place.Region)
	}
	if len(parts) == 0 {
		return place.DisplayName
	}
	return strings.Join(parts, ", ")
}

func userTasks(p *profile.FarmProfile) []profile.Task {
	out := make([]profile.Task, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		if t.Source == enums.TaskSourceInsight {
			continue
		}
		out = append(out, t)
	}
	return out
}
