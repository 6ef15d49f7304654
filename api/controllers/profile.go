package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/verdantlabs/farmpilot-backend/api/middleware"
	"github.com/verdantlabs/farmpilot-backend/api/responses"
	"github.com/verdantlabs/farmpilot-backend/api/validators"
	"github.com/verdantlabs/farmpilot-backend/internal/profile"
	"github.com/verdantlabs/farmpilot-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/farmpilot-backend/pkg/errors"
	"github.com/verdantlabs/farmpilot-backend/pkg/geometry"
	"github.com/verdantlabs/farmpilot-backend/pkg/logger"
)

type coordsView struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type locationView struct {
	Coordinates *coordsView `json:"coordinates,omitempty"`
	Text        string      `json:"text,omitempty"`
	Preference  string      `json:"preference,omitempty"`
}

type areaView struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type profileView struct {
	AccountID           string              `json:"account_id"`
	Name                string              `json:"name,omitempty"`
	FarmName            string              `json:"farm_name,omitempty"`
	Location            *locationView       `json:"location,omitempty"`
	Boundary            json.RawMessage     `json:"boundary,omitempty"`
	Area                *areaView           `json:"area,omitempty"`
	SoilTexture         string              `json:"soil_texture,omitempty"`
	Collections         map[string][]string `json:"collections"`
	OnboardingCompleted bool                `json:"onboarding_completed"`
	Track               string              `json:"track,omitempty"`
	Tasks               []profile.Task      `json:"tasks"`
	CompletedDates      map[string]bool     `json:"completed_dates"`
}

func renderProfile(p *profile.FarmProfile) (*profileView, error) {
	view := &profileView{
		AccountID:           p.AccountID,
		Name:                p.Name,
		FarmName:            p.FarmName,
		SoilTexture:         p.SoilTexture.String(),
		Collections:         map[string][]string{},
		OnboardingCompleted: p.OnboardingCompleted,
		Track:               p.Track.String(),
		Tasks:               p.Tasks,
		CompletedDates:      p.CompletedDates,
	}

	if !p.Location.IsZero() {
		loc := &locationView{
			Text:       p.Location.Text,
			Preference: string(p.Location.Preference),
		}
		if p.Location.Coords != nil {
			loc.Coordinates = &coordsView{Lat: p.Location.Coords.Lat, Lon: p.Location.Coords.Lon}
		}
		view.Location = loc
	}

	if p.Boundary != nil {
		encoded, err := geometry.EncodeFeature(p.Boundary)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode boundary")
		}
		view.Boundary = json.RawMessage(encoded)
	}

	if p.Area != nil {
		view.Area = &areaView{Value: p.Area.Value, Unit: p.Area.Unit.String()}
	}

	for name, values := range p.Collections {
		view.Collections[name.String()] = values
	}
	if view.Tasks == nil {
		view.Tasks = []profile.Task{}
	}
	if view.CompletedDates == nil {
		view.CompletedDates = map[string]bool{}
	}

	return view, nil
}

func writeProfile(w http.ResponseWriter, r *http.Request, logg *logger.Logger, p *profile.FarmProfile) {
	view, err := renderProfile(p)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, view)
}

// GetProfile returns the caller's farm profile, creating an empty one on
// first read.
func GetProfile(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := middleware.AccountIDFromContext(r.Context())
		p, err := svc.GetProfile(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeProfile(w, r, logg, p)
	}
}

type updateProfileRequest struct {
	Name             *string  `json:"name" validate:"omitempty,max=120"`
	FarmName         *string  `json:"farm_name" validate:"omitempty,max=120"`
	Latitude         *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude        *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	LocationText     *string  `json:"location_text" validate:"omitempty,max=240"`
	ClearCoordinates bool     `json:"clear_coordinates"`
	AreaValue        *float64 `json:"area_value" validate:"omitempty,gt=0"`
	AreaUnit         *string  `json:"area_unit"`
	ClearArea        bool     `json:"clear_area"`
	SoilTexture      *string  `json:"soil_texture"`
	Track            *string  `json:"track"`
}

func UpdateProfile(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateProfileRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		update := profile.Update{
			Name:         req.Name,
			FarmName:     req.FarmName,
			Latitude:     req.Latitude,
			Longitude:    req.Longitude,
			LocationText: req.LocationText,
			ClearCoords:  req.ClearCoordinates,
			AreaValue:    req.AreaValue,
			ClearArea:    req.ClearArea,
		}

		if req.AreaUnit != nil {
			unit, err := enums.ParseAreaUnit(*req.AreaUnit)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid area unit"))
				return
			}
			update.AreaUnit = &unit
		}
		if req.SoilTexture != nil {
			texture, err := enums.ParseSoilTexture(*req.SoilTexture)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid soil texture"))
				return
			}
			update.SoilTexture = &texture
		}
		if req.Track != nil {
			track, err := enums.ParseTrack(*req.Track)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid track"))
				return
			}
			update.Track = &track
		}

		accountID := middleware.AccountIDFromContext(r.Context())
		p, err := svc.UpdateProfile(r.Context(), accountID, update)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeProfile(w, r, logg, p)
	}
}

// SetBoundary replaces the farm boundary. The body is a GeoJSON Feature
// document, or JSON null to clear it.
func SetBoundary(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read boundary body"))
			return
		}

		var boundary *geometry.Polygon
		if trimmed := strings.TrimSpace(string(raw)); trimmed != "" && trimmed != "null" {
			boundary, err = geometry.ParseFeature(trimmed)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid boundary"))
				return
			}
		}

		accountID := middleware.AccountIDFromContext(r.Context())
		p, err := svc.SetBoundary(r.Context(), accountID, boundary)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeProfile(w, r, logg, p)
	}
}

type toggleCollectionRequest struct {
	Value string `json:"value" validate:"required,max=120"`
}

// ToggleCollectionMember adds the value to the named collection, or removes
// it when already present.
func ToggleCollectionMember(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req toggleCollectionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		collection := chi.URLParam(r, "collection")
		accountID := middleware.AccountIDFromContext(r.Context())
		p, err := svc.ToggleCollectionMember(r.Context(), accountID, collection, req.Value)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeProfile(w, r, logg, p)
	}
}

// CompleteOnboarding marks onboarding done and freezes the chosen track.
func CompleteOnboarding(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := middleware.AccountIDFromContext(r.Context())
		p, err := svc.CompleteOnboarding(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeProfile(w, r, logg, p)
	}
}
