package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/verdantlabs/farmpilot-backend/pkg/logger"
	"github.com/verdantlabs/farmpilot-backend/pkg/weatherapi"
)

// Provider is the upstream forecast surface the service depends on.
type Provider interface {
	FetchForecast(ctx context.Context, lat, lon float64, days int) (*weatherapi.Forecast, error)
}

// Cache is the snapshot cache surface. A miss is reported via missErr.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

// Service fetches weather snapshots for farm coordinates. Provider failures
// degrade to a zero Snapshot instead of failing the caller; the dashboard
// renders without weather rather than erroring.
type Service interface {
	SnapshotFor(ctx context.Context, lat, lon float64) (Snapshot, bool)
}

type service struct {
	provider Provider
	cache    Cache
	missErr  func(error) bool
	logg     *logger.Logger

	forecastDays int
	cacheTTL     time.Duration
}

// Options configures the weather service.
type Options struct {
	ForecastDays int
	CacheTTL     time.Duration
	// IsCacheMiss distinguishes an absent key from a broken cache.
	IsCacheMiss func(error) bool
}

func NewService(provider Provider, cache Cache, logg *logger.Logger, opts Options) Service {
	if opts.ForecastDays <= 0 {
		opts.ForecastDays = 5
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Minute
	}
	if opts.IsCacheMiss == nil {
		opts.IsCacheMiss = func(error) bool { return false }
	}
	return &service{
		provider:     provider,
		cache:        cache,
		missErr:      opts.IsCacheMiss,
		logg:         logg,
		forecastDays: opts.ForecastDays,
		cacheTTL:     opts.CacheTTL,
	}
}

// SnapshotFor returns the snapshot for the given coordinates and whether it
// came from live data. Coordinates are rounded to two decimals for cache
// keying so nearby farms share an entry.
func (s *service) SnapshotFor(ctx context.Context, lat, lon float64) (Snapshot, bool) {
	key := ""
	if s.cache != nil {
		key = s.cache.CacheKey("weather", fmt.Sprintf("%.2f", lat), fmt.Sprintf("%.2f", lon))
		if cached, err := s.cache.Get(ctx, key); err == nil {
			var snap Snapshot
			if jsonErr := json.Unmarshal([]byte(cached), &snap); jsonErr == nil {
				return snap, true
			}
		} else if !s.missErr(err) && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "key", key), "weather cache read failed")
		}
	}

	if s.provider == nil {
		return Snapshot{}, false
	}

	forecast, err := s.provider.FetchForecast(ctx, lat, lon, s.forecastDays)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "weather provider unavailable", err)
		}
		return Snapshot{}, false
	}

	snap := fromForecast(forecast)
	if s.cache != nil && key != "" {
		if payload, jsonErr := json.Marshal(snap); jsonErr == nil {
			if setErr := s.cache.Set(ctx, key, string(payload), s.cacheTTL); setErr != nil && s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "key", key), "weather cache write failed")
			}
		}
	}
	return snap, true
}

func fromForecast(f *weatherapi.Forecast) Snapshot {
	if f == nil {
		return Snapshot{}
	}
	snap := Snapshot{
		Current: &Current{
			TempC:       f.Current.TempC,
			Condition:   f.Current.Condition,
			HumidityPct: f.Current.HumidityPct,
			WindKph:     f.Current.WindKph,
		},
	}
	for _, d := range f.Days {
		snap.Days = append(snap.Days, DayForecast{
			Date:         d.Date,
			HighC:        d.HighC,
			LowC:         d.LowC,
			Condition:    d.Condition,
			ChanceOfRain: d.ChanceOfRain,
			HumidityPct:  d.HumidityPct,
			WindKph:      d.WindKph,
		})
	}
	return snap
}
