package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verdantlabs/farmpilot-backend/api/controllers"
	"github.com/verdantlabs/farmpilot-backend/api/middleware"
	"github.com/verdantlabs/farmpilot-backend/internal/copilot"
	"github.com/verdantlabs/farmpilot-backend/internal/profile"
	"github.com/verdantlabs/farmpilot-backend/internal/weather"
	"github.com/verdantlabs/farmpilot-backend/pkg/config"
	"github.com/verdantlabs/farmpilot-backend/pkg/logger"
	"github.com/verdantlabs/farmpilot-backend/pkg/redis"
)

// Deps carries everything the API surface needs. Optional collaborators may
// be nil; the affected endpoints degrade instead of failing to boot.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	Redis   *redis.Client
	DB      controllers.Pinger
	Metrics http.Handler

	Profiles profile.Service
	Weather  weather.Service
	Copilot  copilot.Service
	Geocoder controllers.Geocoder
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    pingerOrNil(deps.Redis),
		}))
	})

	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore(deps.Redis), logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/profile", func(r chi.Router) {
			r.Get("/", controllers.GetProfile(deps.Profiles, logg))
			r.Patch("/", controllers.UpdateProfile(deps.Profiles, logg))
			r.Put("/boundary", controllers.SetBoundary(deps.Profiles, logg))
			r.Post("/collections/{collection}/toggle", controllers.ToggleCollectionMember(deps.Profiles, logg))
			r.Post("/complete", controllers.CompleteOnboarding(deps.Profiles, logg))
		})

		r.Route("/v1/tasks", func(r chi.Router) {
			r.Get("/", controllers.ListTasks(deps.Profiles, logg))
			r.Post("/", controllers.CreateTask(deps.Profiles, logg))
			r.Post("/{taskId}/toggle", controllers.ToggleTask(deps.Profiles, logg))
		})

		r.Get("/v1/dashboard", controllers.Dashboard{
			Profiles: deps.Profiles,
			Weather:  deps.Weather,
			Copilot:  deps.Copilot,
			Geocoder: deps.Geocoder,
			Logger:   logg,
		}.Handler())

		r.Route("/v1/copilot", func(r chi.Router) {
			limiter := middleware.RateLimit(rateLimiter(deps.Redis), cfg.Copilot.ChatRateLimit, cfg.Copilot.ChatRateWindow, logg)
			r.With(limiter).Post("/chat", controllers.Chat(deps.Profiles, deps.Copilot, logg))
		})
	})

	return r
}

// pingerOrNil keeps a typed-nil Redis client from masquerading as a live
// dependency in the readiness probe.
func pingerOrNil(client *redis.Client) controllers.Pinger {
	if client == nil {
		return nil
	}
	return client
}

func idempotencyStore(client *redis.Client) redis.IdempotencyStore {
	if client == nil {
		return nil
	}
	return client
}

func rateLimiter(client *redis.Client) middleware.RateLimiter {
	if client == nil {
		return nil
	}
	return client
}
