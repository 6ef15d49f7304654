package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/verdantlabs/farmpilot-backend/api/routes"
	"github.com/verdantlabs/farmpilot-backend/internal/copilot"
	"github.com/verdantlabs/farmpilot-backend/internal/profile"
	"github.com/verdantlabs/farmpilot-backend/internal/weather"
	"github.com/verdantlabs/farmpilot-backend/pkg/config"
	"github.com/verdantlabs/farmpilot-backend/pkg/db"
	"github.com/verdantlabs/farmpilot-backend/pkg/docstore"
	"github.com/verdantlabs/farmpilot-backend/pkg/geocode"
	"github.com/verdantlabs/farmpilot-backend/pkg/llm"
	"github.com/verdantlabs/farmpilot-backend/pkg/logger"
	"github.com/verdantlabs/farmpilot-backend/pkg/metrics"
	"github.com/verdantlabs/farmpilot-backend/pkg/migrate"
	"github.com/verdantlabs/farmpilot-backend/pkg/redis"
	"github.com/verdantlabs/farmpilot-backend/pkg/weatherapi"
)

const collaboratorTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	callMetrics := metrics.NewExternalCallMetrics(prometheus.DefaultRegisterer)

	profileService := profile.NewService(docstore.NewStore(dbClient.DB()), logg)

	var weatherService weather.Service
	if cfg.Weather.APIKey != "" {
		opts := []weatherapi.Option{
			weatherapi.WithHTTPClient(metrics.InstrumentedClient("weatherapi", callMetrics, collaboratorTimeout)),
		}
		if cfg.Weather.BaseURL != "" {
			opts = append(opts, weatherapi.WithBaseURL(cfg.Weather.BaseURL))
		}
		provider, err := weatherapi.NewClient(cfg.Weather.APIKey, opts...)
		if err != nil {
			logg.Error(context.Background(), "failed to create weather client", err)
			os.Exit(1)
		}
		weatherService = weather.NewService(provider, redisClient, logg, weather.Options{
			ForecastDays: cfg.Weather.ForecastDays,
			CacheTTL:     cfg.Weather.CacheTTL,
			IsCacheMiss:  redis.IsMiss,
		})
	} else {
		logg.Warn(context.Background(), "weather api key not set, dashboard runs without forecasts")
	}

	var llmClient llm.Client
	if cfg.LLM.APIKey != "" {
		llmClient, err = llm.NewOpenAI(cfg.LLM.Endpoint, cfg.LLM.APIKey,
			llm.WithModel(cfg.LLM.Model),
			llm.WithHTTPClient(metrics.InstrumentedClient("llm", callMetrics, collaboratorTimeout)),
		)
		if err != nil {
			logg.Error(context.Background(), "failed to create llm client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "llm api key not set, copilot serves fallback advice")
	}
	copilotService := copilot.NewService(llmClient, logg)

	geocodeOpts := []geocode.Option{
		geocode.WithHTTPClient(metrics.InstrumentedClient("geocode", callMetrics, collaboratorTimeout)),
	}
	if cfg.Geocode.BaseURL != "" {
		geocodeOpts = append(geocodeOpts, geocode.WithBaseURL(cfg.Geocode.BaseURL))
	}
	if cfg.Geocode.APIKey != "" {
		geocodeOpts = append(geocodeOpts, geocode.WithAPIKey(cfg.Geocode.APIKey))
	}
	geocoder := geocode.NewClient(geocodeOpts...)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			Redis:    redisClient,
			DB:       dbClient,
			Profiles: profileService,
			Weather:  weatherService,
			Copilot:  copilotService,
			Geocoder: geocoder,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
