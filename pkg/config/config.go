package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Weather      WeatherConfig
	LLM          LLMConfig
	Geocode      GeocodeConfig
	Copilot      CopilotConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FARMPILOT_APP_ENV" required:"true"`
	Port         string `envconfig:"FARMPILOT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FARMPILOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FARMPILOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FARMPILOT_DB_DSN"`
	Driver string `envconfig:"FARMPILOT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FARMPILOT_DB_HOST"`
	LegacyPort     int    `envconfig:"FARMPILOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FARMPILOT_DB_USER"`
	LegacyPassword string `envconfig:"FARMPILOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"FARMPILOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"FARMPILOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FARMPILOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FARMPILOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FARMPILOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FARMPILOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FARMPILOT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FARMPILOT_REDIS_ADDR"`
	Password     string        `envconfig:"FARMPILOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"FARMPILOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FARMPILOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FARMPILOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FARMPILOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FARMPILOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FARMPILOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"FARMPILOT_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"FARMPILOT_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FARMPILOT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FARMPILOT_AUTO_MIGRATE" default:"false"`
}

type WeatherConfig struct {
	APIKey       string        `envconfig:"FARMPILOT_WEATHER_API_KEY"`
	BaseURL      string        `envconfig:"FARMPILOT_WEATHER_BASE_URL"`
	ForecastDays int           `envconfig:"FARMPILOT_WEATHER_FORECAST_DAYS" default:"5"`
	CacheTTL     time.Duration `envconfig:"FARMPILOT_WEATHER_CACHE_TTL" default:"30m"`
}

type LLMConfig struct {
	Endpoint string `envconfig:"FARMPILOT_LLM_ENDPOINT"`
	APIKey   string `envconfig:"FARMPILOT_LLM_API_KEY"`
	Model    string `envconfig:"FARMPILOT_LLM_MODEL" default:"gpt-4o-mini"`
}

type GeocodeConfig struct {
	APIKey  string `envconfig:"FARMPILOT_GEOCODE_API_KEY"`
	BaseURL string `envconfig:"FARMPILOT_GEOCODE_BASE_URL"`
}

type CopilotConfig struct {
	ChatRateLimit  int64         `envconfig:"FARMPILOT_COPILOT_CHAT_RATE_LIMIT" default:"20"`
	ChatRateWindow time.Duration `envconfig:"FARMPILOT_COPILOT_CHAT_RATE_WINDOW" default:"1m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
