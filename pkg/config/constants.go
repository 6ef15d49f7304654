package config

const EnvPrefix = "farmpilot"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "FARMPILOT_APP_ENV"
	EnvPort     = "FARMPILOT_APP_PORT"
	EnvDBDSN    = "FARMPILOT_DB_DSN"
	EnvDBHost   = "FARMPILOT_DB_HOST"
	EnvDBUser   = "FARMPILOT_DB_USER"
	EnvDBName   = "FARMPILOT_DB_NAME"
	EnvRedisURL = "FARMPILOT_REDIS_URL"

	EnvJWTSecret = "FARMPILOT_JWT_SECRET"
	EnvJWTIssuer = "FARMPILOT_JWT_ISSUER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
