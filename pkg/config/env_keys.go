package config

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "CANTEEN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "CANTEEN_APP_ENV"
	EnvPort       = "CANTEEN_APP_PORT"
	EnvDBDSN      = "CANTEEN_DB_DSN"
	EnvDBHost     = "CANTEEN_DB_HOST"
	EnvDBUser     = "CANTEEN_DB_USER"
	EnvDBName     = "CANTEEN_DB_NAME"
	EnvRedisURL   = "CANTEEN_REDIS_URL"
	EnvJWTSecret  = "CANTEEN_JWT_SECRET"
	EnvJWTIssuer  = "CANTEEN_JWT_ISSUER"
	EnvJWTExpMins = "CANTEEN_JWT_EXPIRATION_MINUTES"
	EnvTimezone   = "CANTEEN_TIMEZONE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
