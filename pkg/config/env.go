package config

const (
	EnvPrefix = "STOREPOS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres   = "postgres"
	DriverSQLite     = "sqlite"
	DefaultSQLiteDSN = "file:storepos.db?cache=shared&_foreign_keys=on"

	EnvAppEnv                 = "STOREPOS_APP_ENV"
	EnvPort                   = "STOREPOS_APP_PORT"
	EnvDBDSN                  = "STOREPOS_DB_DSN"
	EnvDBHost                 = "STOREPOS_DB_HOST"
	EnvDBUser                 = "STOREPOS_DB_USER"
	EnvDBName                 = "STOREPOS_DB_NAME"
	EnvRedisURL               = "STOREPOS_REDIS_URL"
	EnvJWTSecret              = "STOREPOS_JWT_SECRET"
	EnvJWTIssuer              = "STOREPOS_JWT_ISSUER"
	EnvJWTExpMins             = "STOREPOS_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "STOREPOS_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite              = "STOREPOS_USE_SQLITE"
	EnvTaxRate                = "STOREPOS_TAX_RATE"
	EnvCartTTL                = "STOREPOS_CART_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
