package config

const (
	EnvPrefix = "RENTEASE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "RENTEASE_APP_ENV"
	EnvPort     = "RENTEASE_APP_PORT"
	EnvLogLevel = "RENTEASE_LOG_LEVEL"

	EnvDBDSN  = "RENTEASE_DB_DSN"
	EnvDBHost = "RENTEASE_DB_HOST"
	EnvDBUser = "RENTEASE_DB_USER"
	EnvDBName = "RENTEASE_DB_NAME"

	EnvRedisURL = "RENTEASE_REDIS_URL"

	EnvJWTSecret              = "RENTEASE_JWT_SECRET"
	EnvJWTIssuer              = "RENTEASE_JWT_ISSUER"
	EnvJWTExpMins             = "RENTEASE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "RENTEASE_REFRESH_TOKEN_TTL_MINUTES"

	EnvRentalTaxRate           = "RENTEASE_RENTAL_TAX_RATE"
	EnvRentalSecurityDeposit   = "RENTEASE_RENTAL_SECURITY_DEPOSIT"
	EnvRentalLateFeeDailyRate  = "RENTEASE_RENTAL_LATE_FEE_DAILY_RATE"
	EnvRentalReturnAlertWindow = "RENTEASE_RENTAL_RETURN_ALERT_WINDOW"

	EnvSendgridAPIKey = "RENTEASE_SENDGRID_API_KEY"
)

// dbPartEnvVars are required when no DSN is supplied.
var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
