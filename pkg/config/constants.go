package config

// EnvPrefix is passed to envconfig; every field carries an explicit envconfig tag so the
// prefix only matters for fields that do not.
const EnvPrefix = "INFLUENCE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                = "INFLUENCE_APP_ENV"
	EnvPort                  = "INFLUENCE_APP_PORT"
	EnvRedisURL              = "INFLUENCE_REDIS_URL"
	EnvRedisAddr             = "INFLUENCE_REDIS_ADDR"
	EnvSessionTTL            = "INFLUENCE_SESSION_TTL"
	EnvIdentitySecret        = "INFLUENCE_IDENTITY_ASSERTION_SECRET"
	EnvIdentityIssuer        = "INFLUENCE_IDENTITY_ISSUER"
	EnvBackendURL            = "INFLUENCE_BACKEND_URL"
	EnvBackendCanisterID     = "INFLUENCE_BACKEND_CANISTER_ID"
	EnvBackendDelegationKey  = "INFLUENCE_BACKEND_DELEGATION_SECRET"
	EnvBackendDelegationTTL  = "INFLUENCE_BACKEND_DELEGATION_TTL"
	EnvCORSAllowedOrigins    = "INFLUENCE_CORS_ALLOWED_ORIGINS"
	EnvRateLimitLoginIPLimit = "INFLUENCE_RATE_LIMIT_LOGIN_IP_LIMIT"
)
