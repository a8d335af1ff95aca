package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Redis     RedisConfig
	Session   SessionConfig
	Identity  IdentityConfig
	Backend   BackendConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"INFLUENCE_APP_ENV" required:"true"`
	Port         string `envconfig:"INFLUENCE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"INFLUENCE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"INFLUENCE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"INFLUENCE_REDIS_URL"`
	Address      string        `envconfig:"INFLUENCE_REDIS_ADDR"`
	Password     string        `envconfig:"INFLUENCE_REDIS_PASSWORD"`
	DB           int           `envconfig:"INFLUENCE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INFLUENCE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INFLUENCE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INFLUENCE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INFLUENCE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INFLUENCE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig controls the browser session cookie that binds a browser to its identity.
type SessionConfig struct {
	CookieName   string        `envconfig:"INFLUENCE_SESSION_COOKIE_NAME" default:"__Host-influence-session"`
	CookieSecure bool          `envconfig:"INFLUENCE_SESSION_COOKIE_SECURE" default:"true"`
	TTL          time.Duration `envconfig:"INFLUENCE_SESSION_TTL" default:"8h"`
	IdleEvict    time.Duration `envconfig:"INFLUENCE_SESSION_IDLE_EVICT" default:"30m"`
	MaxLive      int           `envconfig:"INFLUENCE_SESSION_MAX_LIVE" default:"10000"`
}

// IdentityConfig describes how identity provider assertions are verified.
type IdentityConfig struct {
	Provider        string `envconfig:"INFLUENCE_IDENTITY_PROVIDER" default:"internet-identity"`
	AssertionSecret string `envconfig:"INFLUENCE_IDENTITY_ASSERTION_SECRET" required:"true"`
	Issuer          string `envconfig:"INFLUENCE_IDENTITY_ISSUER" required:"true"`
	Audience        string `envconfig:"INFLUENCE_IDENTITY_AUDIENCE"`
}

// BackendConfig points at the canister gateway that owns all marketplace state.
type BackendConfig struct {
	BaseURL          string        `envconfig:"INFLUENCE_BACKEND_URL" required:"true"`
	CanisterID       string        `envconfig:"INFLUENCE_BACKEND_CANISTER_ID" required:"true"`
	DelegationSecret string        `envconfig:"INFLUENCE_BACKEND_DELEGATION_SECRET" required:"true"`
	DelegationTTL    time.Duration `envconfig:"INFLUENCE_BACKEND_DELEGATION_TTL" default:"5m"`
	Timeout          time.Duration `envconfig:"INFLUENCE_BACKEND_TIMEOUT" default:"30s"`
}

type RateLimitConfig struct {
	LoginWindow       time.Duration `envconfig:"INFLUENCE_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit      int           `envconfig:"INFLUENCE_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LoginSessionLimit int           `envconfig:"INFLUENCE_RATE_LIMIT_LOGIN_SESSION_LIMIT" default:"5"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"INFLUENCE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (c *Config) validate() error {
	if c.Redis.URL == "" && c.Redis.Address == "" {
		return fmt.Errorf("either %s or %s is required", EnvRedisURL, EnvRedisAddr)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvSessionTTL)
	}
	if c.Backend.DelegationTTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvBackendDelegationTTL)
	}
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	return nil
}
