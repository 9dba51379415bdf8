package config

import (
	"fmt"
	"slices"
	"time"

	pkgconfig "github.com/wonjun/stiky/pkg/config"
	"github.com/wonjun/stiky/pkg/database"
	"github.com/wonjun/stiky/pkg/tracing"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the stiky server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"stiky"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// PostgreSQL
	PostgresHost       string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort       int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser       string        `env:"POSTGRES_USER" envDefault:"stiky"`
	PostgresPass       string        `env:"POSTGRES_PASSWORD" envDefault:"stiky_secret"`
	PostgresDB         string        `env:"POSTGRES_DB" envDefault:"stiky"`
	PostgresSSL        string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns   int32         `env:"POSTGRES_MAX_CONNS" envDefault:"20"`
	PostgresMinConns   int32         `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	SlowQueryThreshold time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT
	JWTSecret        string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTIssuer        string        `env:"JWT_ISSUER" envDefault:"stiky"`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"30m"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_TOKEN_EXPIRY" envDefault:"168h"`

	// Login exchange and OAuth2
	ExchangeCodeTTL    time.Duration `env:"EXCHANGE_CODE_TTL" envDefault:"60s"`
	AuthRequestTTL     time.Duration `env:"OAUTH2_AUTH_REQUEST_TTL" envDefault:"180s"`
	OAuth2RequestStore string        `env:"OAUTH2_REQUEST_STORE" envDefault:"cookie"`
	ClientURL          string        `env:"CLIENT_URL" envDefault:"http://localhost:3000"`
	OAuthBaseURL       string        `env:"OAUTH_BASE_URL" envDefault:"http://localhost:8080"`
	CookieDomain       string        `env:"COOKIE_DOMAIN"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	KakaoClientID      string `env:"KAKAO_CLIENT_ID"`
	KakaoClientSecret  string `env:"KAKAO_CLIENT_SECRET"`
	NaverClientID      string `env:"NAVER_CLIENT_ID"`
	NaverClientSecret  string `env:"NAVER_CLIENT_SECRET"`

	// Refresh cookie
	RefreshCookieSecure   bool   `env:"REFRESH_COOKIE_SECURE" envDefault:"true"`
	RefreshCookieSameSite string `env:"REFRESH_COOKIE_SAME_SITE" envDefault:"strict"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// Observability
	OTELEnabled    bool     `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64  `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
	PprofCIDRs     []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load stiky config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that env tags cannot express.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.JWTAccessExpiry <= 0 || c.JWTRefreshExpiry <= c.JWTAccessExpiry {
		return fmt.Errorf("refresh token expiry (%s) must exceed access token expiry (%s)", c.JWTRefreshExpiry, c.JWTAccessExpiry)
	}
	if c.ExchangeCodeTTL <= 0 || c.AuthRequestTTL <= 0 {
		return fmt.Errorf("exchange code and authorization request TTLs must be positive")
	}
	if !slices.Contains([]string{"cookie", "redis"}, c.OAuth2RequestStore) {
		return fmt.Errorf("OAUTH2_REQUEST_STORE must be cookie or redis, got %q", c.OAuth2RequestStore)
	}
	if !slices.Contains([]string{"strict", "lax", "none"}, c.RefreshCookieSameSite) {
		return fmt.Errorf("REFRESH_COOKIE_SAME_SITE must be strict, lax or none, got %q", c.RefreshCookieSameSite)
	}

	// In non-development environments, require an explicitly set, strong JWT secret.
	if c.Environment != "development" {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
	}

	return nil
}

// Postgres returns the pool configuration.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPass
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSL
	pg.MaxConns = c.PostgresMaxConns
	pg.MinConns = c.PostgresMinConns
	return pg
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	pg := c.Postgres()
	return pg.DSN()
}

// Redis returns the Redis client configuration.
func (c *Config) Redis() database.RedisConfig {
	rc := database.DefaultRedisConfig()
	rc.Host = c.RedisHost
	rc.Port = c.RedisPort
	rc.Password = c.RedisPassword
	rc.DB = c.RedisDB
	return rc
}

// Tracing returns the OpenTelemetry configuration.
func (c *Config) Tracing() tracing.Config {
	tc := tracing.DefaultConfig(c.ServiceName)
	tc.Environment = c.Environment
	tc.OTLPEndpoint = c.OTELEndpoint
	tc.SampleRate = c.OTELSampleRate
	tc.Enabled = c.OTELEnabled
	return tc
}
