// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"innovation-portal/backend/internal/db"
)

// DefaultJWTSecret is the development signing secret. Load rejects it when
// APP_ENV=production.
const DefaultJWTSecret = "your-secret-key-change-in-production"

// Authorization engines selectable with AUTHZ_ENGINE.
const (
	AuthzEngineStatic = "static"
	AuthzEngineOPA    = "opa"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is a postgres://, postgresql:// or sqlite:// URL.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// AutoMigrate when true makes the server apply migrations up at start.
	AutoMigrate bool `mapstructure:"AUTO_MIGRATE"`

	// JWTSecret is the HS256 signing secret for access and refresh tokens.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// AccessTokenExpiresMin is the access token lifetime in minutes.
	AccessTokenExpiresMin int `mapstructure:"ACCESS_TOKEN_EXPIRES_MIN"`
	// RefreshTokenExpiresDays is the refresh token lifetime in days.
	RefreshTokenExpiresDays int `mapstructure:"REFRESH_TOKEN_EXPIRES_DAYS"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// AuthzEngine selects the role checker: "static" or "opa".
	AuthzEngine string `mapstructure:"AUTHZ_ENGINE"`
	// AuthzPolicyFile is an optional Rego file replacing the built-in role policy. Only read with AUTHZ_ENGINE=opa.
	AuthzPolicyFile string `mapstructure:"AUTHZ_POLICY_FILE"`

	// LogFormat is "json" or "text".
	LogFormat string `mapstructure:"LOG_FORMAT"`
	// LogLevel is a slog level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// OTLPEndpoint is the OTLP gRPC collector address. Empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure disables TLS to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is the OpenTelemetry service.name resource attribute.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// Worker-only: RefreshPurgeInterval is how often expired and revoked refresh tokens are deleted.
	RefreshPurgeInterval time.Duration `mapstructure:"REFRESH_PURGE_INTERVAL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if any field is invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "sqlite://portal.db")
	v.SetDefault("AUTO_MIGRATE", false)
	v.SetDefault("JWT_SECRET", DefaultJWTSecret)
	v.SetDefault("ACCESS_TOKEN_EXPIRES_MIN", 15)
	v.SetDefault("REFRESH_TOKEN_EXPIRES_DAYS", 7)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("AUTHZ_ENGINE", AuthzEngineStatic)
	v.SetDefault("AUTHZ_POLICY_FILE", "")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", true)
	v.SetDefault("OTEL_SERVICE_NAME", "innovation-portal")
	v.SetDefault("REFRESH_PURGE_INTERVAL", "1h")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.GRPCAddr == "" {
		return errors.New("config: GRPC_ADDR must be set")
	}
	if _, _, err := db.ParseURL(c.DatabaseURL); err != nil {
		return fmt.Errorf("config: DATABASE_URL: %w", err)
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET must be set")
	}
	if c.Env == "production" && c.JWTSecret == DefaultJWTSecret {
		return errors.New("config: JWT_SECRET must be changed when APP_ENV=production")
	}
	if c.AccessTokenExpiresMin <= 0 {
		return errors.New("config: ACCESS_TOKEN_EXPIRES_MIN must be positive")
	}
	if c.RefreshTokenExpiresDays <= 0 {
		return errors.New("config: REFRESH_TOKEN_EXPIRES_DAYS must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if c.AuthzEngine != AuthzEngineStatic && c.AuthzEngine != AuthzEngineOPA {
		return fmt.Errorf("config: AUTHZ_ENGINE must be %q or %q, got %q", AuthzEngineStatic, AuthzEngineOPA, c.AuthzEngine)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("config: LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if _, err := c.SlogLevel(); err != nil {
		return fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	if c.RefreshPurgeInterval <= 0 {
		return errors.New("config: REFRESH_PURGE_INTERVAL must be positive")
	}
	return nil
}

// AccessTTL returns the access token lifetime.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenExpiresMin) * time.Minute
}

// RefreshTTL returns the refresh token lifetime.
func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpiresDays) * 24 * time.Hour
}

// DatabaseDialect returns the dialect of DatabaseURL, or "" if it does not parse.
func (c *Config) DatabaseDialect() db.Dialect {
	d, _, err := db.ParseURL(c.DatabaseURL)
	if err != nil {
		return ""
	}
	return d
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}
