package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/tecnico-console/internal/domain"
)

// Config aggregates runtime configuration for the console.
type Config struct {
	App      AppConfig
	Helpdesk HelpdeskConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Activity ActivityConfig
	Counters CountersConfig
}

// AppConfig controls the console API server.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// HelpdeskConfig describes the upstream helpdesk and the technician session.
type HelpdeskConfig struct {
	BaseURL        string
	Username       string
	Password       string
	SessionCookie  string
	TimeoutSeconds int
	Scope          domain.Scope
}

// RedisConfig holds Redis connection values. An empty Addr keeps counter
// snapshots in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
	File  string
}

// AuthConfig defines console API authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	PasswordHash          string
	BcryptCost            int
}

// ActivityConfig holds the lifecycle event webhook.
type ActivityConfig struct {
	WebhookURL string
}

// CountersConfig controls periodic counter refresh.
type CountersConfig struct {
	RefreshSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	scope, err := domain.ParseScope(getEnv("CONSOLE_SCOPE", string(domain.ScopeAvailable)))
	if err != nil {
		return nil, fmt.Errorf("invalid CONSOLE_SCOPE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "tecnico-console"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "127.0.0.1"),
			Port:                  getEnv("APP_PORT", "8090"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 0),
		},
		Helpdesk: HelpdeskConfig{
			BaseURL:        getEnv("HELPDESK_BASE_URL", "http://127.0.0.1:5000"),
			Username:       os.Getenv("HELPDESK_USERNAME"),
			Password:       os.Getenv("HELPDESK_PASSWORD"),
			SessionCookie:  os.Getenv("HELPDESK_SESSION_COOKIE"),
			TimeoutSeconds: getEnvAsInt("HELPDESK_TIMEOUT_SECONDS", 0),
			Scope:          scope,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", "tecnico.log"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordHash:          os.Getenv("AUTH_PASSWORD_HASH"),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Activity: ActivityConfig{
			WebhookURL: getEnv("ACTIVITY_WEBHOOK_URL", ""),
		},
		Counters: CountersConfig{
			RefreshSeconds: getEnvAsInt("COUNTERS_REFRESH_SECONDS", 0),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the helpdesk transport timeout; zero means none.
func (h HelpdeskConfig) Timeout() time.Duration {
	if h.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// RefreshInterval returns the periodic counter refresh interval; zero disables it.
func (c CountersConfig) RefreshInterval() time.Duration {
	if c.RefreshSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RefreshSeconds) * time.Second
}

// AuthEnabled reports whether the console API requires a bearer token.
func (a AuthConfig) AuthEnabled() bool {
	return a.PasswordHash != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
