// Package config loads runtime configuration from the environment, with an
// optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.
type Config struct {
	Env         string        // development | production | test
	Port        string        // HTTP port to listen on
	DatabaseURL string        // MySQL DSN
	JWTSecret   string        // HS256 signing secret
	JWTTTL      time.Duration // lifetime of an issued access token
	BcryptCost  int           // bcrypt cost for password hashing

	Enrich    EnrichConfig
	Events    EventsConfig
	Avatars   AvatarConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
}

// EnrichConfig configures the weather, meal and currency lookups. An empty
// key disables the matching lookup.
type EnrichConfig struct {
	WeatherAPIKey   string
	WeatherBaseURL  string
	MealAPIKey      string
	MealBaseURL     string
	CurrencyAPIKey  string
	CurrencyBaseURL string
	BaseCurrency    string
	Timeout         time.Duration
}

// EventsConfig configures the RabbitMQ audit trail. An empty URL disables
// publishing.
type EventsConfig struct {
	RabbitURL       string
	ConsumerEnabled bool
	AuditLogPath    string
}

// AvatarConfig points at the S3-compatible bucket used for avatar uploads.
type AvatarConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Enabled reports whether avatar uploads are configured.
func (a AvatarConfig) Enabled() bool { return a.Bucket != "" }

// Load reads configuration values from the environment. Required variables
// that are missing or malformed are reported together in one error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var errs []error
	must := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("missing required env var: %s", key))
		}
		return v
	}

	ttl, err := ParseTTL(envStr("JWT_EXPIRES_IN", "90d"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err))
	}

	cfg := Config{
		Env:         envStr("APP_ENV", "development"),
		Port:        envStr("APP_PORT", "8080"),
		DatabaseURL: must("DATABASE_URL"),
		JWTSecret:   must("JWT_SECRET"),
		JWTTTL:      ttl,
		BcryptCost:  envInt("BCRYPT_COST", 12),
		Enrich: EnrichConfig{
			WeatherAPIKey:   os.Getenv("WEATHER_API_KEY"),
			WeatherBaseURL:  envStr("WEATHER_BASE_URL", "https://pro.openweathermap.org/data/2.5/forecast/climate"),
			MealAPIKey:      envStr("MEAL_API_KEY", "1"),
			MealBaseURL:     envStr("MEAL_BASE_URL", "https://www.themealdb.com/api/json/v1"),
			CurrencyAPIKey:  os.Getenv("CURRENCY_API_KEY"),
			CurrencyBaseURL: envStr("CURRENCY_BASE_URL", "https://free.currconv.com/api/v7/convert"),
			BaseCurrency:    strings.ToUpper(envStr("BASE_CURRENCY", "USD")),
			Timeout:         envDur("ENRICH_TIMEOUT", 3*time.Second),
		},
		Events: EventsConfig{
			RabbitURL:       os.Getenv("RABBITMQ_URL"),
			ConsumerEnabled: envBool("AUDIT_CONSUMER_ENABLED", false),
			AuditLogPath:    envStr("AUDIT_LOG_PATH", "logs/audit.log"),
		},
		Avatars: AvatarConfig{
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    envStr("S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
		Cache:     LoadCacheConfig(),
		RateLimit: LoadRateLimitConfig(),
		Redis:     LoadRedisConfig(),
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("invalid BCRYPT_COST: %d", cfg.BcryptCost))
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseTTL accepts Go durations ("36h", "15m") and whole days ("90d").
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := time.ParseDuration(days + "h")
		if err != nil {
			return 0, fmt.Errorf("parse %q: %w", s, err)
		}
		if n <= 0 {
			return 0, fmt.Errorf("parse %q: must be positive", s)
		}
		return n * 24, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse %q: must be positive", s)
	}
	return d, nil
}
