package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Payments PaymentsConfig
	Redis    RedisConfig
	Jobs     JobsConfig
	App      AppConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	Path     string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port               string
	FrontendURL        string
	RateLimitPerMinute int
}

// AuthConfig holds identity provider token settings
type AuthConfig struct {
	IdentityJWTSecret string
	IdentityIssuer    string
}

// PaymentsConfig holds payment processor settings
type PaymentsConfig struct {
	StripeSecretKey    string
	StripeAPIURL       string
	Currency           string
	PlatformFeePercent decimal.Decimal
	CheckoutLockTTL    time.Duration
}

// RedisConfig holds the checkout guard connection. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JobsConfig holds background job schedules. An empty schedule disables the job.
type JobsConfig struct {
	PaymentSyncSchedule string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Env      string
	LogLevel string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	feePercent, err := decimal.NewFromString(getEnv("PLATFORM_FEE_PERCENT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid PLATFORM_FEE_PERCENT: %w", err)
	}

	lockTTL, err := time.ParseDuration(getEnv("CHECKOUT_LOCK_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHECKOUT_LOCK_TTL: %w", err)
	}

	config := &Config{
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "freelance_hub"),
			Path:     getEnv("DB_PATH", "freelance_hub.db"),
		},
		Server: ServerConfig{
			Port:               getEnv("SERVER_PORT", "8080"),
			FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
			RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		},
		Auth: AuthConfig{
			IdentityJWTSecret: getEnv("IDENTITY_JWT_SECRET", ""),
			IdentityIssuer:    getEnv("IDENTITY_ISSUER", ""),
		},
		Payments: PaymentsConfig{
			StripeSecretKey:    getEnv("STRIPE_SECRET_KEY", ""),
			StripeAPIURL:       getEnv("STRIPE_API_URL", "https://api.stripe.com"),
			Currency:           getEnv("PAYMENT_CURRENCY", "usd"),
			PlatformFeePercent: feePercent,
			CheckoutLockTTL:    lockTTL,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Jobs: JobsConfig{
			PaymentSyncSchedule: getEnv("PAYMENT_SYNC_SCHEDULE", "@every 5m"),
		},
		App: AppConfig{
			Env:      getEnv("APP_ENV", "production"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.Auth.IdentityJWTSecret == "" {
		return fmt.Errorf("IDENTITY_JWT_SECRET is required")
	}

	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	fee := c.Payments.PlatformFeePercent
	if fee.IsNegative() || fee.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return fmt.Errorf("PLATFORM_FEE_PERCENT must be in [0, 100), got %s", fee)
	}

	if c.Server.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}

	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
