package config

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	Port        string
	Environment string // development or production

	DatabaseDSN string

	JWTSecret string
	JWTExpiry time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	RedisAddr       string
	RateLimitWindow time.Duration
	RateLimitMax    int
}

// Load reads configuration from the environment, falling back to development
// defaults. SMTP and Redis stay unset by default, which disables mail
// delivery and rate limiting respectively.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("DATABASE_DSN", "host=localhost user=quizdeck password=quizdeck dbname=quizdeck port=5432 sslmode=disable TimeZone=UTC")
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("RATE_LIMIT_MAX", 100)

	return &Config{
		Port:            v.GetString("PORT"),
		Environment:     v.GetString("ENVIRONMENT"),
		DatabaseDSN:     v.GetString("DATABASE_DSN"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTExpiry:       time.Duration(v.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		SMTPHost:        v.GetString("SMTP_HOST"),
		SMTPPort:        v.GetInt("SMTP_PORT"),
		SMTPUser:        v.GetString("SMTP_USER"),
		SMTPPassword:    v.GetString("SMTP_PASSWORD"),
		SMTPFrom:        v.GetString("SMTP_FROM"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RateLimitWindow: v.GetDuration("RATE_LIMIT_WINDOW"),
		RateLimitMax:    v.GetInt("RATE_LIMIT_MAX"),
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	// TranslateError turns driver duplicate-key errors into
	// gorm.ErrDuplicatedKey, which the services rely on.
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// InitRedis returns nil when no address is configured; callers treat a nil
// client as "feature disabled".
func InitRedis(cfg *Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
}
