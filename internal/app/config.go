package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port string
	DSN  string

	AccessSecret  string
	RefreshSecret string

	PublicBaseURL string
	SMTPHost      string
	SMTPPort      string
	SMTPFrom      string
	SMTPUser      string
	SMTPPassword  string

	// RedisAddr switches the counter/cache store from in-process memory to a
	// shared Redis instance. Empty means memory.
	RedisAddr string

	RateLimitWindow  time.Duration
	RateLimitGeneral int64
	RateLimitLogin   int64
	RateLimitEmail   int64
	TokenSweepEvery  time.Duration
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getEnvInt64(k string, d int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return d
}

func LoadConfig() Config {
	cfg := Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnv("APP_PORT", "8080"),
		DSN:  getEnv("DB_DSN", "host=localhost user=postgres password=postgres dbname=shop port=5432 sslmode=disable"),

		AccessSecret:  getEnv("JWT_SECRET", ""),
		RefreshSecret: getEnv("REFRESH_TOKEN_SECRET", ""),

		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPFrom:      getEnv("SMTP_FROM", ""),
		SMTPUser:      getEnv("SMTP_USER", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		RateLimitWindow:  15 * time.Minute,
		RateLimitGeneral: getEnvInt64("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitLogin:   getEnvInt64("RATE_LIMIT_LOGIN_ATTEMPTS", 5),
		RateLimitEmail:   getEnvInt64("RATE_LIMIT_EMAIL_REQUESTS", 3),
		TokenSweepEvery:  time.Hour,
	}

	// Dev keeps the limiter out of the way, as the system this replaces did.
	if cfg.Env == "dev" {
		cfg.RateLimitGeneral = 10000
		cfg.RateLimitLogin = 1000
		cfg.RateLimitEmail = 100
	}
	return cfg
}
