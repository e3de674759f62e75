package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sudo-init-do/tgwork/internal/db"
	"github.com/sudo-init-do/tgwork/internal/store"
)

const devSecret = "supersecret"

type Config struct {
	Port     string
	Env      string
	LogLevel string
	AppURL   string

	Store store.Options

	JWTSecret     string
	TokenTTL      time.Duration
	ResetTTL      time.Duration
	AuthRateLimit float64

	RedisAddr    string
	KafkaBrokers []string
	KafkaTopic   string

	Mail Mail
}

// Mail selects and configures the outbound email provider.
type Mail struct {
	Provider     string // smtp or plunk
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	PlunkAPIKey  string
	PlunkFrom    string
	PlunkAPIURL  string
	ReplyTo      string
}

func (c *Config) Development() bool {
	return c.Env == "development"
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "5000"),
		Env:      getEnv("APP_ENV", "production"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		AppURL:   strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		Store: store.Options{
			Driver:    getEnv("STORE_DRIVER", store.DriverPostgres),
			PebbleDir: getEnv("PEBBLE_DIR", "data/users"),
			DB: db.Params{
				URL:      os.Getenv("DATABASE_URL"),
				User:     os.Getenv("DB_USER"),
				Password: os.Getenv("DB_PASSWORD"),
				Host:     getEnv("DB_HOST", "localhost"),
				Port:     getEnv("DB_PORT", "5432"),
				Name:     os.Getenv("DB_NAME"),
			},
		},
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      time.Duration(getInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		ResetTTL:      time.Duration(getInt("PASSWORD_RESET_EXP_MINUTES", 30)) * time.Minute,
		AuthRateLimit: getFloat("AUTH_RATE_LIMIT", 20),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		KafkaBrokers:  splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "tgwork.marketplace"),
		Mail: Mail{
			Provider:     getEnv("MAIL_PROVIDER", "smtp"),
			SMTPHost:     os.Getenv("SMTP_HOST"),
			SMTPPort:     os.Getenv("SMTP_PORT"),
			SMTPUsername: os.Getenv("SMTP_USERNAME"),
			SMTPPassword: os.Getenv("SMTP_PASSWORD"),
			SMTPFrom:     os.Getenv("SMTP_FROM"),
			PlunkAPIKey:  os.Getenv("PLUNK_API_KEY"),
			PlunkFrom:    os.Getenv("PLUNK_FROM"),
			PlunkAPIURL:  getEnv("PLUNK_API_URL", "https://api.useplunk.com/v1/send"),
			ReplyTo:      os.Getenv("MAIL_REPLY_TO"),
		},
	}

	if cfg.JWTSecret == "" {
		if !cfg.Development() {
			return nil, errors.New("JWT_SECRET must be set unless APP_ENV=development")
		}
		cfg.JWTSecret = devSecret
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && v > 0 {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
