package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every runtime setting. It is loaded once in main and passed
// into constructors; nothing reads the environment after startup.
type Config struct {
	Port string
	Env  string // "production" or "development"

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	DBSSLMode  string

	// Secret the external scheduler must present to trigger a sweep.
	CronSecret string

	ExtractAPIURL  string
	ExtractAPIKey  string
	ExtractRPS     float64
	ExtractTimeout time.Duration
	ExtractRetries int

	NotifyAPIURL string
	NotifyAPIKey string
	NotifyFrom   string

	IdentityAPIURL string
	IdentityAPIKey string

	// SweepInterval enables the in-process scheduler; zero disables it and
	// leaves the cadence to the external cron hitting the trigger endpoint.
	SweepInterval time.Duration
}

// Load builds the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port: envString("PORT", "8080"),
		Env:  envString("APP_ENV", "development"),

		DBUser:     envString("DB_USER", ""),
		DBPassword: envString("DB_PASSWORD", ""),
		DBHost:     envString("DB_HOST", ""),
		DBPort:     envString("DB_PORT", "5432"),
		DBName:     envString("DB_NAME", ""),
		DBSSLMode:  envString("DB_SSLMODE", "disable"),

		CronSecret: envString("CRON_SECRET", ""),

		ExtractAPIURL:  envString("EXTRACT_API_URL", "https://api.firecrawl.dev/v1/scrape"),
		ExtractAPIKey:  envString("EXTRACT_API_KEY", ""),
		ExtractRPS:     envFloat("EXTRACT_RPS", 2),
		ExtractTimeout: envDuration("EXTRACT_TIMEOUT", 30*time.Second),
		ExtractRetries: envInt("EXTRACT_RETRIES", 2),

		NotifyAPIURL: envString("NOTIFY_API_URL", "https://api.resend.com/emails"),
		NotifyAPIKey: envString("NOTIFY_API_KEY", ""),
		NotifyFrom:   envString("NOTIFY_FROM_EMAIL", ""),

		IdentityAPIURL: envString("IDENTITY_API_URL", ""),
		IdentityAPIKey: envString("IDENTITY_API_KEY", ""),

		SweepInterval: envDuration("SWEEP_INTERVAL", 0),
	}

	if cfg.DBUser == "" || cfg.DBHost == "" || cfg.DBName == "" {
		return nil, errors.New("config: DB_USER/DB_HOST/DB_NAME must be set")
	}
	if cfg.CronSecret == "" {
		return nil, errors.New("config: CRON_SECRET must be set")
	}
	return cfg, nil
}

// DatabaseDSN builds a URL-encoded postgres DSN.
func (c *Config) DatabaseDSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   c.DBHost + ":" + c.DBPort,
		Path:   "/" + c.DBName,
	}
	q := u.Query()
	q.Set("sslmode", c.DBSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
