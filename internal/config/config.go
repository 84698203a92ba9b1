// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// knownWeakSecrets must never be used to sign tokens.
var knownWeakSecrets = map[string]bool{
	"changeme": true,
	"secret":   true,
	"local-dev-secret-for-testing-only-32chars!": true,
}

// Config is the top-level service configuration.
type Config struct {
	Port     string
	Database DatabaseConfig
	Auth     AuthConfig
	Parking  ParkingConfig
	Mail     MailConfig
	Log      LogConfig
	HTTP     HTTPConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // takes precedence over the discrete fields when set
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// AuthConfig holds token and bootstrap settings.
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AdminUsername string
	AdminPassword string
}

// ParkingConfig holds gate and billing settings.
type ParkingConfig struct {
	HourlyRate int64
	TotalSlots int
}

// MailConfig holds outbound SMTP settings. Mail is disabled when Host is empty.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether an SMTP relay is configured.
func (m MailConfig) Enabled() bool {
	return m.Host != ""
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// HTTPConfig holds transport settings.
type HTTPConfig struct {
	AllowedOrigins  []string
	LoginRatePerSec float64
	LoginBurst      int
	MaxBodyBytes    int64
}

// DSN builds a connection string for pgx.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// MigrateURL returns a pgx5:// URL understood by golang-migrate.
func (c DatabaseConfig) MigrateURL() string {
	if c.URL != "" {
		return "pgx5://" + strings.TrimPrefix(strings.TrimPrefix(c.URL, "postgres://"), "postgresql://")
	}
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// Load reads an optional env file, then the process environment, and
// validates the result. A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func fromEnv() (*Config, error) {
	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL: %w", err)
	}
	rate, err := strconv.ParseInt(getEnv("PARKING_HOURLY_RATE", "100"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("PARKING_HOURLY_RATE: %w", err)
	}
	slots, err := strconv.Atoi(getEnv("PARKING_TOTAL_SLOTS", "100"))
	if err != nil {
		return nil, fmt.Errorf("PARKING_TOTAL_SLOTS: %w", err)
	}
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("SMTP_PORT: %w", err)
	}
	loginRate, err := strconv.ParseFloat(getEnv("LOGIN_RATE_PER_SEC", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("LOGIN_RATE_PER_SEC: %w", err)
	}
	loginBurst, err := strconv.Atoi(getEnv("LOGIN_BURST", "5"))
	if err != nil {
		return nil, fmt.Errorf("LOGIN_BURST: %w", err)
	}

	smtpUser := os.Getenv("SMTP_USER")
	return &Config{
		Port: getEnv("PORT", "8080"),
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "parking"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("JWT_SECRET"),
			TokenTTL:      ttl,
			AdminUsername: os.Getenv("ADMIN_USERNAME"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
		Parking: ParkingConfig{
			HourlyRate: rate,
			TotalSlots: slots,
		},
		Mail: MailConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     smtpPort,
			Username: smtpUser,
			Password: os.Getenv("SMTP_PASS"),
			From:     getEnv("SMTP_FROM", smtpUser),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		HTTP: HTTPConfig{
			AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "*")),
			LoginRatePerSec: loginRate,
			LoginBurst:      loginBurst,
			MaxBodyBytes:    1 << 20,
		},
	}, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if knownWeakSecrets[c.Auth.JWTSecret] {
		return fmt.Errorf("JWT_SECRET is a well-known weak secret, generate a new one")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.Parking.HourlyRate < 0 {
		return fmt.Errorf("PARKING_HOURLY_RATE must not be negative")
	}
	if c.Parking.TotalSlots < 1 {
		return fmt.Errorf("PARKING_TOTAL_SLOTS must be at least 1")
	}
	if (c.Auth.AdminUsername == "") != (c.Auth.AdminPassword == "") {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	if c.Mail.Enabled() && c.Mail.From == "" {
		return fmt.Errorf("SMTP_FROM or SMTP_USER is required when SMTP_HOST is set")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
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
