// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix of every environment key, e.g. ALOHA_PORT.
const Prefix = "ALOHA"

// Config holds runtime configuration for the server.
type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	DBPath    string `envconfig:"DB_PATH" default:"aloha.db"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`

	JWTSecret         string        `envconfig:"JWT_SECRET"`
	JWTTTL            time.Duration `envconfig:"JWT_TTL" default:"12h"`
	AdminEmail        string        `envconfig:"ADMIN_EMAIL"`
	AdminPasswordHash string        `envconfig:"ADMIN_PASSWORD_HASH"`
	LoginRateLimit    int           `envconfig:"LOGIN_RATE_LIMIT" default:"10"`

	GotenbergURL string `envconfig:"GOTENBERG_URL"`
	RedisAddr    string `envconfig:"REDIS_ADDR"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"aloha"`
	AMQPQueue    string `envconfig:"AMQP_QUEUE" default:"birthday_alerts"`

	ResendAPIKey string   `envconfig:"RESEND_API_KEY"`
	MailFrom     string   `envconfig:"MAIL_FROM"`
	MailTo       []string `envconfig:"MAIL_TO"`

	BirthdayCheckInterval time.Duration `envconfig:"BIRTHDAY_CHECK_INTERVAL" default:"1h"`
	SeedDemo              bool          `envconfig:"SEED_DEMO" default:"false"`
}

// Load reads the given .env files (".env" when none are named), then
// the environment. Missing .env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return &cfg, nil
}

// LoginEnabled reports whether admin login is configured.
func (c *Config) LoginEnabled() bool {
	return c.AdminEmail != "" && c.AdminPasswordHash != ""
}

// Validate returns every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DBPath == "" {
		problems = append(problems, "database path cannot be empty")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.LoginEnabled() && len(c.JWTSecret) < 16 {
		problems = append(problems, "JWT secret must be at least 16 characters when admin login is enabled")
	}
	if c.JWTTTL <= 0 {
		problems = append(problems, "JWT TTL must be positive")
	}
	if c.LoginRateLimit < 1 {
		problems = append(problems, "login rate limit must be at least 1 request per minute")
	}

	if c.GotenbergURL != "" {
		if u, err := url.Parse(c.GotenbergURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			problems = append(problems, fmt.Sprintf("invalid Gotenberg URL '%s': must be http or https", c.GotenbergURL))
		}
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ResendAPIKey != "" {
		if _, err := mail.ParseAddress(c.MailFrom); err != nil {
			problems = append(problems, fmt.Sprintf("invalid mail sender '%s'", c.MailFrom))
		}
		if len(c.MailTo) == 0 {
			problems = append(problems, "at least one mail recipient is required when Resend is configured")
		}
		for _, to := range c.MailTo {
			if _, err := mail.ParseAddress(to); err != nil {
				problems = append(problems, fmt.Sprintf("invalid mail recipient '%s'", to))
			}
		}
	}

	if c.BirthdayCheckInterval < time.Minute {
		problems = append(problems, "birthday check interval must be at least 1m")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// =============================================================================
// LOGGING
// =============================================================================

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be debug, info, warn or error", s)
	}
	return level, nil
}
