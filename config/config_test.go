package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Port:                  "8080",
		DBPath:                "aloha.db",
		LogLevel:              "info",
		LogFormat:             "text",
		JWTTTL:                time.Hour,
		LoginRateLimit:        10,
		AMQPExchange:          "aloha",
		AMQPQueue:             "birthday_alerts",
		BirthdayCheckInterval: time.Hour,
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "aloha.db", cfg.DBPath)
	assert.Equal(t, 12*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.BirthdayCheckInterval)
	assert.False(t, cfg.SeedDemo)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentAndDotEnv(t *testing.T) {
	// GIVEN: A .env file and an explicit environment variable
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("ALOHA_DB_PATH=/tmp/from-dotenv.db\nALOHA_MAIL_TO=a@x.com,b@x.com\n"), 0o600))
	t.Setenv("ALOHA_PORT", "9090")
	t.Setenv("ALOHA_SEED_DEMO", "true")
	t.Setenv("ALOHA_BIRTHDAY_CHECK_INTERVAL", "30m")
	t.Cleanup(func() {
		os.Unsetenv("ALOHA_DB_PATH")
		os.Unsetenv("ALOHA_MAIL_TO")
	})

	// WHEN: Loading
	cfg, err := Load(envFile)
	require.NoError(t, err)

	// THEN: Both sources are applied
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.DBPath)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, cfg.MailTo)
	assert.True(t, cfg.SeedDemo)
	assert.Equal(t, 30*time.Minute, cfg.BirthdayCheckInterval)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("ALOHA_JWT_TTL", "forever")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Port = "http" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "between 1 and 65535"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "invalid log format"},
		{"short secret", func(c *Config) {
			c.AdminEmail, c.AdminPasswordHash, c.JWTSecret = "admin@x.com", "$2a$10$hash", "short"
		}, "JWT secret"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://rabbit" }, "AMQP URL scheme"},
		{"resend without recipients", func(c *Config) {
			c.ResendAPIKey, c.MailFrom = "re_123", "fondo@x.com"
		}, "mail recipient"},
		{"bad gotenberg", func(c *Config) { c.GotenbergURL = "gotenberg:3000" }, "Gotenberg URL"},
		{"interval too small", func(c *Config) { c.BirthdayCheckInterval = time.Second }, "birthday check interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Port = ""
	cfg.DBPath = ""
	cfg.LogFormat = "xml"

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
	assert.Contains(t, err.Error(), "database path")
	assert.Contains(t, err.Error(), "log format")
}

func TestNewLogger(t *testing.T) {
	cfg := validConfig()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"
	var buf bytes.Buffer

	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "component", "test")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"component":"test"`)
}
