// Package config loads the bot configuration from environment variables.
// envconfig maps the variables onto the Config struct fields.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds ALL application settings.
type Config struct {
	// --- WhatsApp ---
	// Admin phone numbers (the user part of the JID, e.g. "628123456789"),
	// comma separated. Admins may run resetdaily for other users.
	AdminJIDsRaw string   `envconfig:"ADMIN_JIDS" required:"true"`
	AdminJIDs    []string `envconfig:"-"`
	// Group the bot serves. Commands outside this group or member DMs are ignored.
	GroupJID string `envconfig:"GROUP_JID" required:"true"`
	// Device name shown in the linked-devices list on the phone.
	WADeviceName string `envconfig:"WA_DEVICE_NAME" default:"NoMercy"`

	// --- Database ---
	// Inside Docker "localhost" is almost never right, so the default is the
	// docker-compose service name; override DB_HOST=localhost for local runs.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"nomercy_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	// Canonical timezone for all day-boundary logic.
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Asia/Jakarta"`

	// --- HTTP API ---
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`
	// bcrypt hash of the admin key expected in the X-Admin-Key header
	// on admin routes. Generate with scripts/generate_hash.go.
	AdminKeyHash string `envconfig:"ADMIN_KEY_HASH" required:"true"`

	// --- Bot runtime ---
	// How many messages are processed in parallel. Without a cap a flood of
	// group messages means a goroutine each and memory blowing up.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`

	// --- Accounts ---
	AccountStartingBalance int64 `envconfig:"ACCOUNT_STARTING_BALANCE" default:"0"`
	AccountStartingChips   int64 `envconfig:"ACCOUNT_STARTING_CHIPS" default:"0"`
	// Daily command quota for basic accounts. Premium accounts get the
	// unlimited sentinel (-1).
	AccountCommandLimit int `envconfig:"ACCOUNT_COMMAND_LIMIT" default:"25"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureDailyLoginEnabled bool `envconfig:"FEATURE_DAILY_LOGIN_ENABLED" default:"true"`
	FeatureWebAPIEnabled     bool `envconfig:"FEATURE_WEB_API_ENABLED" default:"true"`
}

// DatabaseDSN returns the PostgreSQL connection string in DSN form.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.GroupJID == "" {
		return fmt.Errorf("GROUP_JID is not set")
	}
	if len(c.AdminJIDs) == 0 {
		return fmt.Errorf("ADMIN_JIDS is empty")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT must be > 0")
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT out of range")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("invalid DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.AccountCommandLimit <= 0 {
		return fmt.Errorf("ACCOUNT_COMMAND_LIMIT must be > 0")
	}
	return nil
}

// IsAdmin reports whether the phone number belongs to a configured admin.
func (c *Config) IsAdmin(user string) bool {
	for _, jid := range c.AdminJIDs {
		if jid == user {
			return true
		}
	}
	return false
}

// Load reads the environment variables and fills the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.AdminJIDs = parseCSV(cfg.AdminJIDsRaw)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
