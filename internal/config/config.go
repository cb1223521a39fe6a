// Package config loads application settings from environment variables.
// Every setting has a default except where noted, and Validate fails fast
// on anything the server could not run with.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Upload  UploadConfig
	Pricing PricingConfig
	Profile ProfileConfig
	CRM     CRMConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int `env:"SERVER_RATE_LIMIT" default:"100"`

	// TrustedProxies are CIDRs whose X-Real-IP / X-Forwarded-For are honored.
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES"`
}

// UploadConfig holds client file import settings.
type UploadConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default: 10MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is the number of imports parsed at once (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a request waits for an import slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// ChunkSize is rows processed between cancellation checks (default: 500)
	ChunkSize int `env:"UPLOAD_CHUNK_SIZE" default:"500"`

	// Timeout bounds a single import (default: 2m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"2m"`
}

// PricingConfig points at an optional fee schedule override.
type PricingConfig struct {
	// ScheduleFile is a YAML fee schedule; empty uses the built-in fees.
	ScheduleFile string `env:"PRICING_SCHEDULE_FILE"`
}

// ProfileConfig configures the firm user directory.
type ProfileConfig struct {
	// DatabaseURL is the profile database; empty disables applicant matching.
	DatabaseURL string `env:"PROFILE_DATABASE_URL" envAlt:"DATABASE_URL"`

	MaxConns        int           `env:"PROFILE_DB_MAX_CONNS" default:"4"`
	MinConns        int           `env:"PROFILE_DB_MIN_CONNS" default:"0"`
	MaxConnLifetime time.Duration `env:"PROFILE_DB_MAX_CONN_LIFETIME" default:"1h"`
	QueryTimeout    time.Duration `env:"PROFILE_QUERY_TIMEOUT" default:"3s"`
}

// CRMConfig configures post-checkout contact and confirmation publishing.
type CRMConfig struct {
	// Brokers is a comma-separated Kafka broker list; empty logs events instead.
	Brokers []string `env:"CRM_KAFKA_BROKERS"`

	ContactTopic      string        `env:"CRM_CONTACT_TOPIC" default:"intake.contacts"`
	ConfirmationTopic string        `env:"CRM_CONFIRMATION_TOPIC" default:"intake.order-confirmations"`
	SyncTimeout       time.Duration `env:"CRM_SYNC_TIMEOUT" default:"30s"`
	SyncConcurrency   int           `env:"CRM_SYNC_CONCURRENCY" default:"8"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
