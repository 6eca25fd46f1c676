// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"

	authDomain "github.com/allisson/gitgate/internal/auth/domain"
	apperrors "github.com/allisson/gitgate/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	// ServerHost is the host address the server will bind to.
	ServerHost string
	// ServerPort is the port number the server will listen on.
	ServerPort int

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// AuthMethod selects the device verification strategy
	// ("jamf", "tailscale", "mtls", "none").
	AuthMethod string

	// JamfAPIURL is the base URL of the Jamf Pro instance.
	JamfAPIURL string
	// JamfAPIKey is the Jamf API client identifier.
	JamfAPIKey string
	// JamfAPISecret is the Jamf API client secret.
	JamfAPISecret string

	// TailscaleAPIKey is the bearer key for the Tailscale device directory.
	TailscaleAPIKey string
	// TailscaleDirectoryURL overrides the device directory endpoint, for tests.
	TailscaleDirectoryURL string

	// MTLSCACertPath is the path to the PEM-encoded CA certificate for mTLS.
	MTLSCACertPath string

	// GitHubToken authenticates release source requests.
	GitHubToken string
	// GitHubBaseURL overrides the release source API root, for tests.
	GitHubBaseURL string

	// CacheDir is the directory backing the durable response cache.
	CacheDir string
	// CacheTTL is the lifetime of a cache entry.
	CacheTTL time.Duration

	// SigningKeyPath is the path to the RSA private key used for asset
	// signatures. Empty disables signing.
	SigningKeyPath string

	// AuditLogPath is the append-only JSONL audit file. Empty logs records
	// through the structured logger instead.
	AuditLogPath string
	// AuditSigningKey derives the HMAC key for audit record signatures.
	// Empty disables record signing.
	AuditSigningKey string

	// RateLimitRequests is the number of requests allowed per device per window.
	RateLimitRequests int
	// RateLimitWindow is the fixed rate limit window.
	RateLimitWindow time.Duration

	// RateLimitIPEnabled indicates whether the pre-authentication per-IP
	// limiter is enabled.
	RateLimitIPEnabled bool
	// RateLimitIPRequestsPerSec is the number of requests allowed per second per IP.
	RateLimitIPRequestsPerSec float64
	// RateLimitIPBurst is the burst size for the per-IP limiter.
	RateLimitIPBurst int

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Server configuration
		ServerHost: env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort: env.GetInt("SERVER_PORT", 8080),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Device verification
		AuthMethod:            env.GetString("AUTH_METHOD", "none"),
		JamfAPIURL:            env.GetString("JAMF_API_URL", ""),
		JamfAPIKey:            env.GetString("JAMF_API_KEY", ""),
		JamfAPISecret:         env.GetString("JAMF_API_SECRET", ""),
		TailscaleAPIKey:       env.GetString("TAILSCALE_API_KEY", ""),
		TailscaleDirectoryURL: env.GetString("TAILSCALE_DIRECTORY_URL", ""),
		MTLSCACertPath:        env.GetString("MTLS_CA_CERT_PATH", ""),

		// Release source
		GitHubToken:   env.GetString("GITHUB_TOKEN", ""),
		GitHubBaseURL: env.GetString("GITHUB_BASE_URL", ""),

		// Cache
		CacheDir: env.GetString("CACHE_DIR", "/var/lib/gitgate/cache"),
		CacheTTL: env.GetDuration("CACHE_TTL_SECONDS", 300, time.Second),

		// Asset signing
		SigningKeyPath: env.GetString("SIGNING_KEY_PATH", ""),

		// Audit trail
		AuditLogPath:    env.GetString("AUDIT_LOG_PATH", ""),
		AuditSigningKey: env.GetString("AUDIT_SIGNING_KEY", ""),

		// Rate Limiting (per verified device)
		RateLimitRequests: env.GetInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   env.GetDuration("RATE_LIMIT_WINDOW_SECONDS", 60, time.Second),

		// Rate Limiting (per source IP, unauthenticated)
		RateLimitIPEnabled:        env.GetBool("RATE_LIMIT_IP_ENABLED", true),
		RateLimitIPRequestsPerSec: env.GetFloat64("RATE_LIMIT_IP_REQUESTS_PER_SEC", 10.0),
		RateLimitIPBurst:          env.GetInt("RATE_LIMIT_IP_BURST", 20),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "gitgate"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// Validate checks the configuration for values that would prevent the
// gateway from starting. Per-method secrets are checked at request time so
// that a misconfigured deployment still refuses requests cleanly, but the
// selected method itself must be known.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.ServerPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.MetricsPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.LogLevel, validation.Required,
			validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.CacheDir, validation.Required),
		validation.Field(&c.CacheTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.RateLimitRequests, validation.Required, validation.Min(1)),
		validation.Field(&c.RateLimitWindow, validation.Required, validation.Min(time.Second)),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrConfiguration, err.Error())
	}

	if _, err := authDomain.ParseAuthMethod(c.AuthMethod); err != nil {
		return err
	}

	return nil
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	case "info", "warn", "error":
		return "release"
	default:
		return "release"
	}
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
