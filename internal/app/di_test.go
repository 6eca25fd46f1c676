package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/gitgate/internal/auth/domain"
	"github.com/allisson/gitgate/internal/config"
	apperrors "github.com/allisson/gitgate/internal/errors"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		ServerHost:        "localhost",
		ServerPort:        8080,
		LogLevel:          "error",
		AuthMethod:        "none",
		CacheDir:          t.TempDir(),
		CacheTTL:          5 * time.Minute,
		RateLimitRequests: 60,
		RateLimitWindow:   time.Minute,
		MetricsEnabled:    false,
		MetricsNamespace:  "gitgate",
		MetricsPort:       8081,
	}
}

// TestNewContainer verifies that a new container can be created with a valid configuration.
func TestNewContainer(t *testing.T) {
	cfg := testConfig(t)
	container := NewContainer(cfg)

	require.NotNil(t, container)
	assert.Same(t, cfg, container.Config())
}

// TestContainerLogger verifies that the logger is a singleton.
func TestContainerLogger(t *testing.T) {
	container := NewContainer(testConfig(t))

	logger := container.Logger()
	require.NotNil(t, logger)
	assert.Same(t, logger, container.Logger())
}

// TestContainerHTTPServer verifies the full dependency graph assembles.
func TestContainerHTTPServer(t *testing.T) {
	container := NewContainer(testConfig(t))
	defer func() {
		assert.NoError(t, container.Shutdown(context.Background()))
	}()

	server, err := container.HTTPServer()
	require.NoError(t, err)
	require.NotNil(t, server)

	// Cached on second access
	again, err := container.HTTPServer()
	require.NoError(t, err)
	assert.Same(t, server, again)
}

// TestContainerMetricsDisabled verifies nil provider and server when disabled.
func TestContainerMetricsDisabled(t *testing.T) {
	container := NewContainer(testConfig(t))

	provider, err := container.MetricsProvider()
	require.NoError(t, err)
	assert.Nil(t, provider)

	metricsServer, err := container.MetricsServer()
	require.NoError(t, err)
	assert.Nil(t, metricsServer)

	businessMetrics, err := container.BusinessMetrics()
	require.NoError(t, err)
	assert.NotNil(t, businessMetrics, "no-op recorder when metrics are disabled")
}

// TestContainerMetricsEnabled verifies the metrics stack assembles.
func TestContainerMetricsEnabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsEnabled = true
	container := NewContainer(cfg)
	defer func() {
		assert.NoError(t, container.Shutdown(context.Background()))
	}()

	provider, err := container.MetricsProvider()
	require.NoError(t, err)
	require.NotNil(t, provider)

	metricsServer, err := container.MetricsServer()
	require.NoError(t, err)
	assert.NotNil(t, metricsServer)
}

// TestContainerUnknownAuthMethod verifies initialization fails loudly.
func TestContainerUnknownAuthMethod(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthMethod = "kerberos"
	container := NewContainer(cfg)

	_, err := container.Authenticator()
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConfiguration))

	// The error is sticky across accesses
	_, err = container.HTTPServer()
	require.Error(t, err)
}

// TestContainerAuthMethod verifies method parsing.
func TestContainerAuthMethod(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthMethod = "jamf"
	container := NewContainer(cfg)

	method, err := container.AuthMethod()
	require.NoError(t, err)
	assert.Equal(t, authDomain.MethodJamf, method)
}

// TestContainerAssetSignerMissingKey verifies signing degrades to disabled.
func TestContainerAssetSignerMissingKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.SigningKeyPath = "/nonexistent/key.pem"
	container := NewContainer(cfg)

	assert.Nil(t, container.AssetSigner())
}
