package service

import (
	"context"
	"crypto/x509"
	"crypto/x509/pkix"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/gitgate/internal/auth/domain"
	apperrors "github.com/allisson/gitgate/internal/errors"
)

// writeCAFile creates a placeholder CA certificate file for the strategy to load.
func writeCAFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ca.pem")
	err := os.WriteFile(path, []byte("-----BEGIN CERTIFICATE-----\nMIIB\n-----END CERTIFICATE-----\n"), 0o600)
	require.NoError(t, err)
	return path
}

func TestMTLSStrategy_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingCertificate_Refused", func(t *testing.T) {
		strategy := NewMTLSStrategy(MTLSConfig{CACertPath: writeCAFile(t)}, testLogger())

		identity, err := strategy.Verify(ctx, http.Header{}, nil)
		assert.Nil(t, identity)
		assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
	})

	t.Run("MissingCAPath_ConfigurationError", func(t *testing.T) {
		strategy := NewMTLSStrategy(MTLSConfig{}, testLogger())
		cert := &x509.Certificate{Subject: pkix.Name{CommonName: "device-007"}}

		identity, err := strategy.Verify(ctx, http.Header{}, cert)
		assert.Nil(t, identity)
		assert.True(t, apperrors.Is(err, apperrors.ErrConfiguration))
	})

	t.Run("UnreadableCAFile_Refused", func(t *testing.T) {
		strategy := NewMTLSStrategy(
			MTLSConfig{CACertPath: filepath.Join(t.TempDir(), "missing.pem")},
			testLogger(),
		)
		cert := &x509.Certificate{Subject: pkix.Name{CommonName: "device-007"}}

		identity, err := strategy.Verify(ctx, http.Header{}, cert)
		assert.Nil(t, identity)
		assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
	})

	t.Run("EmptyCommonName_Refused", func(t *testing.T) {
		strategy := NewMTLSStrategy(MTLSConfig{CACertPath: writeCAFile(t)}, testLogger())
		cert := &x509.Certificate{Subject: pkix.Name{Organization: []string{"acme"}}}

		identity, err := strategy.Verify(ctx, http.Header{}, cert)
		assert.Nil(t, identity)
		assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
	})

	t.Run("SubjectCommonName_BecomesDeviceID", func(t *testing.T) {
		strategy := NewMTLSStrategy(MTLSConfig{CACertPath: writeCAFile(t)}, testLogger())
		cert := &x509.Certificate{Subject: pkix.Name{CommonName: "device-007"}}

		identity, err := strategy.Verify(ctx, http.Header{}, cert)
		require.NoError(t, err)
		require.NotNil(t, identity)
		assert.Equal(t, "device-007", identity.DeviceID)
		assert.Equal(t, authDomain.MethodMTLS, identity.Method)
		assert.Equal(t, authDomain.DefaultSourceIP, identity.SourceIP)
	})
}
