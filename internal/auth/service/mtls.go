package service

import (
	"context"
	"crypto/x509"
	"log/slog"
	"net/http"
	"os"
	"time"

	authDomain "github.com/allisson/gitgate/internal/auth/domain"
	apperrors "github.com/allisson/gitgate/internal/errors"
)

// MTLSConfig holds the certificate subject strategy configuration.
// CACertPath is required once the mtls method is active.
type MTLSConfig struct {
	CACertPath string
}

// mtlsStrategy identifies a device by its client certificate subject.
//
// SECURITY: trust is declarative only. The CA certificate is loaded but the
// client certificate chain, signature, and validity period are NOT verified
// here. This strategy is insecure unless the listener performs real
// transport-level client certificate verification.
type mtlsStrategy struct {
	cfg    MTLSConfig
	logger *slog.Logger
}

// NewMTLSStrategy creates the certificate subject trust strategy.
func NewMTLSStrategy(cfg MTLSConfig, logger *slog.Logger) Strategy {
	return &mtlsStrategy{cfg: cfg, logger: logger}
}

// Verify extracts the Subject Common Name from the transport-supplied client
// certificate. The source address is never recoverable from a certificate, so
// it is always recorded as the default.
func (s *mtlsStrategy) Verify(
	ctx context.Context,
	_ http.Header,
	cert *x509.Certificate,
) (*authDomain.DeviceIdentity, error) {
	if cert == nil {
		return nil, authDomain.ErrVerificationRefused
	}

	if s.cfg.CACertPath == "" {
		return nil, apperrors.Wrap(apperrors.ErrConfiguration, "mtls ca certificate path not configured")
	}

	if _, err := os.ReadFile(s.cfg.CACertPath); err != nil {
		s.logger.Debug("mtls verification failed: reading ca certificate", slog.Any("error", err))
		return nil, authDomain.ErrVerificationRefused
	}

	deviceID := cert.Subject.CommonName
	if deviceID == "" {
		return nil, authDomain.ErrVerificationRefused
	}

	return &authDomain.DeviceIdentity{
		DeviceID:   deviceID,
		Method:     authDomain.MethodMTLS,
		SourceIP:   authDomain.DefaultSourceIP,
		ObservedAt: time.Now().UTC(),
	}, nil
}
