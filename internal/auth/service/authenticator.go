package service

import (
	"context"
	"crypto/x509"
	"net/http"
	"time"

	authDomain "github.com/allisson/gitgate/internal/auth/domain"
)

// authenticator dispatches the configured method to the matching strategy.
// It owns no state beyond the strategy set and is safe for concurrent use.
type authenticator struct {
	jamf      Strategy
	tailscale Strategy
	mtls      Strategy
}

// NewAuthenticator creates an authenticator over the given strategies.
func NewAuthenticator(jamf, tailscale, mtls Strategy) Authenticator {
	return &authenticator{
		jamf:      jamf,
		tailscale: tailscale,
		mtls:      mtls,
	}
}

// Authenticate routes the method to its strategy. The switch is exhaustive
// over the supported methods; anything else is refused without side effects.
func (a *authenticator) Authenticate(
	ctx context.Context,
	method authDomain.AuthMethod,
	headers http.Header,
	cert *x509.Certificate,
) (*authDomain.DeviceIdentity, error) {
	switch method {
	case authDomain.MethodJamf:
		return a.jamf.Verify(ctx, headers, cert)
	case authDomain.MethodTailscale:
		return a.tailscale.Verify(ctx, headers, cert)
	case authDomain.MethodMTLS:
		return a.mtls.Verify(ctx, headers, cert)
	case authDomain.MethodNone:
		return authDomain.NewSentinelIdentity(time.Now().UTC()), nil
	default:
		return nil, authDomain.ErrVerificationRefused
	}
}
