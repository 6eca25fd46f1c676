// Package service implements the device trust verification strategies and the
// authenticator that dispatches a configured method to the matching strategy.
package service

import (
	"context"
	"crypto/x509"
	"net/http"
	"time"

	authDomain "github.com/allisson/gitgate/internal/auth/domain"
)

// Request headers carrying device trust evidence.
const (
	// HeaderJamfToken carries the Jamf MDM bearer token.
	HeaderJamfToken = "X-Jamf-Token"

	// HeaderTailscaleUser carries the claimed Tailscale user login.
	HeaderTailscaleUser = "X-Tailscale-User"

	// HeaderTailscaleDevice carries the claimed Tailscale device identifier.
	HeaderTailscaleDevice = "X-Tailscale-Device"

	// HeaderTailscaleIP carries the observed Tailscale address of the caller.
	HeaderTailscaleIP = "X-Tailscale-IP"

	// HeaderForwardedFor is the standard proxy-supplied client address header.
	HeaderForwardedFor = "X-Forwarded-For"
)

// defaultVerifyTimeout bounds outbound verification calls so a stalled trust
// service cannot hold a request open indefinitely.
const defaultVerifyTimeout = 10 * time.Second

// Strategy converts request evidence into a device identity or a refusal.
//
// Contract shared by all strategies, evaluated in order:
//  1. Absence of required evidence yields ErrVerificationRefused with zero
//     outbound calls.
//  2. Evidence present but incomplete deployment configuration yields an
//     error wrapping ErrConfiguration (operator fault, not an untrusted caller).
//  3. Any network or parse failure during verification yields
//     ErrVerificationRefused, never a propagated error.
type Strategy interface {
	Verify(ctx context.Context, headers http.Header, cert *x509.Certificate) (*authDomain.DeviceIdentity, error)
}

// Authenticator routes a configured method to the matching strategy.
type Authenticator interface {
	Authenticate(
		ctx context.Context,
		method authDomain.AuthMethod,
		headers http.Header,
		cert *x509.Certificate,
	) (*authDomain.DeviceIdentity, error)
}

// newVerifyClient returns the given client or a default one with a bounded timeout.
func newVerifyClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: defaultVerifyTimeout}
}

// sourceIPFromHeader reads the given header, falling back to the default address.
func sourceIPFromHeader(headers http.Header, name string) string {
	if ip := headers.Get(name); ip != "" {
		return ip
	}
	return authDomain.DefaultSourceIP
}
