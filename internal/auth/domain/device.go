// Package domain defines device trust domain models.
// A device proves its trust through one of the supported verification methods
// and receives a per-request identity used for rate limiting and auditing.
package domain

import (
	"time"
)

// AuthMethod identifies a device trust verification method.
// Methods are parsed once at configuration load so that an unknown method
// is rejected before the server accepts traffic.
type AuthMethod string

const (
	// MethodJamf verifies a device through the Jamf MDM token introspection endpoint.
	MethodJamf AuthMethod = "jamf"

	// MethodTailscale verifies a device against the Tailscale device directory.
	MethodTailscale AuthMethod = "tailscale"

	// MethodMTLS identifies a device by its client certificate subject.
	MethodMTLS AuthMethod = "mtls"

	// MethodNone accepts every request with a sentinel identity.
	// Intended only for untrusted or local deployments.
	MethodNone AuthMethod = "none"
)

// ParseAuthMethod converts a raw configuration string into an AuthMethod.
// Returns ErrUnknownAuthMethod for anything outside the supported set.
func ParseAuthMethod(raw string) (AuthMethod, error) {
	switch AuthMethod(raw) {
	case MethodJamf, MethodTailscale, MethodMTLS, MethodNone:
		return AuthMethod(raw), nil
	default:
		return "", ErrUnknownAuthMethod
	}
}

const (
	// UnknownDeviceID is the sentinel device identifier used for the "none"
	// method and for audit records of unauthenticated requests.
	UnknownDeviceID = "unknown"

	// DefaultSourceIP is recorded when the request origin cannot be determined.
	DefaultSourceIP = "0.0.0.0"
)

// DeviceIdentity is the authenticated subject of a single request.
// It is constructed fresh by a trust strategy, never persisted, and keys
// both the rate limiter and the audit trail.
type DeviceIdentity struct {
	DeviceID   string
	DeviceName string
	UserID     string
	Method     AuthMethod
	SourceIP   string
	ObservedAt time.Time
}

// NewSentinelIdentity returns the identity handed out by the "none" method.
func NewSentinelIdentity(observedAt time.Time) *DeviceIdentity {
	return &DeviceIdentity{
		DeviceID:   UnknownDeviceID,
		Method:     MethodNone,
		SourceIP:   DefaultSourceIP,
		ObservedAt: observedAt,
	}
}
