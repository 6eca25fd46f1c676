package service

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	authDomain "github.com/allisson/gitgate/internal/auth/domain"
	apperrors "github.com/allisson/gitgate/internal/errors"
)

// JamfConfig holds the Jamf MDM deployment configuration.
// All fields are required once the jamf method is active.
type JamfConfig struct {
	APIURL    string
	APIKey    string
	APISecret string
}

// complete reports whether every required field is set.
func (c JamfConfig) complete() bool {
	return c.APIURL != "" && c.APIKey != "" && c.APISecret != ""
}

// jamfStrategy verifies devices through the Jamf token introspection endpoint.
type jamfStrategy struct {
	cfg    JamfConfig
	client *http.Client
	logger *slog.Logger
}

// NewJamfStrategy creates the Jamf MDM trust strategy.
// A nil client falls back to a default client with a bounded timeout.
func NewJamfStrategy(cfg JamfConfig, client *http.Client, logger *slog.Logger) Strategy {
	return &jamfStrategy{
		cfg:    cfg,
		client: newVerifyClient(client),
		logger: logger,
	}
}

// jamfTokenResponse is the subset of the introspection response the gateway reads.
type jamfTokenResponse struct {
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
	UserID     string `json:"user_id"`
}

// Verify presents the bearer token from X-Jamf-Token to the Jamf token
// introspection endpoint and maps the response to a device identity.
func (s *jamfStrategy) Verify(
	ctx context.Context,
	headers http.Header,
	_ *x509.Certificate,
) (*authDomain.DeviceIdentity, error) {
	token := headers.Get(HeaderJamfToken)
	if token == "" {
		return nil, authDomain.ErrVerificationRefused
	}

	if !s.cfg.complete() {
		return nil, apperrors.Wrap(apperrors.ErrConfiguration, "jamf configuration incomplete")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.APIURL+"/api/v1/auth/tokens", nil)
	if err != nil {
		s.logger.Debug("jamf verification failed: building request", slog.Any("error", err))
		return nil, authDomain.ErrVerificationRefused
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("jamf verification failed: introspection call", slog.Any("error", err))
		return nil, authDomain.ErrVerificationRefused
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Debug("jamf verification refused", slog.Int("status", resp.StatusCode))
		return nil, authDomain.ErrVerificationRefused
	}

	var payload jamfTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		s.logger.Debug("jamf verification failed: decoding response", slog.Any("error", err))
		return nil, authDomain.ErrVerificationRefused
	}

	if payload.DeviceID == "" {
		return nil, authDomain.ErrVerificationRefused
	}

	return &authDomain.DeviceIdentity{
		DeviceID:   payload.DeviceID,
		DeviceName: payload.DeviceName,
		UserID:     payload.UserID,
		Method:     authDomain.MethodJamf,
		SourceIP:   sourceIPFromHeader(headers, HeaderForwardedFor),
		ObservedAt: time.Now().UTC(),
	}, nil
}
