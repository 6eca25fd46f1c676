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

// DefaultTailscaleDirectoryURL is the coordination service device directory endpoint.
const DefaultTailscaleDirectoryURL = "https://api.tailscale.com/api/v2/devices"

// TailscaleConfig holds the coordination service deployment configuration.
// APIKey is required once the tailscale method is active. DirectoryURL
// defaults to the public Tailscale API and is overridable for tests.
type TailscaleConfig struct {
	APIKey       string
	DirectoryURL string
}

// tailscaleStrategy verifies devices against the coordination service directory.
type tailscaleStrategy struct {
	cfg    TailscaleConfig
	client *http.Client
	logger *slog.Logger
}

// NewTailscaleStrategy creates the coordination service trust strategy.
// A nil client falls back to a default client with a bounded timeout.
func NewTailscaleStrategy(cfg TailscaleConfig, client *http.Client, logger *slog.Logger) Strategy {
	if cfg.DirectoryURL == "" {
		cfg.DirectoryURL = DefaultTailscaleDirectoryURL
	}
	return &tailscaleStrategy{
		cfg:    cfg,
		client: newVerifyClient(client),
		logger: logger,
	}
}

// tailscaleDirectory is the subset of the device directory response the gateway reads.
type tailscaleDirectory struct {
	Devices []tailscaleDevice `json:"devices"`
}

type tailscaleDevice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Verify checks that the claimed device identifier appears in the coordination
// service device directory. The claimed user and device headers are both
// required evidence; the claim is only trusted when the directory confirms it.
func (s *tailscaleStrategy) Verify(
	ctx context.Context,
	headers http.Header,
	_ *x509.Certificate,
) (*authDomain.DeviceIdentity, error) {
	user := headers.Get(HeaderTailscaleUser)
	device := headers.Get(HeaderTailscaleDevice)
	if user == "" || device == "" {
		return nil, authDomain.ErrVerificationRefused
	}

	if s.cfg.APIKey == "" {
		return nil, apperrors.Wrap(apperrors.ErrConfiguration, "tailscale api key not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.DirectoryURL, nil)
	if err != nil {
		s.logger.Debug("tailscale verification failed: building request", slog.Any("error", err))
		return nil, authDomain.ErrVerificationRefused
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("tailscale verification failed: directory call", slog.Any("error", err))
		return nil, authDomain.ErrVerificationRefused
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Debug("tailscale verification refused", slog.Int("status", resp.StatusCode))
		return nil, authDomain.ErrVerificationRefused
	}

	var directory tailscaleDirectory
	if err := json.NewDecoder(resp.Body).Decode(&directory); err != nil {
		s.logger.Debug("tailscale verification failed: decoding directory", slog.Any("error", err))
		return nil, authDomain.ErrVerificationRefused
	}

	for _, d := range directory.Devices {
		if d.ID == device {
			return &authDomain.DeviceIdentity{
				DeviceID:   device,
				DeviceName: d.Name,
				UserID:     user,
				Method:     authDomain.MethodTailscale,
				SourceIP:   sourceIPFromHeader(headers, HeaderTailscaleIP),
				ObservedAt: time.Now().UTC(),
			}, nil
		}
	}

	return nil, authDomain.ErrVerificationRefused
}
