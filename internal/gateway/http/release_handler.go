// Package http provides HTTP handlers for authenticated release delivery.
// Every request walks the same gate: device verification, per-device rate
// limiting, then cache-first content delivery, with one audit record per
// terminal branch.
package http

import (
	"crypto/x509"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/gitgate/internal/audit/domain"
	auditUseCase "github.com/allisson/gitgate/internal/audit/usecase"
	authDomain "github.com/allisson/gitgate/internal/auth/domain"
	authService "github.com/allisson/gitgate/internal/auth/service"
	apperrors "github.com/allisson/gitgate/internal/errors"
	gatewayDomain "github.com/allisson/gitgate/internal/gateway/domain"
	"github.com/allisson/gitgate/internal/gateway/http/dto"
	gatewayUseCase "github.com/allisson/gitgate/internal/gateway/usecase"
	"github.com/allisson/gitgate/internal/httputil"
	customValidation "github.com/allisson/gitgate/internal/validation"
)

// Checksum and signature headers attached to asset downloads.
const (
	HeaderChecksum  = "X-Checksum-SHA256"
	HeaderSignature = "X-Signature-RSA-SHA256"
)

// RateLimiter admits or denies requests per device.
type RateLimiter interface {
	Allow(deviceID string) bool
	Remaining(deviceID string) int
	ResetAt(deviceID string) time.Time
}

// ReleaseHandler handles HTTP requests for release list and asset download
// operations. It coordinates authentication, rate limiting, and audit
// logging with the GatewayUseCase.
type ReleaseHandler struct {
	gatewayUseCase gatewayUseCase.GatewayUseCase
	authenticator  authService.Authenticator
	authMethod     authDomain.AuthMethod
	limiter        RateLimiter
	auditLogger    auditUseCase.Logger
	logger         *slog.Logger
}

// NewReleaseHandler creates a new release handler with required dependencies.
func NewReleaseHandler(
	useCase gatewayUseCase.GatewayUseCase,
	authenticator authService.Authenticator,
	authMethod authDomain.AuthMethod,
	limiter RateLimiter,
	auditLogger auditUseCase.Logger,
	logger *slog.Logger,
) *ReleaseHandler {
	return &ReleaseHandler{
		gatewayUseCase: useCase,
		authenticator:  authenticator,
		authMethod:     authMethod,
		limiter:        limiter,
		auditLogger:    auditLogger,
		logger:         logger,
	}
}

// ListReleasesHandler returns the release list for a repository.
// GET /releases/:owner/:repo - Requires device verification.
func (h *ReleaseHandler) ListReleasesHandler(c *gin.Context) {
	req := dto.ListReleasesRequest{
		Owner: c.Param("owner"),
		Repo:  c.Param("repo"),
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	resource := req.Owner + "/" + req.Repo
	identity, ok := h.gate(c, auditDomain.ActionListReleases, resource)
	if !ok {
		return
	}

	output, err := h.gatewayUseCase.ListReleases(c.Request.Context(), req.Owner, req.Repo)
	if err != nil {
		h.audit(c, identity.DeviceID, auditDomain.ActionListReleases, resource,
			auditDomain.OutcomeFailure, map[string]any{"reason": failureReason(err)})
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.audit(c, identity.DeviceID, auditDomain.ActionListReleases, resource,
		auditDomain.OutcomeSuccess, map[string]any{"cached": output.Cached})
	c.JSON(http.StatusOK, dto.MapReleasesToResponse(output.Releases))
}

// DownloadAssetHandler returns the bytes of a named release asset.
// GET /release/:owner/:repo/:version/:asset - Requires device verification.
// Responses carry X-Checksum-SHA256 and, when signing is configured,
// X-Signature-RSA-SHA256.
func (h *ReleaseHandler) DownloadAssetHandler(c *gin.Context) {
	req := dto.DownloadAssetRequest{
		Owner:   c.Param("owner"),
		Repo:    c.Param("repo"),
		Version: c.Param("version"),
		Asset:   c.Param("asset"),
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	resource := req.Owner + "/" + req.Repo + "/" + req.Version + "/" + req.Asset
	identity, ok := h.gate(c, auditDomain.ActionDownloadAsset, resource)
	if !ok {
		return
	}

	output, err := h.gatewayUseCase.DownloadAsset(
		c.Request.Context(), req.Owner, req.Repo, req.Version, req.Asset)
	if err != nil {
		h.audit(c, identity.DeviceID, auditDomain.ActionDownloadAsset, resource,
			auditDomain.OutcomeFailure, map[string]any{"reason": failureReason(err)})
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.audit(c, identity.DeviceID, auditDomain.ActionDownloadAsset, resource,
		auditDomain.OutcomeSuccess, map[string]any{"cached": output.Cached})

	c.Header(HeaderChecksum, output.Checksum)
	if output.Signature != "" {
		c.Header(HeaderSignature, output.Signature)
	}
	c.Data(http.StatusOK, "application/octet-stream", output.Payload)
}

// gate verifies the device and charges its rate limit window. On failure
// it audits the refusal, writes the error response, and reports !ok.
// Verification and rate limiting always run before any cache or upstream
// access.
func (h *ReleaseHandler) gate(
	c *gin.Context,
	action auditDomain.Action,
	resource string,
) (*authDomain.DeviceIdentity, bool) {
	identity, err := h.authenticator.Authenticate(
		c.Request.Context(), h.authMethod, c.Request.Header, clientCertificate(c))
	if err != nil {
		reason := "unauthorized"
		if apperrors.Is(err, apperrors.ErrConfiguration) {
			reason = "configuration_error"
		}
		h.audit(c, authDomain.UnknownDeviceID, action, resource,
			auditDomain.OutcomeFailure, map[string]any{"reason": reason})
		httputil.HandleErrorGin(c, err, h.logger)
		return nil, false
	}

	allowed := h.limiter.Allow(identity.DeviceID)
	resetAt := h.limiter.ResetAt(identity.DeviceID)
	c.Header("X-RateLimit-Remaining", strconv.Itoa(h.limiter.Remaining(identity.DeviceID)))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

	if !allowed {
		retryAfter := max(int(time.Until(resetAt).Seconds()), 1)
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		h.audit(c, identity.DeviceID, action, resource,
			auditDomain.OutcomeFailure, map[string]any{"reason": "rate_limited"})
		httputil.HandleErrorGin(c, apperrors.ErrRateLimited, h.logger)
		return nil, false
	}

	return identity, true
}

// audit writes one access record with the request ID attached.
func (h *ReleaseHandler) audit(
	c *gin.Context,
	deviceID string,
	action auditDomain.Action,
	resource string,
	outcome auditDomain.Outcome,
	metadata map[string]any,
) {
	h.auditLogger.Log(c.Request.Context(), requestid.Get(c), deviceID,
		action, resource, outcome, metadata)
}

// failureReason maps pipeline errors to audit reason tags.
func failureReason(err error) string {
	switch {
	case apperrors.Is(err, gatewayDomain.ErrRepositoryNotFound):
		return "not_found"
	case apperrors.Is(err, gatewayDomain.ErrReleaseNotFound):
		return "release_not_found"
	case apperrors.Is(err, gatewayDomain.ErrAssetNotFound):
		return "asset_not_found"
	case apperrors.Is(err, gatewayDomain.ErrDownloadFailed):
		return "download_failed"
	default:
		return "internal_error"
	}
}

// clientCertificate extracts the transport-supplied client certificate, if any.
func clientCertificate(c *gin.Context) *x509.Certificate {
	if c.Request.TLS == nil || len(c.Request.TLS.PeerCertificates) == 0 {
		return nil
	}
	return c.Request.TLS.PeerCertificates[0]
}
