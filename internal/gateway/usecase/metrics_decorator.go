package usecase

import (
	"context"
	"time"

	"github.com/allisson/gitgate/internal/metrics"
)

// gatewayUseCaseWithMetrics decorates GatewayUseCase with metrics instrumentation.
type gatewayUseCaseWithMetrics struct {
	next    GatewayUseCase
	metrics metrics.BusinessMetrics
}

// NewGatewayUseCaseWithMetrics wraps a GatewayUseCase with metrics recording.
func NewGatewayUseCaseWithMetrics(useCase GatewayUseCase, m metrics.BusinessMetrics) GatewayUseCase {
	return &gatewayUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// ListReleases records metrics for release list operations.
func (g *gatewayUseCaseWithMetrics) ListReleases(
	ctx context.Context,
	owner, repo string,
) (*ListReleasesOutput, error) {
	start := time.Now()
	output, err := g.next.ListReleases(ctx, owner, repo)

	status := "success"
	if err != nil {
		status = "error"
	}

	g.metrics.RecordOperation(ctx, "gateway", "list_releases", status)
	g.metrics.RecordDuration(ctx, "gateway", "list_releases", time.Since(start), status)

	return output, err
}

// DownloadAsset records metrics for asset download operations.
func (g *gatewayUseCaseWithMetrics) DownloadAsset(
	ctx context.Context,
	owner, repo, version, asset string,
) (*DownloadAssetOutput, error) {
	start := time.Now()
	output, err := g.next.DownloadAsset(ctx, owner, repo, version, asset)

	status := "success"
	if err != nil {
		status = "error"
	}

	g.metrics.RecordOperation(ctx, "gateway", "download_asset", status)
	g.metrics.RecordDuration(ctx, "gateway", "download_asset", time.Since(start), status)

	return output, err
}
