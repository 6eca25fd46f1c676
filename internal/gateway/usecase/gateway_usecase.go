package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	gatewayDomain "github.com/allisson/gitgate/internal/gateway/domain"
	"github.com/allisson/gitgate/internal/release"
)

// gatewayUseCase implements GatewayUseCase with a cache-first strategy.
type gatewayUseCase struct {
	cache  CacheStore
	source release.Source
	signer AssetSigner
	logger *slog.Logger
}

// NewGatewayUseCase creates the release delivery pipeline. A nil signer
// disables asset signatures.
func NewGatewayUseCase(
	cache CacheStore,
	source release.Source,
	signer AssetSigner,
	logger *slog.Logger,
) GatewayUseCase {
	return &gatewayUseCase{
		cache:  cache,
		source: source,
		signer: signer,
		logger: logger,
	}
}

// releaseListKey builds the cache key for a repository's release list.
func releaseListKey(owner, repo string) string {
	return fmt.Sprintf("releases:%s:%s", owner, repo)
}

// assetKey builds the cache key for one release asset.
func assetKey(owner, repo, version, asset string) string {
	return fmt.Sprintf("asset:%s:%s:%s:%s", owner, repo, version, asset)
}

// ListReleases serves the release list from cache when a live entry exists,
// otherwise fetches from the source and caches the canonical JSON bytes.
func (g *gatewayUseCase) ListReleases(ctx context.Context, owner, repo string) (*ListReleasesOutput, error) {
	key := releaseListKey(owner, repo)

	if payload, err := g.cache.Get(ctx, key); err == nil {
		var releases []release.Release
		if err := json.Unmarshal(payload, &releases); err == nil {
			return &ListReleasesOutput{Releases: releases, Cached: true}, nil
		}
		g.logger.Warn("discarding undecodable cached release list", slog.String("key", key))
	}

	releases, err := g.source.ListReleases(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	if len(releases) == 0 {
		return nil, gatewayDomain.ErrRepositoryNotFound
	}

	payload, err := json.Marshal(releases)
	if err != nil {
		return nil, err
	}
	if err := g.cache.Set(ctx, key, payload); err != nil {
		g.logger.Warn("failed to cache release list",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}

	return &ListReleasesOutput{Releases: releases, Cached: false}, nil
}

// DownloadAsset serves asset bytes from cache when a live entry exists,
// otherwise resolves the release upstream, downloads the named asset, and
// caches the bytes. The output always carries the payload checksum and,
// when a signer is configured, a detached signature.
func (g *gatewayUseCase) DownloadAsset(
	ctx context.Context,
	owner, repo, version, asset string,
) (*DownloadAssetOutput, error) {
	key := assetKey(owner, repo, version, asset)

	if payload, err := g.cache.Get(ctx, key); err == nil {
		return g.buildDownloadOutput(ctx, key, payload, true)
	}

	rel, err := g.source.GetRelease(ctx, owner, repo, version)
	if err != nil {
		return nil, gatewayDomain.ErrReleaseNotFound
	}

	var match *release.Asset
	for i := range rel.Assets {
		if rel.Assets[i].Name == asset {
			match = &rel.Assets[i]
			break
		}
	}
	if match == nil {
		return nil, gatewayDomain.ErrAssetNotFound
	}

	payload, err := g.source.DownloadAsset(ctx, owner, repo, match.ID)
	if err != nil {
		return nil, gatewayDomain.ErrDownloadFailed
	}

	if err := g.cache.Set(ctx, key, payload); err != nil {
		g.logger.Warn("failed to cache asset",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}

	return g.buildDownloadOutput(ctx, key, payload, false)
}

// buildDownloadOutput attaches checksum and signature to the payload. The
// checksum comes from the cache entry when available so the served value
// matches the stored bytes, with a local recompute as fallback.
func (g *gatewayUseCase) buildDownloadOutput(
	ctx context.Context,
	key string,
	payload []byte,
	cached bool,
) (*DownloadAssetOutput, error) {
	checksum, err := g.cache.Checksum(ctx, key)
	if err != nil {
		digest := sha256.Sum256(payload)
		checksum = hex.EncodeToString(digest[:])
	}

	output := &DownloadAssetOutput{
		Payload:  payload,
		Checksum: checksum,
		Cached:   cached,
	}

	if g.signer != nil {
		signature, err := g.signer.Sign(payload)
		if err != nil {
			g.logger.Warn("failed to sign asset payload",
				slog.String("key", key),
				slog.Any("error", err),
			)
		} else {
			output.Signature = signature
		}
	}

	return output, nil
}
