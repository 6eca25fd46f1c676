// Package usecase implements the release delivery pipeline: cache-first
// lookup of release metadata and assets with upstream fallback.
package usecase

import (
	"context"

	"github.com/allisson/gitgate/internal/release"
)

// CacheStore persists canonical response bytes keyed by resource.
// Get returns ErrNotFound for absent, expired, or corrupt entries.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte) error
	Checksum(ctx context.Context, key string) (string, error)
}

// AssetSigner produces a detached signature over asset bytes.
type AssetSigner interface {
	Sign(payload []byte) (string, error)
}

// ListReleasesOutput is the result of a release list operation.
type ListReleasesOutput struct {
	Releases []release.Release
	Cached   bool
}

// DownloadAssetOutput is the result of an asset download operation.
type DownloadAssetOutput struct {
	Payload []byte
	// Checksum is the hex-encoded SHA-256 of Payload.
	Checksum string
	// Signature is the base64-encoded detached signature of Payload.
	// Empty when no signing key is configured.
	Signature string
	Cached    bool
}

// GatewayUseCase serves release content to authenticated devices.
type GatewayUseCase interface {
	// ListReleases returns the release list for a repository.
	// Returns ErrRepositoryNotFound when the repository has no releases
	// or does not exist upstream.
	ListReleases(ctx context.Context, owner, repo string) (*ListReleasesOutput, error)

	// DownloadAsset returns the bytes of a named release asset.
	// Returns ErrReleaseNotFound, ErrAssetNotFound, or ErrDownloadFailed
	// depending on which stage of resolution failed.
	DownloadAsset(ctx context.Context, owner, repo, version, asset string) (*DownloadAssetOutput, error)
}
