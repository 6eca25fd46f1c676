// Package release defines the release source collaborator: the upstream
// hosting platform the gateway fetches release metadata and assets from.
package release

import (
	"context"
	"time"
)

// Asset is one downloadable file attached to a release.
type Asset struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Release is a published release of a repository.
type Release struct {
	ID          int64     `json:"id"`
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []Asset   `json:"assets"`
}

// Source fetches release data from the hosting platform.
//
// Contract:
//   - ListReleases returns an empty slice when the repository is unknown or
//     unreachable; the pipeline treats empty as "repository not found".
//   - GetRelease returns ErrNotFound when the version does not exist.
//   - DownloadAsset returns ErrUpstream on any transfer failure.
type Source interface {
	ListReleases(ctx context.Context, owner, repo string) ([]Release, error)
	GetRelease(ctx context.Context, owner, repo, version string) (*Release, error)
	DownloadAsset(ctx context.Context, owner, repo string, assetID int64) ([]byte, error)
}
