// Package domain defines gateway pipeline outcomes shared by the delivery
// use case and the HTTP layer.
package domain

import (
	apperrors "github.com/allisson/gitgate/internal/errors"
)

// Pipeline outcome errors. Each wraps a base sentinel so the HTTP layer can
// map it to a status code while the audit trail keeps the precise reason.
var (
	// ErrRepositoryNotFound indicates the repository has no releases or
	// does not exist upstream.
	ErrRepositoryNotFound = apperrors.Wrap(apperrors.ErrNotFound, "repository not found")

	// ErrReleaseNotFound indicates the requested version tag does not exist.
	ErrReleaseNotFound = apperrors.Wrap(apperrors.ErrNotFound, "release not found")

	// ErrAssetNotFound indicates the release exists but carries no asset
	// with the requested file name.
	ErrAssetNotFound = apperrors.Wrap(apperrors.ErrNotFound, "asset not found")

	// ErrDownloadFailed indicates the upstream asset transfer failed.
	ErrDownloadFailed = apperrors.Wrap(apperrors.ErrUpstream, "asset download failed")
)
