// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/gitgate/internal/validation"
)

// ListReleasesRequest contains the path parameters of a release list request.
type ListReleasesRequest struct {
	Owner string
	Repo  string
}

// Validate checks if the release list request is valid.
func (r *ListReleasesRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Owner, validation.Required, customValidation.OwnerName),
		validation.Field(&r.Repo, validation.Required, customValidation.RepoName),
	)
}

// DownloadAssetRequest contains the path parameters of an asset download request.
type DownloadAssetRequest struct {
	Owner   string
	Repo    string
	Version string
	Asset   string
}

// Validate checks if the asset download request is valid.
func (r *DownloadAssetRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Owner, validation.Required, customValidation.OwnerName),
		validation.Field(&r.Repo, validation.Required, customValidation.RepoName),
		validation.Field(&r.Version, validation.Required, customValidation.VersionTag),
		validation.Field(&r.Asset, validation.Required, customValidation.AssetFileName),
	)
}
