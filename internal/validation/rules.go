// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/gitgate/internal/errors"
)

var (
	// ownerRegex matches repository owner names: alphanumerics and single
	// hyphens, never leading or trailing.
	ownerRegex = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9]|-[a-zA-Z0-9]){0,38}$`)

	// repoRegex matches repository names.
	repoRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,100}$`)

	// versionRegex matches release version tags.
	versionRegex = regexp.MustCompile(`^[a-zA-Z0-9._+-]{1,128}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// OwnerName validates a repository owner path parameter.
var OwnerName = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_owner_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if !ownerRegex.MatchString(s) {
		return validation.NewError("validation_owner", "must be a valid repository owner name")
	}
	return nil
})

// RepoName validates a repository name path parameter.
var RepoName = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_repo_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	if s == "." || s == ".." || !repoRegex.MatchString(s) {
		return validation.NewError("validation_repo", "must be a valid repository name")
	}
	return nil
})

// VersionTag validates a release version path parameter.
var VersionTag = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_version_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	if !versionRegex.MatchString(s) {
		return validation.NewError("validation_version", "must be a valid version tag")
	}
	return nil
})

// AssetFileName validates an asset file name path parameter. Path
// separators and traversal segments are rejected so the value is safe to
// embed in cache keys and upstream request paths.
var AssetFileName = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_asset_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	if len(s) > 255 ||
		s == "." || s == ".." ||
		strings.ContainsAny(s, "/\\") ||
		strings.ContainsRune(s, 0) {
		return validation.NewError("validation_asset", "must be a valid asset file name")
	}
	return nil
})
