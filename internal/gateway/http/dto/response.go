package dto

import (
	"time"

	"github.com/allisson/gitgate/internal/release"
)

// AssetResponse is one downloadable file in a release list response.
type AssetResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// ReleaseResponse is one release in a release list response.
type ReleaseResponse struct {
	ID          int64           `json:"id"`
	TagName     string          `json:"tag_name"`
	Name        string          `json:"name"`
	PublishedAt time.Time       `json:"published_at"`
	Assets      []AssetResponse `json:"assets"`
}

// MapReleasesToResponse converts domain releases to the response representation.
func MapReleasesToResponse(releases []release.Release) []ReleaseResponse {
	response := make([]ReleaseResponse, 0, len(releases))
	for _, rel := range releases {
		assets := make([]AssetResponse, 0, len(rel.Assets))
		for _, asset := range rel.Assets {
			assets = append(assets, AssetResponse{
				ID:   asset.ID,
				Name: asset.Name,
				Size: asset.Size,
			})
		}
		response = append(response, ReleaseResponse{
			ID:          rel.ID,
			TagName:     rel.TagName,
			Name:        rel.Name,
			PublishedAt: rel.PublishedAt,
			Assets:      assets,
		})
	}
	return response
}
