package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/allisson/gitgate/internal/errors"
)

// DefaultGitHubBaseURL is the GitHub REST API root.
const DefaultGitHubBaseURL = "https://api.github.com"

// defaultFetchTimeout bounds calls to the release source so a stalled
// upstream cannot hold a gateway request open indefinitely.
const defaultFetchTimeout = 30 * time.Second

// GitHubConfig holds the GitHub release source configuration.
type GitHubConfig struct {
	Token   string
	BaseURL string
}

// githubSource implements Source over the GitHub REST API.
type githubSource struct {
	cfg    GitHubConfig
	client *http.Client
	logger *slog.Logger
}

// NewGitHubSource creates a GitHub-backed release source.
// A nil client falls back to a default client with a bounded timeout.
func NewGitHubSource(cfg GitHubConfig, client *http.Client, logger *slog.Logger) Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGitHubBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &githubSource{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

// newRequest builds an authenticated API request.
func (g *githubSource) newRequest(ctx context.Context, path, accept string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if g.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.Token)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	return req, nil
}

// ListReleases fetches the release list for a repository. Any failure yields
// an empty slice; the pipeline maps empty to "repository not found".
func (g *githubSource) ListReleases(ctx context.Context, owner, repo string) ([]Release, error) {
	path := fmt.Sprintf("/repos/%s/%s/releases", owner, repo)
	req, err := g.newRequest(ctx, path, "application/vnd.github+json")
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build release list request")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Debug("release list fetch failed", slog.Any("error", err))
		return []Release{}, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		g.logger.Debug("release list fetch rejected",
			slog.String("repo", owner+"/"+repo),
			slog.Int("status", resp.StatusCode),
		)
		return []Release{}, nil
	}

	var releases []Release
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		g.logger.Debug("release list decode failed", slog.Any("error", err))
		return []Release{}, nil
	}

	return releases, nil
}

// GetRelease fetches a release by version tag. Missing or unreachable
// releases yield ErrNotFound.
func (g *githubSource) GetRelease(ctx context.Context, owner, repo, version string) (*Release, error) {
	path := fmt.Sprintf("/repos/%s/%s/releases/tags/%s", owner, repo, version)
	req, err := g.newRequest(ctx, path, "application/vnd.github+json")
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build release request")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Debug("release fetch failed", slog.Any("error", err))
		return nil, apperrors.ErrNotFound
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ErrNotFound
	}

	release := &Release{}
	if err := json.NewDecoder(resp.Body).Decode(release); err != nil {
		g.logger.Debug("release decode failed", slog.Any("error", err))
		return nil, apperrors.ErrNotFound
	}

	return release, nil
}

// DownloadAsset fetches the raw bytes of a release asset.
func (g *githubSource) DownloadAsset(ctx context.Context, owner, repo string, assetID int64) ([]byte, error) {
	path := fmt.Sprintf("/repos/%s/%s/releases/assets/%d", owner, repo, assetID)
	req, err := g.newRequest(ctx, path, "application/octet-stream")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUpstream, err.Error())
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUpstream, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Wrapf(apperrors.ErrUpstream, "asset download returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUpstream, err.Error())
	}

	return payload, nil
}
