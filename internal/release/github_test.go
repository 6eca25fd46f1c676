package release

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/gitgate/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSource(t *testing.T, handler http.HandlerFunc) Source {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGitHubSource(GitHubConfig{Token: "ghp-test", BaseURL: server.URL}, server.Client(), testLogger())
}

func TestGitHubSource_ListReleases(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/acme/widgets/releases", r.URL.Path)
			assert.Equal(t, "Bearer ghp-test", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"id":1,"tag_name":"v1.0.0","name":"First","assets":[{"id":11,"name":"tool.bin","size":128}]},
				{"id":2,"tag_name":"v1.1.0","name":"Second","assets":[]}
			]`))
		})

		releases, err := source.ListReleases(ctx, "acme", "widgets")
		require.NoError(t, err)
		require.Len(t, releases, 2)
		assert.Equal(t, "v1.0.0", releases[0].TagName)
		assert.Equal(t, int64(11), releases[0].Assets[0].ID)
	})

	t.Run("RepositoryUnknown_EmptyList", func(t *testing.T) {
		source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		releases, err := source.ListReleases(ctx, "acme", "missing")
		require.NoError(t, err)
		assert.Empty(t, releases)
	})

	t.Run("NetworkFailure_EmptyList", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		client := server.Client()
		server.Close()
		source := NewGitHubSource(GitHubConfig{BaseURL: server.URL}, client, testLogger())

		releases, err := source.ListReleases(ctx, "acme", "widgets")
		require.NoError(t, err)
		assert.Empty(t, releases)
	})
}

func TestGitHubSource_GetRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/acme/widgets/releases/tags/v1.0.0", r.URL.Path)
			_, _ = w.Write([]byte(`{"id":1,"tag_name":"v1.0.0","assets":[{"id":11,"name":"tool.bin"}]}`))
		})

		rel, err := source.GetRelease(ctx, "acme", "widgets", "v1.0.0")
		require.NoError(t, err)
		assert.Equal(t, "v1.0.0", rel.TagName)
		require.Len(t, rel.Assets, 1)
		assert.Equal(t, "tool.bin", rel.Assets[0].Name)
	})

	t.Run("UnknownVersion_NotFound", func(t *testing.T) {
		source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := source.GetRelease(ctx, "acme", "widgets", "v9.9.9")
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})
}

func TestGitHubSource_DownloadAsset(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		payload := []byte{0x7f, 0x45, 0x4c, 0x46}
		source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/acme/widgets/releases/assets/11", r.URL.Path)
			assert.Equal(t, "application/octet-stream", r.Header.Get("Accept"))
			_, _ = w.Write(payload)
		})

		got, err := source.DownloadAsset(ctx, "acme", "widgets", 11)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("TransferFailure_UpstreamError", func(t *testing.T) {
		source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := source.DownloadAsset(ctx, "acme", "widgets", 11)
		assert.True(t, apperrors.Is(err, apperrors.ErrUpstream))
	})
}
