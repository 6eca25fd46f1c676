package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/gitgate/internal/errors"
	gatewayDomain "github.com/allisson/gitgate/internal/gateway/domain"
	"github.com/allisson/gitgate/internal/release"
)

// mockCacheStore is a mock implementation of CacheStore for testing.
type mockCacheStore struct {
	mock.Mock
}

func (m *mockCacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockCacheStore) Set(ctx context.Context, key string, payload []byte) error {
	args := m.Called(ctx, key, payload)
	return args.Error(0)
}

func (m *mockCacheStore) Checksum(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// mockSource is a mock implementation of release.Source for testing.
type mockSource struct {
	mock.Mock
}

func (m *mockSource) ListReleases(ctx context.Context, owner, repo string) ([]release.Release, error) {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]release.Release), args.Error(1)
}

func (m *mockSource) GetRelease(ctx context.Context, owner, repo, version string) (*release.Release, error) {
	args := m.Called(ctx, owner, repo, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*release.Release), args.Error(1)
}

func (m *mockSource) DownloadAsset(ctx context.Context, owner, repo string, assetID int64) ([]byte, error) {
	args := m.Called(ctx, owner, repo, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// mockAssetSigner is a mock implementation of AssetSigner for testing.
type mockAssetSigner struct {
	mock.Mock
}

func (m *mockAssetSigner) Sign(payload []byte) (string, error) {
	args := m.Called(payload)
	return args.String(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleReleases() []release.Release {
	return []release.Release{
		{
			ID:      1,
			TagName: "v1.0.0",
			Name:    "First",
			Assets:  []release.Asset{{ID: 11, Name: "tool.bin", Size: 128}},
		},
	}
}

func TestGatewayUseCase_ListReleases(t *testing.T) {
	ctx := context.Background()

	t.Run("CacheHit", func(t *testing.T) {
		mockCache := &mockCacheStore{}
		mockSrc := &mockSource{}

		payload, err := json.Marshal(sampleReleases())
		require.NoError(t, err)
		mockCache.On("Get", ctx, "releases:acme:widgets").Return(payload, nil).Once()

		useCase := NewGatewayUseCase(mockCache, mockSrc, nil, testLogger())
		output, err := useCase.ListReleases(ctx, "acme", "widgets")

		require.NoError(t, err)
		assert.True(t, output.Cached)
		require.Len(t, output.Releases, 1)
		assert.Equal(t, "v1.0.0", output.Releases[0].TagName)
		mockSrc.AssertNotCalled(t, "ListReleases")
		mockCache.AssertExpectations(t)
	})

	t.Run("CacheMiss_FetchesAndCaches", func(t *testing.T) {
		mockCache := &mockCacheStore{}
		mockSrc := &mockSource{}

		releases := sampleReleases()
		payload, err := json.Marshal(releases)
		require.NoError(t, err)

		mockCache.On("Get", ctx, "releases:acme:widgets").Return(nil, apperrors.ErrNotFound).Once()
		mockSrc.On("ListReleases", ctx, "acme", "widgets").Return(releases, nil).Once()
		mockCache.On("Set", ctx, "releases:acme:widgets", payload).Return(nil).Once()

		useCase := NewGatewayUseCase(mockCache, mockSrc, nil, testLogger())
		output, err := useCase.ListReleases(ctx, "acme", "widgets")

		require.NoError(t, err)
		assert.False(t, output.Cached)
		assert.Equal(t, releases, output.Releases)
		mockCache.AssertExpectations(t)
		mockSrc.AssertExpectations(t)
	})

	t.Run("EmptyUpstream_RepositoryNotFound", func(t *testing.T) {
		mockCache := &mockCacheStore{}
		mockSrc := &mockSource{}

		mockCache.On("Get", ctx, "releases:acme:ghost").Return(nil, apperrors.ErrNotFound).Once()
		mockSrc.On("ListReleases", ctx, "acme", "ghost").Return([]release.Release{}, nil).Once()

		useCase := NewGatewayUseCase(mockCache, mockSrc, nil, testLogger())
		_, err := useCase.ListReleases(ctx, "acme", "ghost")

		assert.ErrorIs(t, err, gatewayDomain.ErrRepositoryNotFound)
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("CorruptCachedEntry_FallsBackToUpstream", func(t *testing.T) {
		mockCache := &mockCacheStore{}
		mockSrc := &mockSource{}

		releases := sampleReleases()
		mockCache.On("Get", ctx, "releases:acme:widgets").Return([]byte("{not json"), nil).Once()
		mockSrc.On("ListReleases", ctx, "acme", "widgets").Return(releases, nil).Once()
		mockCache.On("Set", ctx, "releases:acme:widgets", mock.Anything).Return(nil).Once()

		useCase := NewGatewayUseCase(mockCache, mockSrc, nil, testLogger())
		output, err := useCase.ListReleases(ctx, "acme", "widgets")

		require.NoError(t, err)
		assert.False(t, output.Cached)
		mockSrc.AssertExpectations(t)
	})

	t.Run("CacheWriteFailureDoesNotFailRequest", func(t *testing.T) {
		mockCache := &mockCacheStore{}
		mockSrc := &mockSource{}

		mockCache.On("Get", ctx, "releases:acme:widgets").Return(nil, apperrors.ErrNotFound).Once()
		mockSrc.On("ListReleases", ctx, "acme", "widgets").Return(sampleReleases(), nil).Once()
		mockCache.On("Set", ctx, "releases:acme:widgets", mock.Anything).
			Return(errors.New("disk full")).Once()

		useCase := NewGatewayUseCase(mockCache, mockSrc, nil, testLogger())
		output, err := useCase.ListReleases(ctx, "acme", "widgets")

		require.NoError(t, err)
		assert.False(t, output.Cached)
	})
}

func TestGatewayUseCase_DownloadAsset(t *testing.T) {
	ctx := context.Background()
	key := "asset:acme:widgets:v1.0.0:tool.bin"

	t.Run("CacheHit_WithSignature", func(t *testing.T) {
		mockCache := &mockCacheStore{}
		mockSrc := &mockSource{}
		mockSigner := &mockAssetSigner{}

		payload := []byte("asset-bytes")
		mockCache.On("Get", ctx, key).Return(payload, nil).Once()
		mockCache.On("Checksum", ctx, key).Return("abc123", nil).Once()
		mockSigner.On("Sign", payload).Return("c2lnbmF0dXJl", nil).Once()

		useCase := NewGatewayUseCase(mockCache, mockSrc, mockSigner, testLogger())
		output, err := useCase.DownloadAsset(ctx, "acme", "widgets", "v1.0.0", "tool.bin")

		require.NoError(t, err)
		assert.True(t, output.Cached)
		assert.Equal(t, payload, output.Payload)
		assert.Equal(t, "abc123", output.Checksum)
		assert.Equal(t, "c2lnbmF0dXJl", output.Signature)
		mockSrc.AssertNotCalled(t, "GetRelease")
	})

	t.Run("CacheMiss_ResolvesAndCaches", func(t *testing.T) {
		mockCache := &mockCacheStore{}
		mockSrc := &mockSource{}

		payload := []byte{0x7f, 0x45, 0x4c, 0x46}
		digest := sha256.Sum256(payload)
		rel := &sampleReleases()[0]

		mockCache.On("Get", ctx, key).Return(nil, apperrors.ErrNotFound).Once()
		mockSrc.On("GetRelease", ctx, "acme", "widgets", "v1.0.0").Return(rel, nil).Once()
		mockSrc.On("DownloadAsset", ctx, "acme", "widgets", int64(11)).Return(payload, nil).Once()
		mockCache.On("Set", ctx, key, payload).Return(nil).Once()
		mockCache.On("Checksum", ctx, key).Return("", apperrors.ErrNotFound).Once()

		useCase := NewGatewayUseCase(mockCache, mockSrc, nil, testLogger())
		output, err := useCase.DownloadAsset(ctx, "acme", "widgets", "v1.0.0", "tool.bin")

		require.NoError(t, err)
		assert.False(t, output.Cached)
		assert.Equal(t, payload, output.Payload)
		assert.Equal(t, hex.EncodeToString(digest[:]), output.Checksum)
		assert.Empty(t, output.Signature, "no signature without a signer")
		mockCache.AssertExpectations(t)
		mockSrc.AssertExpectations(t)
	})

	t.Run("UnknownVersion_ReleaseNotFound", func(t *testing.T) {
		mockCache := &mockCacheStore{}
		mockSrc := &mockSource{}

		mockCache.On("Get", ctx, "asset:acme:widgets:v9.9.9:tool.bin").
			Return(nil, apperrors.ErrNotFound).Once()
		mockSrc.On("GetRelease", ctx, "acme", "widgets", "v9.9.9").
			Return(nil, apperrors.ErrNotFound).Once()

		useCase := NewGatewayUseCase(mockCache, mockSrc, nil, testLogger())
		_, err := useCase.DownloadAsset(ctx, "acme", "widgets", "v9.9.9", "tool.bin")

		assert.ErrorIs(t, err, gatewayDomain.ErrReleaseNotFound)
	})

	t.Run("UnknownAssetName_AssetNotFound", func(t *testing.T) {
		mockCache := &mockCacheStore{}
		mockSrc := &mockSource{}

		mockCache.On("Get", ctx, "asset:acme:widgets:v1.0.0:missing.bin").
			Return(nil, apperrors.ErrNotFound).Once()
		mockSrc.On("GetRelease", ctx, "acme", "widgets", "v1.0.0").
			Return(&sampleReleases()[0], nil).Once()

		useCase := NewGatewayUseCase(mockCache, mockSrc, nil, testLogger())
		_, err := useCase.DownloadAsset(ctx, "acme", "widgets", "v1.0.0", "missing.bin")

		assert.ErrorIs(t, err, gatewayDomain.ErrAssetNotFound)
		mockSrc.AssertNotCalled(t, "DownloadAsset")
	})

	t.Run("TransferFailure_DownloadFailed", func(t *testing.T) {
		mockCache := &mockCacheStore{}
		mockSrc := &mockSource{}

		mockCache.On("Get", ctx, key).Return(nil, apperrors.ErrNotFound).Once()
		mockSrc.On("GetRelease", ctx, "acme", "widgets", "v1.0.0").
			Return(&sampleReleases()[0], nil).Once()
		mockSrc.On("DownloadAsset", ctx, "acme", "widgets", int64(11)).
			Return(nil, apperrors.ErrUpstream).Once()

		useCase := NewGatewayUseCase(mockCache, mockSrc, nil, testLogger())
		_, err := useCase.DownloadAsset(ctx, "acme", "widgets", "v1.0.0", "tool.bin")

		assert.ErrorIs(t, err, gatewayDomain.ErrDownloadFailed)
		assert.True(t, apperrors.Is(err, apperrors.ErrUpstream))
		mockCache.AssertNotCalled(t, "Set")
	})

	t.Run("SigningFailureOmitsSignature", func(t *testing.T) {
		mockCache := &mockCacheStore{}
		mockSrc := &mockSource{}
		mockSigner := &mockAssetSigner{}

		payload := []byte("asset-bytes")
		mockCache.On("Get", ctx, key).Return(payload, nil).Once()
		mockCache.On("Checksum", ctx, key).Return("abc123", nil).Once()
		mockSigner.On("Sign", payload).Return("", errors.New("key unavailable")).Once()

		useCase := NewGatewayUseCase(mockCache, mockSrc, mockSigner, testLogger())
		output, err := useCase.DownloadAsset(ctx, "acme", "widgets", "v1.0.0", "tool.bin")

		require.NoError(t, err)
		assert.Empty(t, output.Signature)
		assert.Equal(t, "abc123", output.Checksum)
	})
}
