package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"

	apperrors "github.com/allisson/gitgate/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *fakeClock) {
	t.Helper()
	store, err := NewStore(t.TempDir(), ttl, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clock := &fakeClock{now: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
	store.now = clock.Now
	return store, clock
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, time.Minute)

	payload := []byte(`[{"tag_name":"v1.0.0"}]`)
	require.NoError(t, store.Set(ctx, "releases:acme:widgets", payload))

	got, err := store.Get(ctx, "releases:acme:widgets")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	sum := sha256.Sum256(payload)
	checksum, err := store.Checksum(ctx, "releases:acme:widgets")
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(sum[:]), checksum)
}

func TestStore_MissingKey(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, time.Minute)

	_, err := store.Get(ctx, "asset:acme:widgets:v1.0.0:tool.bin")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = store.Checksum(ctx, "asset:acme:widgets:v1.0.0:tool.bin")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestStore_ExpiredEntryIsAbsent(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(t, time.Minute)

	require.NoError(t, store.Set(ctx, "releases:acme:widgets", []byte("payload")))

	clock.Advance(2 * time.Minute)

	_, err := store.Get(ctx, "releases:acme:widgets")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = store.Checksum(ctx, "releases:acme:widgets")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestStore_SetReplacesEntry(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, time.Minute)

	require.NoError(t, store.Set(ctx, "releases:acme:widgets", []byte("old")))
	require.NoError(t, store.Set(ctx, "releases:acme:widgets", []byte("new")))

	got, err := store.Get(ctx, "releases:acme:widgets")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)

	sum := sha256.Sum256([]byte("new"))
	checksum, err := store.Checksum(ctx, "releases:acme:widgets")
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(sum[:]), checksum, "checksum always matches the latest payload")
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewStore(dir, time.Minute, testLogger())
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "releases:acme:widgets", []byte("durable")))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir, time.Minute, testLogger())
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Get(ctx, "releases:acme:widgets")
	require.NoError(t, err)
	assert.Equal(t, []byte("durable"), got)
}

func TestStore_ChecksumMismatchReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, time.Minute)

	// Write an entry whose stored checksum does not match its payload,
	// simulating on-disk corruption.
	w, err := store.bucket.NewWriter(ctx, "asset:acme:widgets:v1:tool.bin", &blob.WriterOptions{
		Metadata: map[string]string{
			metaChecksum:  "deadbeef",
			metaExpiresAt: store.now().Add(time.Minute).Format(time.RFC3339Nano),
		},
	})
	require.NoError(t, err)
	_, err = w.Write([]byte("tampered"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = store.Get(ctx, "asset:acme:widgets:v1:tool.bin")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	// The corrupt entry was dropped entirely.
	_, err = store.Checksum(ctx, "asset:acme:widgets:v1:tool.bin")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestStore_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(t, time.Minute)

	require.NoError(t, store.Set(ctx, "releases:acme:widgets", []byte("a")))
	clock.Advance(2 * time.Minute)
	require.NoError(t, store.Set(ctx, "releases:acme:gadgets", []byte("b")))

	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = store.Get(ctx, "releases:acme:gadgets")
	assert.NoError(t, err, "live entries survive the purge")
}
