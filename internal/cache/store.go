// Package cache provides a durable byte cache keyed by composite strings.
// Entries carry a SHA-256 checksum and an expiry; the backing store is a
// gocloud.dev blob bucket on local disk, so entries survive process restarts.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"

	apperrors "github.com/allisson/gitgate/internal/errors"
)

// DefaultTTL is the entry lifetime when none is configured.
const DefaultTTL = 5 * time.Minute

// Blob metadata keys for the integrity checksum and expiry.
const (
	metaChecksum  = "checksum"
	metaExpiresAt = "expires_at"
)

// Store is a byte-oriented cache with per-entry checksums and expiry.
// Entries are immutable once written; Set fully replaces any prior entry.
// Writes for the same key are last-write-wins.
type Store struct {
	bucket *blob.Bucket
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewStore opens (creating if needed) a file-backed cache rooted at dir.
// A non-positive ttl falls back to DefaultTTL.
func NewStore(dir string, ttl time.Duration, logger *slog.Logger) (*Store, error) {
	bucket, err := fileblob.OpenBucket(dir, &fileblob.Options{CreateDir: true})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open cache directory")
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Store{
		bucket: bucket,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Close releases the backing bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}

// Set stores payload under key, computing and durably associating its SHA-256
// checksum and expiry. The write atomically replaces any prior entry.
func (s *Store) Set(ctx context.Context, key string, payload []byte) error {
	sum := sha256.Sum256(payload)

	opts := &blob.WriterOptions{
		ContentType: "application/octet-stream",
		Metadata: map[string]string{
			metaChecksum:  hex.EncodeToString(sum[:]),
			metaExpiresAt: s.now().UTC().Add(s.ttl).Format(time.RFC3339Nano),
		},
	}

	w, err := s.bucket.NewWriter(ctx, key, opts)
	if err != nil {
		return apperrors.Wrap(err, "failed to open cache writer")
	}
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return apperrors.Wrap(err, "failed to write cache entry")
	}
	if err := w.Close(); err != nil {
		return apperrors.Wrap(err, "failed to finalize cache entry")
	}

	return nil
}

// Get returns the payload for key, or ErrNotFound when the entry is absent,
// expired, or fails its integrity check. The returned bytes are always the
// canonical representation given to Set, regardless of key namespace.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	checksum, err := s.liveChecksum(ctx, key)
	if err != nil {
		return nil, err
	}

	payload, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to read cache entry")
	}

	sum := sha256.Sum256(payload)
	if hex.EncodeToString(sum[:]) != checksum {
		s.logger.Warn("cache entry failed integrity check, dropping", slog.String("key", key))
		s.drop(ctx, key)
		return nil, apperrors.ErrNotFound
	}

	return payload, nil
}

// Checksum returns the stored hex SHA-256 for key, or ErrNotFound when the
// entry is absent or expired.
func (s *Store) Checksum(ctx context.Context, key string) (string, error) {
	return s.liveChecksum(ctx, key)
}

// PurgeExpired removes entries whose expiry elapsed and reports how many
// were deleted. Expired entries already read as absent; this reclaims disk.
func (s *Store) PurgeExpired(ctx context.Context) (int, error) {
	purged := 0
	iter := s.bucket.List(nil)
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return purged, apperrors.Wrap(err, "failed to list cache entries")
		}

		attrs, err := s.bucket.Attributes(ctx, obj.Key)
		if err != nil {
			continue
		}
		if !s.expired(attrs.Metadata[metaExpiresAt]) {
			continue
		}
		if err := s.bucket.Delete(ctx, obj.Key); err == nil {
			purged++
		}
	}
	return purged, nil
}

// liveChecksum loads the entry attributes and enforces expiry.
func (s *Store) liveChecksum(ctx context.Context, key string) (string, error) {
	attrs, err := s.bucket.Attributes(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return "", apperrors.ErrNotFound
		}
		return "", apperrors.Wrap(err, "failed to read cache entry attributes")
	}

	if s.expired(attrs.Metadata[metaExpiresAt]) {
		return "", apperrors.ErrNotFound
	}

	checksum := attrs.Metadata[metaChecksum]
	if checksum == "" {
		return "", apperrors.ErrNotFound
	}

	return checksum, nil
}

// expired reports whether the stored expiry is missing, malformed, or in the
// past. An unreadable expiry is treated as expired so bad entries never serve.
func (s *Store) expired(raw string) bool {
	if raw == "" {
		return true
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return true
	}
	return s.now().After(expiresAt)
}

// drop removes a key best-effort.
func (s *Store) drop(ctx context.Context, key string) {
	if err := s.bucket.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to drop cache entry", slog.String("key", key), slog.Any("error", err))
	}
}
