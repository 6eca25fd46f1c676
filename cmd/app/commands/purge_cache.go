package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/gitgate/internal/app"
	"github.com/allisson/gitgate/internal/config"
)

// RunPurgeCache removes physically expired entries from the response cache.
// Live entries are untouched; the gateway can keep running while this runs.
func RunPurgeCache(ctx context.Context, writer io.Writer) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	store, err := container.CacheStore()
	if err != nil {
		return fmt.Errorf("failed to open cache store: %w", err)
	}

	removed, err := store.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}

	logger.Info("cache purge completed",
		slog.String("cache_dir", cfg.CacheDir),
		slog.Int("removed", removed),
	)
	_, _ = fmt.Fprintf(writer, "Removed %d expired cache entries from %s\n", removed, cfg.CacheDir)

	return nil
}
