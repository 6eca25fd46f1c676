// Package commands implements the CLI entry points for the gateway.
package commands

import (
	"context"
	"log/slog"

	"github.com/allisson/gitgate/internal/app"
)

// closeContainer shuts down the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}
