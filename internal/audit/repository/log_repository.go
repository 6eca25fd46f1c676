package repository

import (
	"context"
	"log/slog"

	auditDomain "github.com/allisson/gitgate/internal/audit/domain"
)

// LogRepository emits audit records as structured log entries.
// Used when no audit log file is configured.
type LogRepository struct {
	logger *slog.Logger
}

// NewLogRepository creates an audit sink backed by the application logger.
func NewLogRepository(logger *slog.Logger) *LogRepository {
	return &LogRepository{logger: logger}
}

// Append logs the record at info level.
func (r *LogRepository) Append(ctx context.Context, record *auditDomain.Record) error {
	r.logger.InfoContext(ctx, "audit record",
		slog.String("id", record.ID.String()),
		slog.String("request_id", record.RequestID),
		slog.String("device_id", record.DeviceID),
		slog.String("action", string(record.Action)),
		slog.String("resource", record.Resource),
		slog.String("outcome", string(record.Outcome)),
		slog.Any("metadata", record.Metadata),
	)
	return nil
}
