// Package usecase implements best-effort audit logging for access decisions.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gitgate/internal/audit/domain"
	auditService "github.com/allisson/gitgate/internal/audit/service"
)

// Repository persists audit records.
type Repository interface {
	Append(ctx context.Context, record *auditDomain.Record) error
}

// Logger records one access decision per terminal pipeline branch.
//
// Log never returns an error: a failure to persist a record must not alter
// or block the primary response.
type Logger interface {
	Log(
		ctx context.Context,
		requestID, deviceID string,
		action auditDomain.Action,
		resource string,
		outcome auditDomain.Outcome,
		metadata map[string]any,
	)
}

// auditLogger implements Logger over a repository, optionally signing records.
type auditLogger struct {
	repo       Repository
	signer     auditService.Signer
	signingKey []byte
	logger     *slog.Logger
}

// NewLogger creates an audit logger. When signingKey is non-empty, every
// record carries an HMAC signature for offline tamper detection.
func NewLogger(
	repo Repository,
	signer auditService.Signer,
	signingKey []byte,
	logger *slog.Logger,
) Logger {
	return &auditLogger{
		repo:       repo,
		signer:     signer,
		signingKey: signingKey,
		logger:     logger,
	}
}

// Log builds and persists one record. Persistence and signing failures are
// swallowed with a warn log.
func (a *auditLogger) Log(
	ctx context.Context,
	requestID, deviceID string,
	action auditDomain.Action,
	resource string,
	outcome auditDomain.Outcome,
	metadata map[string]any,
) {
	record := &auditDomain.Record{
		ID:        uuid.Must(uuid.NewV7()),
		RequestID: requestID,
		DeviceID:  deviceID,
		Action:    action,
		Resource:  resource,
		Outcome:   outcome,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	if len(a.signingKey) > 0 {
		signature, err := a.signer.Sign(a.signingKey, record)
		if err != nil {
			a.logger.Warn("failed to sign audit record", slog.Any("error", err))
		} else {
			record.Signature = signature
		}
	}

	if err := a.repo.Append(ctx, record); err != nil {
		a.logger.Warn("failed to persist audit record",
			slog.String("device_id", deviceID),
			slog.String("action", string(action)),
			slog.Any("error", err),
		)
	}
}
