// Package domain defines the audit trail domain models.
// Every terminal decision of the delivery pipeline produces exactly one record.
package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/gitgate/internal/errors"
)

// Action identifies the delivery operation being audited.
type Action string

const (
	// ActionListReleases covers the release listing operation.
	ActionListReleases Action = "list_releases"

	// ActionDownloadAsset covers the asset download operation.
	ActionDownloadAsset Action = "download_asset"
)

// Outcome is the terminal result of a request.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ErrSignatureInvalid indicates a record's signature does not match its content.
var ErrSignatureInvalid = apperrors.New("audit record signature invalid")

// Record captures one access decision. Records are append-only; the optional
// Signature is an HMAC over the canonical record content for offline tamper
// detection.
type Record struct {
	ID        uuid.UUID      `json:"id"`
	RequestID string         `json:"request_id,omitempty"`
	DeviceID  string         `json:"device_id"`
	Action    Action         `json:"action"`
	Resource  string         `json:"resource"`
	Outcome   Outcome        `json:"outcome"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Signature []byte         `json:"signature,omitempty"`
}
