package domain

import (
	apperrors "github.com/allisson/gitgate/internal/errors"
)

// Domain errors for device trust verification.
var (
	// ErrUnknownAuthMethod indicates a configured or requested method outside
	// the supported set. Wraps ErrConfiguration since only the operator can
	// introduce an unknown method.
	ErrUnknownAuthMethod = apperrors.Wrap(apperrors.ErrConfiguration, "unknown auth method")

	// ErrVerificationRefused indicates the presented evidence did not prove
	// device trust. Wraps ErrUnauthorized so handlers map it to 401.
	ErrVerificationRefused = apperrors.Wrap(apperrors.ErrUnauthorized, "device verification refused")
)
