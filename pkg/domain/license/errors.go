package license

import "errors"

// License domain errors. Each failure is surfaced distinctly; the UI
// layer decides user-facing messaging.
var (
	ErrNotFound        = errors.New("license not found")
	ErrExpired         = errors.New("license expired")
	ErrRevoked         = errors.New("license revoked")
	ErrInvalidDuration = errors.New("license duration must be positive")
	ErrInvalidHolder   = errors.New("holder identity is required")
)
