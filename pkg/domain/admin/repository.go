package admin

import "context"

// Repository defines the interface for admin identity persistence.
type Repository interface {
	// Create persists a new administrator account.
	Create(ctx context.Context, identity *Identity) error

	// GetByUsername retrieves an admin by login name, or
	// shared.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*Identity, error)
}

// SessionRepository defines the interface for admin session persistence.
type SessionRepository interface {
	// Create persists a new session.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session by the token hash, or
	// ErrSessionNotFound.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// Delete removes a session (logout or expiry cleanup).
	Delete(ctx context.Context, tokenHash string) error
}
