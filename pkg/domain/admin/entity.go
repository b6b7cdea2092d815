// Package admin defines administrator identities and their sessions.
package admin

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/testmatestudio/licensing/pkg/domain/shared"
)

// Authentication errors. Login failures deliberately collapse into a
// single error so callers cannot distinguish an unknown user from a wrong
// password (identity enumeration resistance).
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrSessionNotFound      = errors.New("admin session not found")
	ErrSessionExpired       = errors.New("admin session expired")
)

// Identity is an administrator account. Credentials are a salted bcrypt
// hash; there is no long-lived credential beyond it.
type Identity struct {
	id           shared.ID
	username     string
	passwordHash string
	createdAt    time.Time
}

// NewIdentity creates an administrator account from a precomputed hash.
func NewIdentity(username, passwordHash string) (*Identity, error) {
	if username == "" || passwordHash == "" {
		return nil, shared.ErrValidation
	}
	return &Identity{
		id:           shared.NewID(),
		username:     username,
		passwordHash: passwordHash,
		createdAt:    time.Now().UTC(),
	}, nil
}

// ReconstituteIdentity creates an identity from persisted data.
func ReconstituteIdentity(id shared.ID, username, passwordHash string, createdAt time.Time) *Identity {
	return &Identity{id: id, username: username, passwordHash: passwordHash, createdAt: createdAt}
}

// ID returns the admin ID.
func (a *Identity) ID() shared.ID { return a.id }

// Username returns the login name.
func (a *Identity) Username() string { return a.username }

// PasswordHash returns the stored bcrypt hash.
func (a *Identity) PasswordHash() string { return a.passwordHash }

// CreatedAt returns when the account was created.
func (a *Identity) CreatedAt() time.Time { return a.createdAt }

// Session is a short-lived admin session. Only the SHA-256 hash of the
// session token is stored; the plaintext token exists client-side only.
type Session struct {
	tokenHash string
	adminID   shared.ID
	expiresAt time.Time
	createdAt time.Time
}

// NewSession creates a session for an admin from the plaintext token.
func NewSession(adminID shared.ID, token string, duration time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		tokenHash: HashToken(token),
		adminID:   adminID,
		expiresAt: now.Add(duration),
		createdAt: now,
	}
}

// ReconstituteSession creates a session from persisted data.
func ReconstituteSession(tokenHash string, adminID shared.ID, expiresAt, createdAt time.Time) *Session {
	return &Session{tokenHash: tokenHash, adminID: adminID, expiresAt: expiresAt, createdAt: createdAt}
}

// TokenHash returns the SHA-256 hash of the session token.
func (s *Session) TokenHash() string { return s.tokenHash }

// AdminID returns the admin the session belongs to.
func (s *Session) AdminID() shared.ID { return s.adminID }

// ExpiresAt returns when the session expires.
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// IsExpiredAt reports whether the session is expired at the given instant.
func (s *Session) IsExpiredAt(now time.Time) bool {
	return !now.Before(s.expiresAt)
}

// HashToken returns the hex SHA-256 digest of a session token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
