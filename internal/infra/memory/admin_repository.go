package memory

import (
	"context"
	"sync"
	"time"

	"github.com/testmatestudio/licensing/pkg/domain/admin"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
)

// AdminRepository stores administrator accounts keyed by username.
type AdminRepository struct {
	mu     sync.RWMutex
	admins map[string]*admin.Identity
}

// NewAdminRepository creates an empty in-memory admin repository.
func NewAdminRepository() *AdminRepository {
	return &AdminRepository{admins: make(map[string]*admin.Identity)}
}

// Create persists a new administrator account.
func (r *AdminRepository) Create(_ context.Context, identity *admin.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.admins[identity.Username()]; exists {
		return shared.ErrAlreadyExists
	}
	r.admins[identity.Username()] = identity
	return nil
}

// GetByUsername retrieves an admin by login name.
func (r *AdminRepository) GetByUsername(_ context.Context, username string) (*admin.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.admins[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return identity, nil
}

// SessionRepository stores admin sessions keyed by token hash.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*admin.Session
}

// NewSessionRepository creates an empty in-memory session repository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*admin.Session)}
}

// Create persists a new session. Expired entries are swept on the way in
// so abandoned sessions do not accumulate; there is no background timer.
func (r *SessionRepository) Create(_ context.Context, session *admin.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for hash, s := range r.sessions {
		if s.IsExpiredAt(now) {
			delete(r.sessions, hash)
		}
	}

	r.sessions[session.TokenHash()] = session
	return nil
}

// GetByTokenHash retrieves a session by the token hash.
func (r *SessionRepository) GetByTokenHash(_ context.Context, tokenHash string) (*admin.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[tokenHash]
	if !ok {
		return nil, admin.ErrSessionNotFound
	}
	return session, nil
}

// Delete removes a session.
func (r *SessionRepository) Delete(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tokenHash)
	return nil
}
