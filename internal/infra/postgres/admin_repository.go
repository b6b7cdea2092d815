package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/testmatestudio/licensing/pkg/domain/admin"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
)

// AdminRepository implements admin.Repository using PostgreSQL.
type AdminRepository struct {
	db *sql.DB
}

// NewAdminRepository creates a new PostgreSQL admin repository.
func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// Create persists a new administrator account.
func (r *AdminRepository) Create(ctx context.Context, identity *admin.Identity) error {
	query := `
		INSERT INTO admins (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query,
		identity.ID().String(),
		identity.Username(),
		identity.PasswordHash(),
		identity.CreatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return storeErr("admin.create", err)
	}

	return nil
}

// GetByUsername retrieves an admin by login name.
func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*admin.Identity, error) {
	query := `SELECT id, username, password_hash, created_at FROM admins WHERE username = $1`

	var (
		id           uuid.UUID
		name         string
		passwordHash string
		createdAt    time.Time
	)
	err := r.db.QueryRowContext(ctx, query, username).Scan(&id, &name, &passwordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, storeErr("admin.get", err)
	}

	return admin.ReconstituteIdentity(shared.IDFromUUID(id), name, passwordHash, createdAt), nil
}

// SessionRepository implements admin.SessionRepository using PostgreSQL.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new PostgreSQL session repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create persists a new session.
func (r *SessionRepository) Create(ctx context.Context, session *admin.Session) error {
	query := `
		INSERT INTO admin_sessions (token_hash, admin_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query,
		session.TokenHash(),
		session.AdminID().String(),
		session.ExpiresAt(),
		session.CreatedAt(),
	)
	if err != nil {
		return storeErr("session.create", err)
	}

	return nil
}

// GetByTokenHash retrieves a session by the token hash.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*admin.Session, error) {
	query := `SELECT token_hash, admin_id, expires_at, created_at FROM admin_sessions WHERE token_hash = $1`

	var (
		hash                 string
		adminID              uuid.UUID
		expiresAt, createdAt time.Time
	)
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(&hash, &adminID, &expiresAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, admin.ErrSessionNotFound
		}
		return nil, storeErr("session.get", err)
	}

	return admin.ReconstituteSession(hash, shared.IDFromUUID(adminID), expiresAt, createdAt), nil
}

// Delete removes a session.
func (r *SessionRepository) Delete(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return storeErr("session.delete", err)
	}
	return nil
}
