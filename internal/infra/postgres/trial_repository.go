package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/testmatestudio/licensing/pkg/domain/trial"
)

// TrialRepository implements trial.Repository using PostgreSQL. The
// holder primary key plus ON CONFLICT DO NOTHING gives exactly-once
// activation: of any number of concurrent inserts for one holder, the
// database commits exactly one.
type TrialRepository struct {
	db *sql.DB
}

// NewTrialRepository creates a new PostgreSQL trial repository.
func NewTrialRepository(db *sql.DB) *TrialRepository {
	return &TrialRepository{db: db}
}

// Create records a trial activation, or trial.ErrAlreadyConsumed if the
// holder already used theirs.
func (r *TrialRepository) Create(ctx context.Context, state *trial.State) error {
	query := `
		INSERT INTO trials (holder, started_at, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (holder) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		state.Holder(),
		state.StartedAt(),
		state.ExpiresAt(),
	)
	if err != nil {
		return storeErr("trial.create", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("trial.create", err)
	}
	if rowsAffected == 0 {
		return trial.ErrAlreadyConsumed
	}

	return nil
}

// GetByHolder retrieves the trial state for a holder.
func (r *TrialRepository) GetByHolder(ctx context.Context, holder string) (*trial.State, error) {
	query := `SELECT holder, started_at, expires_at FROM trials WHERE holder = $1`

	var (
		h                    string
		startedAt, expiresAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, holder).Scan(&h, &startedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, trial.ErrNotFound
		}
		return nil, storeErr("trial.get", err)
	}

	return trial.Reconstitute(h, startedAt.Time, expiresAt.Time, true), nil
}

// Count returns the number of recorded trial activations.
func (r *TrialRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trials`).Scan(&count)
	if err != nil {
		return 0, storeErr("trial.count", err)
	}
	return count, nil
}
