package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/domain/usage"
)

// UsageRepository implements usage.Repository using PostgreSQL. The
// check-and-increment is one upsert statement: the ON CONFLICT update
// takes the row lock and re-evaluates the limit against the locked row,
// so concurrent increments can never jointly exceed the ceiling.
type UsageRepository struct {
	db *sql.DB
}

// NewUsageRepository creates a new PostgreSQL usage repository.
func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// IncrementWithinLimit atomically increments the counter unless the
// post-increment count would exceed limit. A negative limit means
// unlimited. The conditional insert covers the limit-zero first-write
// case; the conditional update covers every write after that.
func (r *UsageRepository) IncrementWithinLimit(ctx context.Context, holder string, metric plan.Metric, limit int) (int, error) {
	query := `
		INSERT INTO usage_counters AS u (holder, metric, count)
		SELECT $1, $2, 1 WHERE $3 < 0 OR $3 >= 1
		ON CONFLICT (holder, metric) DO UPDATE
		SET count = u.count + 1, updated_at = NOW()
		WHERE $3 < 0 OR u.count < $3
		RETURNING count`

	var count int
	err := r.db.QueryRowContext(ctx, query, holder, string(metric), limit).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, usage.ErrLimitReached
		}
		return 0, storeErr("usage.increment", err)
	}

	return count, nil
}

// Get returns the current count for a holder and metric.
func (r *UsageRepository) Get(ctx context.Context, holder string, metric plan.Metric) (int, error) {
	query := `SELECT count FROM usage_counters WHERE holder = $1 AND metric = $2`

	var count int
	err := r.db.QueryRowContext(ctx, query, holder, string(metric)).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, storeErr("usage.get", err)
	}

	return count, nil
}

// ListByHolder returns all counters for a holder.
func (r *UsageRepository) ListByHolder(ctx context.Context, holder string) ([]usage.Counter, error) {
	query := `SELECT metric, count FROM usage_counters WHERE holder = $1 ORDER BY metric`

	rows, err := r.db.QueryContext(ctx, query, holder)
	if err != nil {
		return nil, storeErr("usage.list", err)
	}
	defer rows.Close()

	var counters []usage.Counter
	for rows.Next() {
		var (
			metric string
			count  int
		)
		if err := rows.Scan(&metric, &count); err != nil {
			return nil, storeErr("usage.list", err)
		}
		counters = append(counters, usage.Counter{
			Holder: holder,
			Metric: plan.Metric(metric),
			Count:  count,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("usage.list", err)
	}

	return counters, nil
}
