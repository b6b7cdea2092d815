package postgres

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
)

// nullTimeValue extracts a time.Time from sql.NullTime, zero if NULL.
func nullTimeValue(nt sql.NullTime) time.Time {
	if nt.Valid {
		return nt.Time
	}
	return time.Time{}
}

// featuresToArray converts feature flags to a text[] parameter.
func featuresToArray(features []plan.Feature) pq.StringArray {
	out := make(pq.StringArray, len(features))
	for i, f := range features {
		out[i] = string(f)
	}
	return out
}

// featuresFromArray converts a scanned text[] back into feature flags.
func featuresFromArray(arr pq.StringArray) []plan.Feature {
	out := make([]plan.Feature, len(arr))
	for i, s := range arr {
		out[i] = plan.Feature(s)
	}
	return out
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// storeErr classifies an unexpected database error as a retryable store
// failure. Callers map expected conditions (no rows, unique violations)
// to domain errors before reaching for this.
func storeErr(op string, err error) error {
	return shared.NewStoreError(op, err)
}
