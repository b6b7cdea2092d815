// Package usage tracks metered consumption per holder identity.
package usage

import (
	"context"
	"errors"

	"github.com/testmatestudio/licensing/pkg/domain/plan"
)

// ErrLimitReached is returned by IncrementWithinLimit when the increment
// would push the counter past the supplied ceiling. The counter is left
// untouched in that case.
var ErrLimitReached = errors.New("usage limit reached")

// Counter is a holder's consumption of one metric. Counters only ever
// increase; period resets are out of scope.
type Counter struct {
	Holder string      `json:"holder"`
	Metric plan.Metric `json:"metric"`
	Count  int         `json:"count"`
}

// Repository defines the interface for usage counter persistence.
//
// IncrementWithinLimit is the concurrency-critical operation: the
// compare-against-limit and the increment are one indivisible step, so two
// concurrent calls can never both pass the check and jointly exceed the
// limit, and no increment is ever lost.
type Repository interface {
	// IncrementWithinLimit atomically increments the counter if the
	// post-increment count would not exceed limit, returning the new
	// count. A limit of plan.Unlimited increments unconditionally.
	// Returns ErrLimitReached (counter unchanged) when the ceiling is hit.
	IncrementWithinLimit(ctx context.Context, holder string, metric plan.Metric, limit int) (int, error)

	// Get returns the current count for a holder and metric (zero if the
	// counter does not exist yet).
	Get(ctx context.Context, holder string, metric plan.Metric) (int, error)

	// ListByHolder returns all counters for a holder.
	ListByHolder(ctx context.Context, holder string) ([]Counter, error)
}
