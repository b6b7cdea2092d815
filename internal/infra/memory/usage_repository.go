package memory

import (
	"context"
	"sync"

	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/domain/usage"
)

// UsageRepository keeps per-holder counters in a map. The limit check and
// the increment in IncrementWithinLimit run under one lock, which makes
// the check-and-increment indivisible: concurrent callers serialize on the
// mutex and exactly limit of them can succeed.
type UsageRepository struct {
	mu       sync.RWMutex
	counters map[counterKey]int
}

type counterKey struct {
	holder string
	metric plan.Metric
}

// NewUsageRepository creates an empty in-memory usage repository.
func NewUsageRepository() *UsageRepository {
	return &UsageRepository{counters: make(map[counterKey]int)}
}

// IncrementWithinLimit atomically increments the counter unless the
// post-increment count would exceed limit.
func (r *UsageRepository) IncrementWithinLimit(_ context.Context, holder string, metric plan.Metric, limit int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := counterKey{holder: holder, metric: metric}
	count := r.counters[key]
	if limit != plan.Unlimited && count+1 > limit {
		return 0, usage.ErrLimitReached
	}
	count++
	r.counters[key] = count
	return count, nil
}

// Get returns the current count for a holder and metric.
func (r *UsageRepository) Get(_ context.Context, holder string, metric plan.Metric) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[counterKey{holder: holder, metric: metric}], nil
}

// ListByHolder returns all counters for a holder.
func (r *UsageRepository) ListByHolder(_ context.Context, holder string) ([]usage.Counter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []usage.Counter
	for key, count := range r.counters {
		if key.holder == holder {
			out = append(out, usage.Counter{Holder: holder, Metric: key.metric, Count: count})
		}
	}
	return out, nil
}
