package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
	"github.com/testmatestudio/licensing/pkg/domain/usage"
)

// incrementScript performs the limit check and the increment in one Lua
// execution, which Redis runs without interleaving. A negative limit
// means unlimited. Returns {1, count} on success, {0, count} when the
// ceiling is hit.
var incrementScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])

	local count = tonumber(redis.call('GET', key) or '0')

	if limit >= 0 and count + 1 > limit then
		return {0, count}
	end

	count = redis.call('INCR', key)
	return {1, count}
`)

const keyPrefix = "usage:"

// UsageRepository implements usage.Repository on Redis. Counters are
// plain integer keys; atomicity comes from the Lua script.
type UsageRepository struct {
	client *Client
}

// NewUsageRepository creates a Redis-backed usage repository.
func NewUsageRepository(client *Client) *UsageRepository {
	return &UsageRepository{client: client}
}

func counterKey(holder string, metric plan.Metric) string {
	return keyPrefix + holder + ":" + string(metric)
}

// IncrementWithinLimit atomically increments the counter unless the
// post-increment count would exceed limit.
func (r *UsageRepository) IncrementWithinLimit(ctx context.Context, holder string, metric plan.Metric, limit int) (int, error) {
	res, err := incrementScript.Run(ctx, r.client.Client(),
		[]string{counterKey(holder, metric)},
		limit,
	).Int64Slice()
	if err != nil {
		return 0, shared.NewStoreError("usage.increment", err)
	}
	if len(res) != 2 {
		return 0, shared.NewStoreError("usage.increment", fmt.Errorf("unexpected script result length %d", len(res)))
	}

	if res[0] == 0 {
		return 0, usage.ErrLimitReached
	}
	return int(res[1]), nil
}

// Get returns the current count for a holder and metric.
func (r *UsageRepository) Get(ctx context.Context, holder string, metric plan.Metric) (int, error) {
	val, err := r.client.Client().Get(ctx, counterKey(holder, metric)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, shared.NewStoreError("usage.get", err)
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, shared.NewStoreError("usage.get", fmt.Errorf("non-numeric counter value %q: %w", val, err))
	}
	return count, nil
}

// ListByHolder returns all counters for a holder. Keys are enumerated
// with SCAN so large keyspaces do not block the server.
func (r *UsageRepository) ListByHolder(ctx context.Context, holder string) ([]usage.Counter, error) {
	pattern := keyPrefix + holder + ":*"
	prefix := keyPrefix + holder + ":"

	var counters []usage.Counter
	var cursor uint64
	for {
		keys, next, err := r.client.Client().Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, shared.NewStoreError("usage.list", err)
		}

		for _, key := range keys {
			val, err := r.client.Client().Get(ctx, key).Result()
			if err == redis.Nil {
				continue
			}
			if err != nil {
				return nil, shared.NewStoreError("usage.list", err)
			}
			count, err := strconv.Atoi(val)
			if err != nil {
				continue
			}
			counters = append(counters, usage.Counter{
				Holder: holder,
				Metric: plan.Metric(key[len(prefix):]),
				Count:  count,
			})
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return counters, nil
}
