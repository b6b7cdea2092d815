package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testmatestudio/licensing/pkg/domain/trial"
)

func TestTrialCreateExactlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewTrialRepository()

	state := trial.NewState("user@example.com", 7*24*time.Hour)
	require.NoError(t, repo.Create(ctx, state))

	err := repo.Create(ctx, trial.NewState("user@example.com", 7*24*time.Hour))
	assert.ErrorIs(t, err, trial.ErrAlreadyConsumed)

	got, err := repo.GetByHolder(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, state.StartedAt(), got.StartedAt(), "loser must not overwrite the winner")
}

func TestTrialCreateConcurrent(t *testing.T) {
	const attempts = 100

	ctx := context.Background()
	repo := NewTrialRepository()

	var successes atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, trial.NewState("user@example.com", 7*24*time.Hour))
			if err == nil {
				successes.Add(1)
			} else if !errors.Is(err, trial.ErrAlreadyConsumed) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), successes.Load(), "exactly one activation must win")

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTrialGetByHolderNotFound(t *testing.T) {
	repo := NewTrialRepository()
	_, err := repo.GetByHolder(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, trial.ErrNotFound)
}
