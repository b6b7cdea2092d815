package memory

import (
	"context"
	"sync"

	"github.com/testmatestudio/licensing/pkg/domain/trial"
)

// TrialRepository records trial activations in a map keyed by holder.
// Create is exactly-once per holder: the existence check and the insert
// happen under one lock, so concurrent activations for the same holder
// yield a single winner.
type TrialRepository struct {
	mu     sync.RWMutex
	trials map[string]*trial.State
}

// NewTrialRepository creates an empty in-memory trial repository.
func NewTrialRepository() *TrialRepository {
	return &TrialRepository{trials: make(map[string]*trial.State)}
}

// Create records a trial activation, or trial.ErrAlreadyConsumed if the
// holder already used theirs.
func (r *TrialRepository) Create(_ context.Context, state *trial.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.trials[state.Holder()]; exists {
		return trial.ErrAlreadyConsumed
	}
	r.trials[state.Holder()] = state
	return nil
}

// GetByHolder retrieves the trial state for a holder.
func (r *TrialRepository) GetByHolder(_ context.Context, holder string) (*trial.State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.trials[holder]
	if !ok {
		return nil, trial.ErrNotFound
	}
	return state, nil
}

// Count returns the number of recorded trial activations.
func (r *TrialRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.trials), nil
}
