// Package trial tracks one-time trial activation per holder identity.
package trial

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyConsumed is returned when a holder attempts a second trial.
// Consumption is permanent: the error applies whether the prior trial is
// still active or long expired.
var ErrAlreadyConsumed = errors.New("trial already consumed")

// ErrNotFound is returned when no trial state exists for a holder.
var ErrNotFound = errors.New("trial not found")

// State records a holder's trial activation. There is at most one State
// per holder, ever; consumed never resets.
type State struct {
	holder    string
	startedAt time.Time
	expiresAt time.Time
	consumed  bool
}

// NewState activates a trial for a holder with the given duration.
func NewState(holder string, duration time.Duration) *State {
	now := time.Now().UTC()
	return &State{
		holder:    holder,
		startedAt: now,
		expiresAt: now.Add(duration),
		consumed:  true,
	}
}

// Reconstitute creates trial state from persisted data.
func Reconstitute(holder string, startedAt, expiresAt time.Time, consumed bool) *State {
	return &State{
		holder:    holder,
		startedAt: startedAt,
		expiresAt: expiresAt,
		consumed:  consumed,
	}
}

// Holder returns the holder identity.
func (s *State) Holder() string { return s.holder }

// StartedAt returns when the trial was activated.
func (s *State) StartedAt() time.Time { return s.startedAt }

// ExpiresAt returns when the trial ends.
func (s *State) ExpiresAt() time.Time { return s.expiresAt }

// Consumed reports whether the holder's single trial has been used.
func (s *State) Consumed() bool { return s.consumed }

// IsActiveAt reports whether the trial is still running at the given
// instant. Expiry is a read-time computed transition, not a stored write.
func (s *State) IsActiveAt(now time.Time) bool {
	return now.Before(s.expiresAt)
}

// Repository defines the interface for trial state persistence.
type Repository interface {
	// Create records a trial activation. It must be exactly-once per
	// holder: concurrent calls for the same holder yield one success and
	// ErrAlreadyConsumed for the rest.
	Create(ctx context.Context, state *State) error

	// GetByHolder retrieves the trial state for a holder, or ErrNotFound.
	GetByHolder(ctx context.Context, holder string) (*State, error)

	// Count returns the number of recorded trial activations.
	Count(ctx context.Context) (int, error)
}
