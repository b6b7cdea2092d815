// Package memory provides in-memory repository implementations backed by
// maps and mutexes. They honor the same concurrency contracts as the
// durable backends and serve development mode and the test suite.
package memory

import (
	"context"
	"sync"

	"github.com/testmatestudio/licensing/pkg/domain/license"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
)

// LicenseRepository stores licenses in a map keyed by ID. Insertion order
// is preserved so List and GetByHolder can resolve recency without
// depending on wall-clock ties.
type LicenseRepository struct {
	mu       sync.RWMutex
	licenses map[shared.ID]*license.License
	order    []shared.ID
}

// NewLicenseRepository creates an empty in-memory license repository.
func NewLicenseRepository() *LicenseRepository {
	return &LicenseRepository{
		licenses: make(map[shared.ID]*license.License),
	}
}

// cloneLicense makes an independent copy so stored entities and the ones
// handed to callers never share memory. Durable backends get this for free
// by rescanning rows; here it has to be explicit or a caller holding an
// earlier read would observe (and race with) later store mutations.
func cloneLicense(lic *license.License) *license.License {
	return license.Reconstitute(
		lic.ID(),
		lic.Holder(),
		lic.Tier(),
		lic.IssuedAt(),
		lic.ExpiresAt(),
		lic.ProjectLimit(),
		lic.Features(),
		lic.Revoked(),
		lic.RevokedAt(),
	)
}

// Create persists a newly issued license.
func (r *LicenseRepository) Create(_ context.Context, lic *license.License) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.licenses[lic.ID()]; exists {
		return shared.ErrAlreadyExists
	}
	r.licenses[lic.ID()] = cloneLicense(lic)
	r.order = append(r.order, lic.ID())
	return nil
}

// GetByID retrieves a license by its ID.
func (r *LicenseRepository) GetByID(_ context.Context, id shared.ID) (*license.License, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lic, ok := r.licenses[id]
	if !ok {
		return nil, license.ErrNotFound
	}
	return cloneLicense(lic), nil
}

// GetByHolder retrieves the most recently issued license for a holder.
func (r *LicenseRepository) GetByHolder(_ context.Context, holder string) (*license.License, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		lic := r.licenses[r.order[i]]
		if lic.Holder() == holder {
			return cloneLicense(lic), nil
		}
	}
	return nil, license.ErrNotFound
}

// Update persists field changes of an existing license.
func (r *LicenseRepository) Update(_ context.Context, lic *license.License) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.licenses[lic.ID()]; !ok {
		return license.ErrNotFound
	}
	r.licenses[lic.ID()] = cloneLicense(lic)
	return nil
}

// Revoke marks a license revoked. The operation is monotonic: revoking an
// already revoked license succeeds without changing the revocation time.
func (r *LicenseRepository) Revoke(_ context.Context, id shared.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lic, ok := r.licenses[id]
	if !ok {
		return license.ErrNotFound
	}
	lic.Revoke()
	return nil
}

// List returns all licenses, most recently issued first.
func (r *LicenseRepository) List(_ context.Context) ([]*license.License, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*license.License, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, cloneLicense(r.licenses[r.order[i]]))
	}
	return out, nil
}
