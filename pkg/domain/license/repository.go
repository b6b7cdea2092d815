package license

import (
	"context"

	"github.com/testmatestudio/licensing/pkg/domain/shared"
)

// Repository defines the interface for license persistence. Implementations
// never physically erase licenses; revocation flips a monotonic flag so the
// audit trail survives.
type Repository interface {
	// Create persists a newly issued license.
	Create(ctx context.Context, lic *License) error

	// GetByID retrieves a license by its ID.
	GetByID(ctx context.Context, id shared.ID) (*License, error)

	// GetByHolder retrieves the most recently issued license for a holder.
	GetByHolder(ctx context.Context, holder string) (*License, error)

	// Update persists field changes of an existing license (extension).
	Update(ctx context.Context, lic *License) error

	// Revoke marks a license revoked. Once revoked a license can never be
	// un-revoked; administrators issue a replacement instead.
	Revoke(ctx context.Context, id shared.ID) error

	// List returns all licenses ordered by issuance time descending.
	List(ctx context.Context) ([]*License, error)
}
