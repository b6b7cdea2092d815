// Package license defines the signed entitlement grant issued to a holder.
package license

import (
	"time"

	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
)

// License grants a holder identity a plan tier's entitlements until expiry.
// Fields are immutable once issued; revocation is the only permitted
// mutation and is monotonic.
type License struct {
	id           shared.ID
	holder       string
	tier         plan.Tier
	issuedAt     time.Time
	expiresAt    time.Time
	projectLimit int
	features     []plan.Feature
	revoked      bool
	revokedAt    time.Time
}

// New creates a license for a holder from a resolved plan.
func New(holder string, p plan.Plan, durationDays int) (*License, error) {
	if holder == "" {
		return nil, ErrInvalidHolder
	}
	if durationDays <= 0 {
		return nil, ErrInvalidDuration
	}

	now := time.Now().UTC()
	features := make([]plan.Feature, len(p.Features))
	copy(features, p.Features)

	return &License{
		id:           shared.NewID(),
		holder:       holder,
		tier:         p.Tier,
		issuedAt:     now,
		expiresAt:    now.Add(time.Duration(durationDays) * 24 * time.Hour),
		projectLimit: p.ProjectLimit,
		features:     features,
	}, nil
}

// Reconstitute creates a license from persisted data.
func Reconstitute(
	id shared.ID,
	holder string,
	tier plan.Tier,
	issuedAt time.Time,
	expiresAt time.Time,
	projectLimit int,
	features []plan.Feature,
	revoked bool,
	revokedAt time.Time,
) *License {
	return &License{
		id:           id,
		holder:       holder,
		tier:         tier,
		issuedAt:     issuedAt,
		expiresAt:    expiresAt,
		projectLimit: projectLimit,
		features:     features,
		revoked:      revoked,
		revokedAt:    revokedAt,
	}
}

// Getters

// ID returns the license ID.
func (l *License) ID() shared.ID { return l.id }

// Holder returns the holder identity the license was issued to.
func (l *License) Holder() string { return l.holder }

// Tier returns the plan tier.
func (l *License) Tier() plan.Tier { return l.tier }

// IssuedAt returns the issuance time.
func (l *License) IssuedAt() time.Time { return l.issuedAt }

// ExpiresAt returns the expiry time.
func (l *License) ExpiresAt() time.Time { return l.expiresAt }

// ProjectLimit returns the project ceiling (plan.Unlimited for none).
func (l *License) ProjectLimit() int { return l.projectLimit }

// Features returns the granted feature flags.
func (l *License) Features() []plan.Feature {
	features := make([]plan.Feature, len(l.features))
	copy(features, l.features)
	return features
}

// Revoked reports whether the license has been revoked.
func (l *License) Revoked() bool { return l.revoked }

// RevokedAt returns the revocation time (zero if not revoked).
func (l *License) RevokedAt() time.Time { return l.revokedAt }

// Domain methods

// IsExpiredAt reports whether the license is expired at the given instant.
// The boundary is inclusive: a license with expiresAt == now is expired.
func (l *License) IsExpiredAt(now time.Time) bool {
	return !now.Before(l.expiresAt)
}

// HasFeature checks membership in the granted feature flags.
func (l *License) HasFeature(f plan.Feature) bool {
	for _, feat := range l.features {
		if feat == f {
			return true
		}
	}
	return false
}

// Revoke marks the license revoked. Revocation is monotonic: calling
// Revoke on an already revoked license is a no-op.
func (l *License) Revoke() {
	if l.revoked {
		return
	}
	l.revoked = true
	l.revokedAt = time.Now().UTC()
}

// Extend pushes the expiry forward by the given number of days and clears
// nothing else. The signed token must be re-issued afterwards since the
// canonical field set changed.
func (l *License) Extend(days int) error {
	if days <= 0 {
		return ErrInvalidDuration
	}
	base := l.expiresAt
	if now := time.Now().UTC(); base.Before(now) {
		base = now
	}
	l.expiresAt = base.Add(time.Duration(days) * 24 * time.Hour)
	return nil
}
