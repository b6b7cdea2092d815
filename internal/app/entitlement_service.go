package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/testmatestudio/licensing/internal/metrics"
	"github.com/testmatestudio/licensing/pkg/domain/license"
	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/domain/usage"
	"github.com/testmatestudio/licensing/pkg/logger"
)

// Enforcement deny reasons, each surfaced distinctly to the caller.
var (
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrFeatureNotIncluded = errors.New("feature not included in plan")
	ErrUnknownOperation   = errors.New("unknown operation")
)

// EntitlementService decides allow/deny for a validated license and a
// requested operation. Operation names resolve to a metered metric first,
// then to a boolean feature flag (some operations, like test generation,
// are both gated and metered; the meter is the stricter check).
type EntitlementService struct {
	catalog     *plan.Catalog
	usageRepo   usage.Repository
	licenseRepo license.Repository
	logger      *logger.Logger
}

// NewEntitlementService creates a new EntitlementService.
func NewEntitlementService(
	catalog *plan.Catalog,
	usageRepo usage.Repository,
	licenseRepo license.Repository,
	log *logger.Logger,
) *EntitlementService {
	return &EntitlementService{
		catalog:     catalog,
		usageRepo:   usageRepo,
		licenseRepo: licenseRepo,
		logger:      log.With("service", "entitlement"),
	}
}

// Authorize is the read-only check: it never mutates counters. Deny
// reasons: license.ErrRevoked, license.ErrExpired, ErrQuotaExceeded,
// ErrFeatureNotIncluded.
func (s *EntitlementService) Authorize(ctx context.Context, lic *license.License, operation string) error {
	if err := s.checkLicense(lic); err != nil {
		metrics.AuthorizationsTotal.WithLabelValues(operation, denyLabel(err)).Inc()
		return err
	}

	if metric, ok := plan.ParseMetric(operation); ok {
		limit, err := s.limitFor(lic, metric)
		if err != nil {
			return err
		}
		if limit != plan.Unlimited {
			count, err := s.usageRepo.Get(ctx, lic.Holder(), metric)
			if err != nil {
				return fmt.Errorf("read usage counter: %w", err)
			}
			if count >= limit {
				metrics.AuthorizationsTotal.WithLabelValues(operation, "quota_exceeded").Inc()
				return ErrQuotaExceeded
			}
		}
		metrics.AuthorizationsTotal.WithLabelValues(operation, "allow").Inc()
		return nil
	}

	if feat, ok := plan.ParseFeature(operation); ok {
		if !lic.HasFeature(feat) {
			metrics.AuthorizationsTotal.WithLabelValues(operation, "feature_not_included").Inc()
			return ErrFeatureNotIncluded
		}
		metrics.AuthorizationsTotal.WithLabelValues(operation, "allow").Inc()
		return nil
	}

	return fmt.Errorf("%w: %q", ErrUnknownOperation, operation)
}

// Consume authorizes a metered operation and records the usage in one
// indivisible step: the limit check and the increment happen atomically
// at the store layer, so concurrent requests can never jointly exceed the
// limit. For pure feature-flag operations it behaves like Authorize and
// returns the current count unchanged.
func (s *EntitlementService) Consume(ctx context.Context, lic *license.License, operation string) (int, error) {
	if err := s.checkLicense(lic); err != nil {
		metrics.AuthorizationsTotal.WithLabelValues(operation, denyLabel(err)).Inc()
		return 0, err
	}

	metric, ok := plan.ParseMetric(operation)
	if !ok {
		if feat, isFeature := plan.ParseFeature(operation); isFeature {
			if !lic.HasFeature(feat) {
				metrics.AuthorizationsTotal.WithLabelValues(operation, "feature_not_included").Inc()
				return 0, ErrFeatureNotIncluded
			}
			metrics.AuthorizationsTotal.WithLabelValues(operation, "allow").Inc()
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, operation)
	}

	limit, err := s.limitFor(lic, metric)
	if err != nil {
		return 0, err
	}

	newCount, err := s.usageRepo.IncrementWithinLimit(ctx, lic.Holder(), metric, limit)
	if err != nil {
		if errors.Is(err, usage.ErrLimitReached) {
			metrics.AuthorizationsTotal.WithLabelValues(operation, "quota_exceeded").Inc()
			return 0, ErrQuotaExceeded
		}
		return 0, fmt.Errorf("increment usage counter: %w", err)
	}

	metrics.AuthorizationsTotal.WithLabelValues(operation, "allow").Inc()
	return newCount, nil
}

// Status summarizes a holder's license, expiry, and usage against limits.
type Status struct {
	HasLicense bool          `json:"has_license"`
	LicenseID  string        `json:"license_id,omitempty"`
	Holder     string        `json:"holder,omitempty"`
	Tier       plan.Tier     `json:"tier,omitempty"`
	IssuedAt   time.Time     `json:"issued_at,omitzero"`
	ExpiresAt  time.Time     `json:"expires_at,omitzero"`
	Expired    bool          `json:"expired,omitempty"`
	Revoked    bool          `json:"revoked,omitempty"`
	Features   []plan.Feature `json:"features,omitempty"`
	Usage      []UsageStatus `json:"usage,omitempty"`
}

// UsageStatus reports one metric's consumption against its ceiling.
type UsageStatus struct {
	Metric plan.Metric `json:"metric"`
	Count  int         `json:"count"`
	Limit  int         `json:"limit"`
}

// Status returns the holder's current license summary, or a zero
// HasLicense status when the holder has none.
func (s *EntitlementService) Status(ctx context.Context, holder string) (*Status, error) {
	lic, err := s.licenseRepo.GetByHolder(ctx, holder)
	if err != nil {
		if errors.Is(err, license.ErrNotFound) {
			return &Status{HasLicense: false}, nil
		}
		return nil, err
	}

	p, err := s.catalog.Get(lic.Tier())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	status := &Status{
		HasLicense: true,
		LicenseID:  lic.ID().String(),
		Holder:     lic.Holder(),
		Tier:       lic.Tier(),
		IssuedAt:   lic.IssuedAt(),
		ExpiresAt:  lic.ExpiresAt(),
		Expired:    lic.IsExpiredAt(now),
		Revoked:    lic.Revoked(),
		Features:   lic.Features(),
	}

	status.Usage = append(status.Usage, UsageStatus{
		Metric: plan.MetricProjectsCreated,
		Count:  mustCount(ctx, s.usageRepo, holder, plan.MetricProjectsCreated),
		Limit:  lic.ProjectLimit(),
	})
	for metric, limit := range p.MeterLimits {
		status.Usage = append(status.Usage, UsageStatus{
			Metric: metric,
			Count:  mustCount(ctx, s.usageRepo, holder, metric),
			Limit:  limit,
		})
	}

	return status, nil
}

// checkLicense applies the license-level gates shared by every decision.
func (s *EntitlementService) checkLicense(lic *license.License) error {
	if lic.Revoked() {
		return license.ErrRevoked
	}
	if lic.IsExpiredAt(time.Now().UTC()) {
		return license.ErrExpired
	}
	return nil
}

// limitFor resolves the ceiling for a metric. The license is
// authoritative for its project limit; other meters come from the plan.
func (s *EntitlementService) limitFor(lic *license.License, metric plan.Metric) (int, error) {
	if metric == plan.MetricProjectsCreated {
		return lic.ProjectLimit(), nil
	}
	p, err := s.catalog.Get(lic.Tier())
	if err != nil {
		return 0, err
	}
	return p.LimitFor(metric), nil
}

func mustCount(ctx context.Context, repo usage.Repository, holder string, metric plan.Metric) int {
	count, err := repo.Get(ctx, holder, metric)
	if err != nil {
		return 0
	}
	return count
}

func denyLabel(err error) string {
	switch {
	case errors.Is(err, license.ErrRevoked):
		return "revoked"
	case errors.Is(err, license.ErrExpired):
		return "expired"
	default:
		return "error"
	}
}
