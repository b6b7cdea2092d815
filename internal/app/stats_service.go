package app

import (
	"context"
	"sort"
	"time"

	"github.com/testmatestudio/licensing/pkg/domain/license"
	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/domain/trial"
	"github.com/testmatestudio/licensing/pkg/domain/usage"
	"github.com/testmatestudio/licensing/pkg/logger"
)

// StatsService aggregates operational numbers for the admin dashboard.
// Everything is computed on demand from the stores; no snapshot state.
type StatsService struct {
	catalog     *plan.Catalog
	licenseRepo license.Repository
	trialRepo   trial.Repository
	usageRepo   usage.Repository
	logger      *logger.Logger
}

// NewStatsService creates a new StatsService.
func NewStatsService(
	catalog *plan.Catalog,
	licenseRepo license.Repository,
	trialRepo trial.Repository,
	usageRepo usage.Repository,
	log *logger.Logger,
) *StatsService {
	return &StatsService{
		catalog:     catalog,
		licenseRepo: licenseRepo,
		trialRepo:   trialRepo,
		usageRepo:   usageRepo,
		logger:      log.With("service", "stats"),
	}
}

// Overview is the dashboard summary.
type Overview struct {
	TotalLicenses   int               `json:"total_licenses"`
	ActiveLicenses  int               `json:"active_licenses"`
	ExpiredLicenses int               `json:"expired_licenses"`
	RevokedLicenses int               `json:"revoked_licenses"`
	TrialsConsumed  int               `json:"trials_consumed"`
	ByTier          map[plan.Tier]int `json:"by_tier"`
}

// Overview computes license totals. Revoked takes precedence over expired
// in the breakdown so the three buckets partition the total.
func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	licenses, err := s.licenseRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	trials, err := s.trialRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ov := &Overview{
		TotalLicenses:  len(licenses),
		TrialsConsumed: trials,
		ByTier:         make(map[plan.Tier]int),
	}
	for _, lic := range licenses {
		ov.ByTier[lic.Tier()]++
		switch {
		case lic.Revoked():
			ov.RevokedLicenses++
		case lic.IsExpiredAt(now):
			ov.ExpiredLicenses++
		default:
			ov.ActiveLicenses++
		}
	}

	return ov, nil
}

// UserSummary is one holder's row in the admin user listing.
type UserSummary struct {
	Holder    string        `json:"holder"`
	LicenseID string        `json:"license_id"`
	Tier      plan.Tier     `json:"tier"`
	IssuedAt  time.Time     `json:"issued_at"`
	ExpiresAt time.Time     `json:"expires_at"`
	Expired   bool          `json:"expired"`
	Revoked   bool          `json:"revoked"`
	Usage     []UsageStatus `json:"usage,omitempty"`
}

// Users lists every holder with their most recent license and consumption.
// Holders with multiple licenses (trial then paid) appear once, under the
// latest issuance.
func (s *StatsService) Users(ctx context.Context) ([]UserSummary, error) {
	licenses, err := s.licenseRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]*license.License)
	for _, lic := range licenses {
		cur, ok := latest[lic.Holder()]
		if !ok || lic.IssuedAt().After(cur.IssuedAt()) {
			latest[lic.Holder()] = lic
		}
	}

	now := time.Now().UTC()
	users := make([]UserSummary, 0, len(latest))
	for holder, lic := range latest {
		summary := UserSummary{
			Holder:    holder,
			LicenseID: lic.ID().String(),
			Tier:      lic.Tier(),
			IssuedAt:  lic.IssuedAt(),
			ExpiresAt: lic.ExpiresAt(),
			Expired:   lic.IsExpiredAt(now),
			Revoked:   lic.Revoked(),
		}

		counters, err := s.usageRepo.ListByHolder(ctx, holder)
		if err != nil {
			s.logger.Warn("failed to load usage counters", "holder", holder, "error", err)
		}
		for _, c := range counters {
			summary.Usage = append(summary.Usage, UsageStatus{
				Metric: c.Metric,
				Count:  c.Count,
				Limit:  s.limitFor(lic, c.Metric),
			})
		}
		sort.Slice(summary.Usage, func(i, j int) bool {
			return summary.Usage[i].Metric < summary.Usage[j].Metric
		})

		users = append(users, summary)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].Holder < users[j].Holder })
	return users, nil
}

// limitFor resolves a metric's ceiling for the listing. The license is
// authoritative for its project limit; other meters come from the plan.
// Unknown tiers report Unlimited rather than failing the whole listing.
func (s *StatsService) limitFor(lic *license.License, metric plan.Metric) int {
	if metric == plan.MetricProjectsCreated {
		return lic.ProjectLimit()
	}
	p, err := s.catalog.Get(lic.Tier())
	if err != nil {
		return plan.Unlimited
	}
	return p.LimitFor(metric)
}
