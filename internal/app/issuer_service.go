package app

import (
	"context"
	"fmt"

	"github.com/testmatestudio/licensing/internal/metrics"
	"github.com/testmatestudio/licensing/pkg/domain/license"
	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/logger"
	"github.com/testmatestudio/licensing/pkg/token"
)

// IssuerService constructs signed licenses and persists them. It is the
// single code path that creates licenses, invoked by the admin gateway and
// by trial activation.
type IssuerService struct {
	catalog     *plan.Catalog
	signer      *token.Signer
	licenseRepo license.Repository
	logger      *logger.Logger
}

// NewIssuerService creates a new IssuerService.
func NewIssuerService(
	catalog *plan.Catalog,
	signer *token.Signer,
	licenseRepo license.Repository,
	log *logger.Logger,
) *IssuerService {
	return &IssuerService{
		catalog:     catalog,
		signer:      signer,
		licenseRepo: licenseRepo,
		logger:      log.With("service", "issuer"),
	}
}

// Issue creates, signs, and persists a license for the holder. A zero
// duration falls back to the plan's default. It fails with
// plan.ErrUnknownTier for an unrecognized tier and
// license.ErrInvalidDuration for a negative duration.
func (s *IssuerService) Issue(ctx context.Context, holder string, tier plan.Tier, durationDays int) (*license.License, string, error) {
	p, err := s.catalog.Get(tier)
	if err != nil {
		return nil, "", err
	}

	if durationDays == 0 {
		durationDays = p.DurationDays
	}

	lic, err := license.New(holder, p, durationDays)
	if err != nil {
		return nil, "", err
	}

	signed, err := s.signer.Sign(lic)
	if err != nil {
		return nil, "", fmt.Errorf("sign license: %w", err)
	}

	if err := s.licenseRepo.Create(ctx, lic); err != nil {
		return nil, "", fmt.Errorf("persist license: %w", err)
	}

	origin := "admin"
	if tier == plan.TierTrial {
		origin = "trial"
	}
	metrics.LicensesIssuedTotal.WithLabelValues(tier.String(), origin).Inc()

	s.logger.Info("license issued",
		"license_id", lic.ID().String(),
		"holder", holder,
		"tier", tier.String(),
		"expires_at", lic.ExpiresAt(),
	)

	return lic, signed, nil
}

// ResignToken re-encodes the signed token for a license whose canonical
// fields changed (extension). The previous token no longer verifies
// against the stored expiry, so callers must hand out the new one.
func (s *IssuerService) ResignToken(lic *license.License) (string, error) {
	return s.signer.Sign(lic)
}
