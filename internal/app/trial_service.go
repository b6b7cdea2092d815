package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/testmatestudio/licensing/internal/metrics"
	"github.com/testmatestudio/licensing/pkg/domain/license"
	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/domain/trial"
	"github.com/testmatestudio/licensing/pkg/logger"
)

// TrialService enforces the one-trial-per-identity state machine:
// NotStarted -> Active -> Expired, where the NotStarted -> Active
// transition happens at most once per holder, ever. Expiry is derived at
// read time; there is no background job.
type TrialService struct {
	trialRepo trial.Repository
	issuer    *IssuerService
	catalog   *plan.Catalog
	logger    *logger.Logger
}

// NewTrialService creates a new TrialService.
func NewTrialService(
	trialRepo trial.Repository,
	issuer *IssuerService,
	catalog *plan.Catalog,
	log *logger.Logger,
) *TrialService {
	return &TrialService{
		trialRepo: trialRepo,
		issuer:    issuer,
		catalog:   catalog,
		logger:    log.With("service", "trial"),
	}
}

// Start activates the holder's single trial and issues the trial license.
// Any second attempt returns trial.ErrAlreadyConsumed, including after the
// first trial has expired; the repository guarantees exactly-once
// semantics under concurrent calls.
func (s *TrialService) Start(ctx context.Context, holder string) (*license.License, string, error) {
	if holder == "" {
		return nil, "", license.ErrInvalidHolder
	}

	durationDays := s.catalog.TrialDurationDays()
	state := trial.NewState(holder, time.Duration(durationDays)*24*time.Hour)

	if err := s.trialRepo.Create(ctx, state); err != nil {
		if errors.Is(err, trial.ErrAlreadyConsumed) {
			metrics.TrialStartsTotal.WithLabelValues("already_consumed").Inc()
			return nil, "", trial.ErrAlreadyConsumed
		}
		metrics.TrialStartsTotal.WithLabelValues("error").Inc()
		return nil, "", fmt.Errorf("record trial activation: %w", err)
	}

	lic, signed, err := s.issuer.Issue(ctx, holder, plan.TierTrial, durationDays)
	if err != nil {
		// The trial slot stays consumed: activation is permanent even if
		// issuance fails, so a retry goes through the admin gateway.
		metrics.TrialStartsTotal.WithLabelValues("error").Inc()
		return nil, "", fmt.Errorf("issue trial license: %w", err)
	}

	metrics.TrialStartsTotal.WithLabelValues("started").Inc()
	s.logger.Info("trial started", "holder", holder, "expires_at", state.ExpiresAt())
	return lic, signed, nil
}

// Get returns the holder's trial state, or trial.ErrNotFound if the
// holder never started one.
func (s *TrialService) Get(ctx context.Context, holder string) (*trial.State, error) {
	return s.trialRepo.GetByHolder(ctx, holder)
}
