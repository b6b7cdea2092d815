package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testmatestudio/licensing/internal/app"
	"github.com/testmatestudio/licensing/pkg/domain/license"
	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
)

func issueLicense(t *testing.T, env *testEnv, holder string, tier plan.Tier) *license.License {
	t.Helper()
	lic, _, err := env.issuer.Issue(context.Background(), holder, tier, 0)
	require.NoError(t, err)
	return lic
}

func TestConsumeEnforcesProjectLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lic := issueLicense(t, env, "user@example.com", plan.TierBasic)

	// Basic allows 5 projects.
	for i := 1; i <= 5; i++ {
		count, err := env.entitlements.Consume(ctx, lic, "projects_created")
		require.NoError(t, err)
		assert.Equal(t, i, count)
	}

	_, err := env.entitlements.Consume(ctx, lic, "projects_created")
	assert.ErrorIs(t, err, app.ErrQuotaExceeded)
}

func TestConsumeUnlimitedPlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lic := issueLicense(t, env, "corp@example.com", plan.TierEnterprise)

	for i := 1; i <= 40; i++ {
		count, err := env.entitlements.Consume(ctx, lic, "projects_created")
		require.NoError(t, err)
		assert.Equal(t, i, count)
	}
}

func TestAuthorizeIsReadOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lic := issueLicense(t, env, "user@example.com", plan.TierBasic)

	for i := 0; i < 10; i++ {
		require.NoError(t, env.entitlements.Authorize(ctx, lic, "projects_created"))
	}

	count, err := env.usageStore.Get(ctx, "user@example.com", plan.MetricProjectsCreated)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "Authorize must never advance counters")
}

func TestAuthorizeDeniesAtLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lic := issueLicense(t, env, "user@example.com", plan.TierBasic)

	for i := 0; i < 5; i++ {
		_, err := env.entitlements.Consume(ctx, lic, "projects_created")
		require.NoError(t, err)
	}

	err := env.entitlements.Authorize(ctx, lic, "projects_created")
	assert.ErrorIs(t, err, app.ErrQuotaExceeded)
}

func TestFeatureGating(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	basic := issueLicense(t, env, "basic@example.com", plan.TierBasic)
	pro := issueLicense(t, env, "pro@example.com", plan.TierProfessional)

	assert.ErrorIs(t, env.entitlements.Authorize(ctx, basic, "ai_enhancement"), app.ErrFeatureNotIncluded)
	assert.NoError(t, env.entitlements.Authorize(ctx, pro, "ai_enhancement"))

	// Consume on a pure feature flag allows without counting.
	count, err := env.entitlements.Consume(ctx, pro, "ai_enhancement")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMeteredOperationUsesMeterNotFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lic := issueLicense(t, env, "user@example.com", plan.TierTrial)

	// test_generation is both a feature and a meter; the trial meter
	// allows 10 uses.
	for i := 1; i <= 10; i++ {
		_, err := env.entitlements.Consume(ctx, lic, "test_generation")
		require.NoError(t, err)
	}
	_, err := env.entitlements.Consume(ctx, lic, "test_generation")
	assert.ErrorIs(t, err, app.ErrQuotaExceeded)
}

func TestUnknownOperation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lic := issueLicense(t, env, "user@example.com", plan.TierBasic)

	assert.ErrorIs(t, env.entitlements.Authorize(ctx, lic, "time_travel"), app.ErrUnknownOperation)
	_, err := env.entitlements.Consume(ctx, lic, "time_travel")
	assert.ErrorIs(t, err, app.ErrUnknownOperation)
}

func TestRevokedAndExpiredLicensesDenied(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	revoked := issueLicense(t, env, "revoked@example.com", plan.TierBasic)
	revoked.Revoke()
	assert.ErrorIs(t, env.entitlements.Authorize(ctx, revoked, "projects_created"), license.ErrRevoked)
	_, err := env.entitlements.Consume(ctx, revoked, "projects_created")
	assert.ErrorIs(t, err, license.ErrRevoked)

	past := time.Now().UTC().Add(-time.Hour)
	expired := license.Reconstitute(shared.NewID(), "expired@example.com", plan.TierBasic,
		past.AddDate(0, -1, 0), past, 5, nil, false, time.Time{})
	assert.ErrorIs(t, env.entitlements.Authorize(ctx, expired, "projects_created"), license.ErrExpired)
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("no license", func(t *testing.T) {
		status, err := env.entitlements.Status(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.False(t, status.HasLicense)
	})

	t.Run("with license and usage", func(t *testing.T) {
		lic := issueLicense(t, env, "user@example.com", plan.TierBasic)
		_, err := env.entitlements.Consume(ctx, lic, "projects_created")
		require.NoError(t, err)

		status, err := env.entitlements.Status(ctx, "user@example.com")
		require.NoError(t, err)
		assert.True(t, status.HasLicense)
		assert.Equal(t, plan.TierBasic, status.Tier)
		assert.False(t, status.Expired)
		assert.False(t, status.Revoked)

		var projects *app.UsageStatus
		for i := range status.Usage {
			if status.Usage[i].Metric == plan.MetricProjectsCreated {
				projects = &status.Usage[i]
			}
		}
		require.NotNil(t, projects)
		assert.Equal(t, 1, projects.Count)
		assert.Equal(t, 5, projects.Limit)
	})
}
