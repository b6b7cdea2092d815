package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testmatestudio/licensing/internal/app"
	"github.com/testmatestudio/licensing/internal/infra/memory"
	"github.com/testmatestudio/licensing/pkg/domain/admin"
	"github.com/testmatestudio/licensing/pkg/domain/license"
	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
	"github.com/testmatestudio/licensing/pkg/logger"
)

func registerAdmin(t *testing.T, env *testEnv) {
	t.Helper()
	_, err := env.admins.Register(context.Background(), "root", "correct-horse")
	require.NoError(t, err)
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registerAdmin(t, env)

	tokenString, expiresAt, err := env.admins.Login(ctx, "root", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, tokenString)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), expiresAt, time.Minute)

	session, err := env.admins.Authenticate(ctx, tokenString)
	require.NoError(t, err)
	assert.Equal(t, admin.HashToken(tokenString), session.TokenHash())
}

func TestAdminLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registerAdmin(t, env)

	_, _, err := env.admins.Login(ctx, "root", "wrong-password")
	assert.ErrorIs(t, err, admin.ErrAuthenticationFailed)

	_, _, err = env.admins.Login(ctx, "no-such-user", "correct-horse")
	assert.ErrorIs(t, err, admin.ErrAuthenticationFailed)
}

func TestAdminAuthenticateRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.admins.Authenticate(ctx, "")
	assert.ErrorIs(t, err, admin.ErrAuthenticationFailed)

	_, err = env.admins.Authenticate(ctx, "forged-token")
	assert.ErrorIs(t, err, admin.ErrAuthenticationFailed)
}

func TestAdminSessionExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	log := logger.New(logger.Config{Level: "error"})
	sessions := memory.NewSessionRepository()
	// Negative duration makes every session born expired.
	admins := app.NewAdminService(
		memory.NewAdminRepository(), sessions, env.licenses,
		env.issuer, env.hasher, -time.Minute, log,
	)
	_, err := admins.Register(ctx, "root", "correct-horse")
	require.NoError(t, err)

	tokenString, _, err := admins.Login(ctx, "root", "correct-horse")
	require.NoError(t, err)

	_, err = admins.Authenticate(ctx, tokenString)
	assert.ErrorIs(t, err, admin.ErrSessionExpired)

	// The expired session is removed; the next check fails as unknown.
	_, err = sessions.GetByTokenHash(ctx, admin.HashToken(tokenString))
	assert.ErrorIs(t, err, admin.ErrSessionNotFound)
}

func TestAdminLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registerAdmin(t, env)

	tokenString, _, err := env.admins.Login(ctx, "root", "correct-horse")
	require.NoError(t, err)
	require.NoError(t, env.admins.Logout(ctx, tokenString))

	_, err = env.admins.Authenticate(ctx, tokenString)
	assert.ErrorIs(t, err, admin.ErrAuthenticationFailed)
}

func TestAdminCreateLicense(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("plan default duration", func(t *testing.T) {
		lic, signed, err := env.admins.CreateLicense(ctx, "corp@example.com", plan.TierEnterprise, 0)
		require.NoError(t, err)
		assert.Equal(t, plan.Unlimited, lic.ProjectLimit())
		assert.WithinDuration(t, time.Now().UTC().Add(365*24*time.Hour), lic.ExpiresAt(), time.Minute)

		validated, err := env.tokens.Validate(ctx, signed)
		require.NoError(t, err)
		assert.Equal(t, lic.ID(), validated.ID())
	})

	t.Run("explicit duration", func(t *testing.T) {
		lic, _, err := env.admins.CreateLicense(ctx, "short@example.com", plan.TierBasic, 10)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().UTC().Add(10*24*time.Hour), lic.ExpiresAt(), time.Minute)
	})

	t.Run("unknown tier", func(t *testing.T) {
		_, _, err := env.admins.CreateLicense(ctx, "user@example.com", plan.Tier("platinum"), 0)
		assert.ErrorIs(t, err, plan.ErrUnknownTier)
	})

	t.Run("negative duration", func(t *testing.T) {
		_, _, err := env.admins.CreateLicense(ctx, "user@example.com", plan.TierBasic, -1)
		assert.ErrorIs(t, err, license.ErrInvalidDuration)
	})
}

func TestAdminRevokeLicense(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lic, signed, err := env.admins.CreateLicense(ctx, "user@example.com", plan.TierBasic, 0)
	require.NoError(t, err)

	require.NoError(t, env.admins.RevokeLicense(ctx, lic.ID()))

	// Valid signature, revoked record: verification must deny.
	_, err = env.tokens.Validate(ctx, signed)
	assert.ErrorIs(t, err, license.ErrRevoked)

	// Idempotent.
	assert.NoError(t, env.admins.RevokeLicense(ctx, lic.ID()))

	assert.ErrorIs(t, env.admins.RevokeLicense(ctx, shared.NewID()), license.ErrNotFound)
}

func TestAdminExtendLicense(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lic, oldToken, err := env.admins.CreateLicense(ctx, "user@example.com", plan.TierBasic, 0)
	require.NoError(t, err)
	oldExpiry := lic.ExpiresAt()

	extended, newToken, err := env.admins.ExtendLicense(ctx, lic.ID(), 15)
	require.NoError(t, err)
	assert.Equal(t, oldExpiry.Add(15*24*time.Hour), extended.ExpiresAt())
	assert.NotEqual(t, oldToken, newToken)

	validated, err := env.tokens.Validate(ctx, newToken)
	require.NoError(t, err)
	assert.Equal(t, extended.ExpiresAt(), validated.ExpiresAt())
}

func TestAdminExtendRevokedLicense(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lic, _, err := env.admins.CreateLicense(ctx, "user@example.com", plan.TierBasic, 0)
	require.NoError(t, err)
	require.NoError(t, env.admins.RevokeLicense(ctx, lic.ID()))

	_, _, err = env.admins.ExtendLicense(ctx, lic.ID(), 15)
	assert.ErrorIs(t, err, license.ErrRevoked)
}

func TestAdminListLicenses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.admins.CreateLicense(ctx, "a@example.com", plan.TierBasic, 0)
	require.NoError(t, err)
	_, _, err = env.admins.CreateLicense(ctx, "b@example.com", plan.TierProfessional, 0)
	require.NoError(t, err)

	licenses, err := env.admins.ListLicenses(ctx)
	require.NoError(t, err)
	require.Len(t, licenses, 2)
	assert.Equal(t, "b@example.com", licenses[0].Holder(), "most recent first")
}
