package app_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/testmatestudio/licensing/internal/app"
	"github.com/testmatestudio/licensing/internal/infra/memory"
	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/logger"
	"github.com/testmatestudio/licensing/pkg/password"
	"github.com/testmatestudio/licensing/pkg/token"
)

// testEnv wires every service over in-memory stores with a throwaway
// signing key.
type testEnv struct {
	catalog      *plan.Catalog
	licenses     *memory.LicenseRepository
	trialStore   *memory.TrialRepository
	usageStore   *memory.UsageRepository
	verifier     *token.Verifier
	hasher       *password.Hasher
	issuer       *app.IssuerService
	trials       *app.TrialService
	tokens       *app.TokenService
	entitlements *app.EntitlementService
	admins       *app.AdminService
	stats        *app.StatsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	signer, err := token.NewSigner(priv, token.Config{Issuer: "testmate-licensing"})
	require.NoError(t, err)
	verifier, err := token.NewVerifier(signer.Public())
	require.NoError(t, err)

	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	catalog := plan.Default()

	licenses := memory.NewLicenseRepository()
	trialStore := memory.NewTrialRepository()
	usageStore := memory.NewUsageRepository()

	issuer := app.NewIssuerService(catalog, signer, licenses, log)
	hasher := password.New(password.WithCost(bcrypt.MinCost))

	return &testEnv{
		catalog:      catalog,
		licenses:     licenses,
		trialStore:   trialStore,
		usageStore:   usageStore,
		verifier:     verifier,
		hasher:       hasher,
		issuer:       issuer,
		trials:       app.NewTrialService(trialStore, issuer, catalog, log),
		tokens:       app.NewTokenService(verifier, licenses, log),
		entitlements: app.NewEntitlementService(catalog, usageStore, licenses, log),
		admins: app.NewAdminService(
			memory.NewAdminRepository(),
			memory.NewSessionRepository(),
			licenses,
			issuer,
			hasher,
			time.Hour,
			log,
		),
		stats: app.NewStatsService(catalog, licenses, trialStore, usageStore, log),
	}
}
