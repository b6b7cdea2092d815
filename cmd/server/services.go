package main

import (
	"fmt"

	"github.com/testmatestudio/licensing/internal/app"
	"github.com/testmatestudio/licensing/internal/config"
	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/logger"
	"github.com/testmatestudio/licensing/pkg/password"
	"github.com/testmatestudio/licensing/pkg/token"
)

// Services holds all application services.
type Services struct {
	Catalog      *plan.Catalog
	Issuer       *app.IssuerService
	Tokens       *app.TokenService
	Trials       *app.TrialService
	Entitlements *app.EntitlementService
	Admins       *app.AdminService
	Stats        *app.StatsService
}

// NewServices wires the application services from configuration and the
// selected repositories.
func NewServices(cfg *config.Config, repos *Repositories, log *logger.Logger) (*Services, error) {
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	signingKey, err := token.PrivateKeyFromSeed(cfg.License.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("load signing key: %w", err)
	}

	signer, err := token.NewSigner(signingKey, token.Config{Issuer: cfg.License.Issuer})
	if err != nil {
		return nil, err
	}

	verifier, err := token.NewVerifier(signer.Public())
	if err != nil {
		return nil, err
	}

	hasher := password.New(password.WithCost(cfg.Admin.BcryptCost))

	issuer := app.NewIssuerService(catalog, signer, repos.License, log)

	return &Services{
		Catalog:      catalog,
		Issuer:       issuer,
		Tokens:       app.NewTokenService(verifier, repos.License, log),
		Trials:       app.NewTrialService(repos.Trial, issuer, catalog, log),
		Entitlements: app.NewEntitlementService(catalog, repos.Usage, repos.License, log),
		Admins: app.NewAdminService(
			repos.Admin,
			repos.Session,
			repos.License,
			issuer,
			hasher,
			cfg.Admin.SessionDuration,
			log,
		),
		Stats: app.NewStatsService(catalog, repos.License, repos.Trial, repos.Usage, log),
	}, nil
}

// loadCatalog returns the built-in plan catalog or the YAML override.
func loadCatalog(cfg *config.Config) (*plan.Catalog, error) {
	if cfg.License.CatalogPath == "" {
		return plan.Default(), nil
	}
	catalog, err := plan.LoadFile(cfg.License.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load plan catalog from %s: %w", cfg.License.CatalogPath, err)
	}
	return catalog, nil
}
