package main

import (
	"github.com/testmatestudio/licensing/internal/config"
	"github.com/testmatestudio/licensing/internal/infra/memory"
	"github.com/testmatestudio/licensing/internal/infra/postgres"
	redisinfra "github.com/testmatestudio/licensing/internal/infra/redis"
	"github.com/testmatestudio/licensing/pkg/domain/admin"
	"github.com/testmatestudio/licensing/pkg/domain/license"
	"github.com/testmatestudio/licensing/pkg/domain/trial"
	"github.com/testmatestudio/licensing/pkg/domain/usage"
)

// Repositories holds the selected store backend behind the domain
// interfaces. The memory backend is single-node only; postgres is the
// durable option, optionally with Redis carrying the usage counters.
type Repositories struct {
	License license.Repository
	Trial   trial.Repository
	Usage   usage.Repository
	Admin   admin.Repository
	Session admin.SessionRepository
}

// NewRepositories selects repository implementations from configuration.
func NewRepositories(cfg *config.Config, db *postgres.DB, redisClient *redisinfra.Client) *Repositories {
	if cfg.Store.Backend == config.StoreMemory {
		return &Repositories{
			License: memory.NewLicenseRepository(),
			Trial:   memory.NewTrialRepository(),
			Usage:   memory.NewUsageRepository(),
			Admin:   memory.NewAdminRepository(),
			Session: memory.NewSessionRepository(),
		}
	}

	repos := &Repositories{
		License: postgres.NewLicenseRepository(db.DB),
		Trial:   postgres.NewTrialRepository(db.DB),
		Usage:   postgres.NewUsageRepository(db.DB),
		Admin:   postgres.NewAdminRepository(db.DB),
		Session: postgres.NewSessionRepository(db.DB),
	}

	if cfg.Store.UseRedisCounters && redisClient != nil {
		repos.Usage = redisinfra.NewUsageRepository(redisClient)
	}

	return repos
}
