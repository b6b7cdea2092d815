// Command server runs the licensing and entitlement API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/testmatestudio/licensing/internal/config"
	"github.com/testmatestudio/licensing/internal/infra/http"
	"github.com/testmatestudio/licensing/internal/infra/http/routes"
	"github.com/testmatestudio/licensing/internal/infra/postgres"
	redisinfra "github.com/testmatestudio/licensing/internal/infra/redis"
	"github.com/testmatestudio/licensing/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault().Error("failed to load configuration", "error", err)
		return 1
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	log.Info("starting application", "app", cfg.App.Name, "env", cfg.App.Env, "store", cfg.Store.Backend)

	// Stores
	var db *postgres.DB
	if cfg.Store.Backend == config.StorePostgres {
		db, err = postgres.New(&cfg.Database)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			return 1
		}
		defer closeWithLog(db, "database", log)

		if err := db.EnsureSchema(context.Background()); err != nil {
			log.Error("failed to apply database schema", "error", err)
			return 1
		}
		log.Info("database connected")
	}

	var redisClient *redisinfra.Client
	if cfg.Store.UseRedisCounters {
		redisClient, err = redisinfra.New(&cfg.Redis, log)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			return 1
		}
		defer closeWithLog(redisClient, "redis", log)
	}

	// Repositories and services
	repos := NewRepositories(cfg, db, redisClient)
	services, err := NewServices(cfg, repos, log)
	if err != nil {
		log.Error("failed to initialize services", "error", err)
		return 1
	}
	log.Info("services initialized")

	// HTTP server
	server := http.NewServer(cfg, log)
	routeServices := routes.Services{
		Trials:       services.Trials,
		Tokens:       services.Tokens,
		Entitlements: services.Entitlements,
		Admins:       services.Admins,
		Stats:        services.Stats,
		Catalog:      services.Catalog,
	}
	if db != nil {
		routeServices.DBPinger = db
	}
	if redisClient != nil {
		routeServices.RedisPinger = redisClient
	}
	routes.Register(server, cfg, routeServices, log)

	// Run until a termination signal arrives.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start()
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	log.Info("application started", "http_addr", cfg.Server.Addr())

	if err := g.Wait(); err != nil {
		log.Error("application error", "error", err)
		return 1
	}

	log.Info("application stopped")
	return 0
}

type closer interface {
	Close() error
}

func closeWithLog(c closer, name string, log *logger.Logger) {
	if err := c.Close(); err != nil {
		log.Error("failed to close "+name, "error", err)
	}
}
