// Package routes registers the HTTP surface onto the router.
package routes

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/testmatestudio/licensing/internal/app"
	"github.com/testmatestudio/licensing/internal/config"
	"github.com/testmatestudio/licensing/internal/infra/http"
	"github.com/testmatestudio/licensing/internal/infra/http/handler"
	"github.com/testmatestudio/licensing/internal/infra/http/middleware"
	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/logger"
)

// Services bundles the application services the routes depend on. The
// pingers are optional; nil ones are skipped by the readiness probe.
type Services struct {
	Trials       *app.TrialService
	Tokens       *app.TokenService
	Entitlements *app.EntitlementService
	Admins       *app.AdminService
	Stats        *app.StatsService
	Catalog      *plan.Catalog
	DBPinger     handler.Pinger
	RedisPinger  handler.Pinger
}

// Register wires all handlers onto the server's router. The login rate
// limiter's cleanup loop is hooked into the server's shutdown.
func Register(server *http.Server, cfg *config.Config, services Services, log *logger.Logger) {
	licenses := handler.NewLicenseHandler(
		services.Trials,
		services.Tokens,
		services.Entitlements,
		services.Catalog,
		log,
	)
	admins := handler.NewAdminHandler(services.Admins, services.Stats, log)

	var healthOpts []handler.HealthHandlerOption
	if services.DBPinger != nil {
		healthOpts = append(healthOpts, handler.WithDatabase(services.DBPinger))
	}
	if services.RedisPinger != nil {
		healthOpts = append(healthOpts, handler.WithRedis(services.RedisPinger))
	}
	health := handler.NewHealthHandler(healthOpts...)

	r := server.Router()

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/metrics", promhttp.Handler().ServeHTTP)

	var loginLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		loginLimiter = middleware.NewRateLimiter(&cfg.RateLimit, log)
		server.OnShutdown(loginLimiter.Stop)
	}

	r.Group("/api/v1", func(api http.Router) {
		api.Group("/license", func(lr http.Router) {
			lr.GET("/status", licenses.Status)
			lr.GET("/trial", licenses.TrialStatus)
			lr.POST("/trial", licenses.StartTrial)
			lr.POST("/verify", licenses.Verify)
			lr.POST("/authorize", licenses.Authorize)
			lr.GET("/pricing", licenses.Pricing)
		})

		api.Group("/admin", func(ar http.Router) {
			if loginLimiter != nil {
				ar.POST("/login", admins.Login, loginLimiter.Middleware())
			} else {
				ar.POST("/login", admins.Login)
			}

			auth := middleware.AdminAuth(services.Admins)
			ar.POST("/logout", admins.Logout, auth)
			ar.POST("/licenses", admins.CreateLicense, auth)
			ar.GET("/licenses", admins.ListLicenses, auth)
			ar.POST("/licenses/{id}/revoke", admins.RevokeLicense, auth)
			ar.POST("/licenses/{id}/extend", admins.ExtendLicense, auth)
			ar.GET("/statistics", admins.Statistics, auth)
			ar.GET("/users", admins.Users, auth)
		})
	})
}
