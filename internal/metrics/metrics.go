// Package metrics defines Prometheus collectors for the licensing engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// License lifecycle metrics
var (
	// LicensesIssuedTotal tracks issued licenses by tier and origin.
	LicensesIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "licenses_issued_total",
			Help: "Total number of licenses issued by tier and origin",
		},
		[]string{"tier", "origin"},
	)

	// LicensesRevokedTotal tracks revocations.
	LicensesRevokedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "licenses_revoked_total",
			Help: "Total number of license revocations",
		},
	)

	// TokenValidationsTotal tracks token validations by result.
	TokenValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_validations_total",
			Help: "Total number of license token validations by result",
		},
		[]string{"result"},
	)

	// TrialStartsTotal tracks trial activation attempts by result.
	TrialStartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trial_starts_total",
			Help: "Total number of trial activation attempts by result",
		},
		[]string{"result"},
	)
)

// Entitlement enforcement metrics
var (
	// AuthorizationsTotal tracks allow/deny decisions per operation.
	AuthorizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authorizations_total",
			Help: "Total number of entitlement decisions by operation and decision",
		},
		[]string{"operation", "decision"},
	)

	// AdminLoginsTotal tracks admin login attempts by result.
	AdminLoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_logins_total",
			Help: "Total number of admin login attempts by result",
		},
		[]string{"result"},
	)
)

// HTTP metrics
var (
	// HTTPRequestsTotal tracks HTTP requests by method, path and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "path"},
	)
)
