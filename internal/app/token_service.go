package app

import (
	"context"
	"errors"
	"time"

	"github.com/testmatestudio/licensing/internal/metrics"
	"github.com/testmatestudio/licensing/pkg/domain/license"
	"github.com/testmatestudio/licensing/pkg/logger"
	"github.com/testmatestudio/licensing/pkg/token"
)

// TokenService validates license tokens. Validation is a pure
// read-and-check: it never mutates state and is safe to run concurrently
// on every request.
type TokenService struct {
	verifier    *token.Verifier
	licenseRepo license.Repository
	logger      *logger.Logger
}

// NewTokenService creates a new TokenService.
func NewTokenService(verifier *token.Verifier, licenseRepo license.Repository, log *logger.Logger) *TokenService {
	return &TokenService{
		verifier:    verifier,
		licenseRepo: licenseRepo,
		logger:      log.With("service", "token"),
	}
}

// Validate decodes and verifies a license token, then checks the stored
// record for revocation. Failure reasons stay distinct:
// token.ErrMalformed, token.ErrSignatureMismatch, token.ErrExpired,
// license.ErrNotFound, license.ErrRevoked.
func (s *TokenService) Validate(ctx context.Context, tokenString string) (*license.License, error) {
	claims, err := s.verifier.Verify(tokenString)
	if err != nil {
		metrics.TokenValidationsTotal.WithLabelValues(validationResult(err)).Inc()
		return nil, err
	}

	id, err := claims.LicenseSharedID()
	if err != nil {
		metrics.TokenValidationsTotal.WithLabelValues("malformed").Inc()
		return nil, token.ErrMalformed
	}

	lic, err := s.licenseRepo.GetByID(ctx, id)
	if err != nil {
		metrics.TokenValidationsTotal.WithLabelValues("not_found").Inc()
		return nil, err
	}

	if lic.Revoked() {
		metrics.TokenValidationsTotal.WithLabelValues("revoked").Inc()
		return nil, license.ErrRevoked
	}

	// The signature already pins the expiry, but the store is
	// authoritative after an extension re-issued the token.
	if lic.IsExpiredAt(time.Now().UTC()) {
		metrics.TokenValidationsTotal.WithLabelValues("expired").Inc()
		return nil, license.ErrExpired
	}

	metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()
	return lic, nil
}

func validationResult(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, token.ErrSignatureMismatch):
		return "signature_mismatch"
	default:
		return "malformed"
	}
}
