package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/testmatestudio/licensing/internal/metrics"
	"github.com/testmatestudio/licensing/pkg/domain/admin"
	"github.com/testmatestudio/licensing/pkg/domain/license"
	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
	"github.com/testmatestudio/licensing/pkg/logger"
	"github.com/testmatestudio/licensing/pkg/password"
)

// dummyHash is a bcrypt hash compared against when the username is
// unknown, so login latency does not reveal whether the account exists.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// AdminService is the authenticated surface for issuance, revocation, and
// inspection. Sessions are short-lived and re-validated on every call;
// there is no remember-me path.
type AdminService struct {
	adminRepo       admin.Repository
	sessionRepo     admin.SessionRepository
	licenseRepo     license.Repository
	issuer          *IssuerService
	hasher          *password.Hasher
	sessionDuration time.Duration
	logger          *logger.Logger
}

// NewAdminService creates a new AdminService.
func NewAdminService(
	adminRepo admin.Repository,
	sessionRepo admin.SessionRepository,
	licenseRepo license.Repository,
	issuer *IssuerService,
	hasher *password.Hasher,
	sessionDuration time.Duration,
	log *logger.Logger,
) *AdminService {
	return &AdminService{
		adminRepo:       adminRepo,
		sessionRepo:     sessionRepo,
		licenseRepo:     licenseRepo,
		issuer:          issuer,
		hasher:          hasher,
		sessionDuration: sessionDuration,
		logger:          log.With("service", "admin"),
	}
}

// Register creates a new administrator account. Used by the bootstrap
// command; there is no self-service registration.
func (s *AdminService) Register(ctx context.Context, username, plaintext string) (*admin.Identity, error) {
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	identity, err := admin.NewIdentity(username, hash)
	if err != nil {
		return nil, err
	}

	if err := s.adminRepo.Create(ctx, identity); err != nil {
		return nil, fmt.Errorf("persist admin identity: %w", err)
	}

	s.logger.Info("admin account created", "username", username)
	return identity, nil
}

// Login verifies credentials and issues a session token. All credential
// failures collapse into admin.ErrAuthenticationFailed so callers cannot
// distinguish an unknown user from a wrong password.
func (s *AdminService) Login(ctx context.Context, username, plaintext string) (string, time.Time, error) {
	identity, err := s.adminRepo.GetByUsername(ctx, username)
	if err != nil {
		if shared.IsStoreUnavailable(err) {
			return "", time.Time{}, err
		}
		// Burn a hash comparison to equalize timing with the known-user path.
		_ = s.hasher.Verify(plaintext, dummyHash)
		metrics.AdminLoginsTotal.WithLabelValues("failed").Inc()
		return "", time.Time{}, admin.ErrAuthenticationFailed
	}

	if err := s.hasher.Verify(plaintext, identity.PasswordHash()); err != nil {
		metrics.AdminLoginsTotal.WithLabelValues("failed").Inc()
		return "", time.Time{}, admin.ErrAuthenticationFailed
	}

	tokenString, err := password.GenerateSessionToken()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate session token: %w", err)
	}

	session := admin.NewSession(identity.ID(), tokenString, s.sessionDuration)
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return "", time.Time{}, fmt.Errorf("persist admin session: %w", err)
	}

	metrics.AdminLoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info("admin logged in", "username", username)
	return tokenString, session.ExpiresAt(), nil
}

// Authenticate checks a session token. Expired sessions are removed and
// reported; callers must re-login.
func (s *AdminService) Authenticate(ctx context.Context, tokenString string) (*admin.Session, error) {
	if tokenString == "" {
		return nil, admin.ErrAuthenticationFailed
	}

	session, err := s.sessionRepo.GetByTokenHash(ctx, admin.HashToken(tokenString))
	if err != nil {
		if shared.IsStoreUnavailable(err) {
			return nil, err
		}
		return nil, admin.ErrAuthenticationFailed
	}

	if session.IsExpiredAt(time.Now().UTC()) {
		_ = s.sessionRepo.Delete(ctx, session.TokenHash())
		return nil, admin.ErrSessionExpired
	}

	return session, nil
}

// Logout removes a session.
func (s *AdminService) Logout(ctx context.Context, tokenString string) error {
	return s.sessionRepo.Delete(ctx, admin.HashToken(tokenString))
}

// CreateLicense issues a license on behalf of an administrator.
func (s *AdminService) CreateLicense(ctx context.Context, holder string, tier plan.Tier, durationDays int) (*license.License, string, error) {
	return s.issuer.Issue(ctx, holder, tier, durationDays)
}

// RevokeLicense marks a license revoked. Revocation is monotonic; the
// record is retained for audit, never erased.
func (s *AdminService) RevokeLicense(ctx context.Context, id shared.ID) error {
	if err := s.licenseRepo.Revoke(ctx, id); err != nil {
		return err
	}
	metrics.LicensesRevokedTotal.Inc()
	s.logger.Info("license revoked", "license_id", id.String())
	return nil
}

// ExtendLicense pushes a license's expiry forward and returns the
// re-signed token. Revoked licenses cannot be extended.
func (s *AdminService) ExtendLicense(ctx context.Context, id shared.ID, days int) (*license.License, string, error) {
	lic, err := s.licenseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if lic.Revoked() {
		return nil, "", license.ErrRevoked
	}

	if err := lic.Extend(days); err != nil {
		return nil, "", err
	}
	if err := s.licenseRepo.Update(ctx, lic); err != nil {
		return nil, "", fmt.Errorf("persist license extension: %w", err)
	}

	signed, err := s.issuer.ResignToken(lic)
	if err != nil {
		return nil, "", fmt.Errorf("re-sign extended license: %w", err)
	}

	s.logger.Info("license extended", "license_id", id.String(), "days", days, "expires_at", lic.ExpiresAt())
	return lic, signed, nil
}

// ListLicenses returns every license for operational visibility.
func (s *AdminService) ListLicenses(ctx context.Context) ([]*license.License, error) {
	return s.licenseRepo.List(ctx)
}

// IsAuthFailure reports whether the error is any admin authentication
// failure (bad credentials, missing or expired session).
func IsAuthFailure(err error) bool {
	return errors.Is(err, admin.ErrAuthenticationFailed) || errors.Is(err, admin.ErrSessionExpired)
}
