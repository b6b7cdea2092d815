package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/testmatestudio/licensing/internal/app"
	"github.com/testmatestudio/licensing/internal/infra/http/middleware"
	"github.com/testmatestudio/licensing/pkg/apierror"
	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
	"github.com/testmatestudio/licensing/pkg/logger"
	"github.com/testmatestudio/licensing/pkg/validator"
)

// AdminHandler serves the authenticated admin surface: login, license
// issuance and revocation, extension, and operational statistics.
type AdminHandler struct {
	admins    *app.AdminService
	stats     *app.StatsService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admins *app.AdminService, stats *app.StatsService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		admins:    admins,
		stats:     stats,
		validator: validator.New(),
		logger:    log.With("handler", "admin"),
	}
}

// LoginRequest is the request body for admin login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

// LoginResponse carries the session token. The token is returned once
// and never stored server-side in plaintext.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login authenticates an administrator and issues a session token for
// the X-Admin-Token header.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		apierror.ValidationFailed("Validation failed", err).WriteJSON(w)
		return
	}

	tokenString, expiresAt, err := h.admins.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{Token: tokenString, ExpiresAt: expiresAt})
}

// Logout invalidates the current admin session.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.admins.Logout(r.Context(), r.Header.Get(middleware.AdminTokenHeader)); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// CreateLicenseRequest is the request body for admin license issuance.
type CreateLicenseRequest struct {
	Holder string `json:"holder" validate:"required,max=255"`
	Tier   string `json:"tier" validate:"required,tier"`
	// DurationDays overrides the plan's default duration when positive.
	DurationDays int `json:"duration_days"`
}

// CreateLicense issues a license for any tier on behalf of an
// administrator.
func (h *AdminHandler) CreateLicense(w http.ResponseWriter, r *http.Request) {
	var req CreateLicenseRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		apierror.ValidationFailed("Validation failed", err).WriteJSON(w)
		return
	}

	tier := plan.Tier(req.Tier)
	lic, signed, err := h.admins.CreateLicense(r.Context(), req.Holder, tier, req.DurationDays)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, newLicenseResponse(lic, signed))
}

// ListLicensesResponse wraps the full license listing.
type ListLicensesResponse struct {
	Licenses []LicenseDetail `json:"licenses"`
	Total    int             `json:"total"`
}

// LicenseDetail is the admin view of a license, including revocation
// state.
type LicenseDetail struct {
	LicenseResponse
	Revoked   bool      `json:"revoked"`
	RevokedAt time.Time `json:"revoked_at,omitzero"`
	Expired   bool      `json:"expired"`
}

// ListLicenses returns every license, most recent first.
func (h *AdminHandler) ListLicenses(w http.ResponseWriter, r *http.Request) {
	licenses, err := h.admins.ListLicenses(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	now := time.Now().UTC()
	out := make([]LicenseDetail, 0, len(licenses))
	for _, lic := range licenses {
		out = append(out, LicenseDetail{
			LicenseResponse: newLicenseResponse(lic, ""),
			Revoked:         lic.Revoked(),
			RevokedAt:       lic.RevokedAt(),
			Expired:         lic.IsExpiredAt(now),
		})
	}

	respondJSON(w, http.StatusOK, ListLicensesResponse{Licenses: out, Total: len(out)})
}

// RevokeLicense marks a license revoked. The operation is idempotent.
func (h *AdminHandler) RevokeLicense(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid license ID").WriteJSON(w)
		return
	}

	if err := h.admins.RevokeLicense(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// ExtendLicenseRequest is the request body for license extension.
type ExtendLicenseRequest struct {
	Days int `json:"days" validate:"required,gt=0"`
}

// ExtendLicense pushes a license's expiry forward and returns the
// re-signed token; the previous token stops verifying against the new
// expiry.
func (h *AdminHandler) ExtendLicense(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid license ID").WriteJSON(w)
		return
	}

	var req ExtendLicenseRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		apierror.ValidationFailed("Validation failed", err).WriteJSON(w)
		return
	}

	lic, signed, err := h.admins.ExtendLicense(r.Context(), id, req.Days)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, newLicenseResponse(lic, signed))
}

// Statistics returns license totals for the admin dashboard.
func (h *AdminHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	overview, err := h.stats.Overview(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, overview)
}

// Users lists every holder with their latest license and usage.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.stats.Users(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"total": len(users),
	})
}
