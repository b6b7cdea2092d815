package handler

import (
	"net/http"
	"time"

	"github.com/testmatestudio/licensing/internal/app"
	"github.com/testmatestudio/licensing/pkg/apierror"
	"github.com/testmatestudio/licensing/pkg/domain/license"
	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/logger"
	"github.com/testmatestudio/licensing/pkg/validator"
)

// LicenseHandler serves the public license surface: trial activation,
// token verification, entitlement checks, status, and pricing.
type LicenseHandler struct {
	trials       *app.TrialService
	tokens       *app.TokenService
	entitlements *app.EntitlementService
	catalog      *plan.Catalog
	validator    *validator.Validator
	logger       *logger.Logger
}

// NewLicenseHandler creates a new LicenseHandler.
func NewLicenseHandler(
	trials *app.TrialService,
	tokens *app.TokenService,
	entitlements *app.EntitlementService,
	catalog *plan.Catalog,
	log *logger.Logger,
) *LicenseHandler {
	return &LicenseHandler{
		trials:       trials,
		tokens:       tokens,
		entitlements: entitlements,
		catalog:      catalog,
		validator:    validator.New(),
		logger:       log.With("handler", "license"),
	}
}

// LicenseResponse is the serialized license summary returned after
// issuance and verification. The signed token is only present on
// issuance responses.
type LicenseResponse struct {
	LicenseID    string         `json:"license_id"`
	Holder       string         `json:"holder"`
	Tier         plan.Tier      `json:"tier"`
	IssuedAt     time.Time      `json:"issued_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	ProjectLimit int            `json:"project_limit"`
	Features     []plan.Feature `json:"features"`
	Token        string         `json:"token,omitempty"`
}

func newLicenseResponse(lic *license.License, signed string) LicenseResponse {
	return LicenseResponse{
		LicenseID:    lic.ID().String(),
		Holder:       lic.Holder(),
		Tier:         lic.Tier(),
		IssuedAt:     lic.IssuedAt(),
		ExpiresAt:    lic.ExpiresAt(),
		ProjectLimit: lic.ProjectLimit(),
		Features:     lic.Features(),
		Token:        signed,
	}
}

// StartTrialRequest is the request body for trial activation.
type StartTrialRequest struct {
	Holder string `json:"holder" validate:"required,max=255"`
}

// StartTrial activates the holder's one-time trial and returns the signed
// trial license. A second attempt returns 409 TRIAL_ALREADY_CONSUMED.
func (h *LicenseHandler) StartTrial(w http.ResponseWriter, r *http.Request) {
	var req StartTrialRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		apierror.ValidationFailed("Validation failed", err).WriteJSON(w)
		return
	}

	lic, signed, err := h.trials.Start(r.Context(), req.Holder)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, newLicenseResponse(lic, signed))
}

// TrialStatusResponse reports a holder's trial state.
type TrialStatusResponse struct {
	Consumed  bool      `json:"consumed"`
	Active    bool      `json:"active"`
	StartedAt time.Time `json:"started_at,omitzero"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// TrialStatus returns whether the holder's trial was used and whether it
// is still running. Unknown holders get a zero-value response, not 404.
func (h *LicenseHandler) TrialStatus(w http.ResponseWriter, r *http.Request) {
	holder := r.URL.Query().Get("holder")
	if holder == "" {
		apierror.BadRequest("holder query parameter is required").WriteJSON(w)
		return
	}

	state, err := h.trials.Get(r.Context(), holder)
	if err != nil {
		respondJSON(w, http.StatusOK, TrialStatusResponse{})
		return
	}

	respondJSON(w, http.StatusOK, TrialStatusResponse{
		Consumed:  state.Consumed(),
		Active:    state.IsActiveAt(time.Now().UTC()),
		StartedAt: state.StartedAt(),
		ExpiresAt: state.ExpiresAt(),
	})
}

// VerifyRequest is the request body for token verification.
type VerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

// Verify checks a license token's signature, expiry, and revocation and
// returns the stored license on success. Each failure reason keeps its
// own error code.
func (h *LicenseHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		apierror.ValidationFailed("Validation failed", err).WriteJSON(w)
		return
	}

	lic, err := h.tokens.Validate(r.Context(), req.Token)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, newLicenseResponse(lic, ""))
}

// AuthorizeRequest is the request body for entitlement checks.
type AuthorizeRequest struct {
	Token     string `json:"token" validate:"required"`
	Operation string `json:"operation" validate:"required,operation"`
	// Consume records the usage when true; a false value is a pure
	// read-only check.
	Consume bool `json:"consume"`
}

// AuthorizeResponse reports the entitlement decision.
type AuthorizeResponse struct {
	Allowed   bool   `json:"allowed"`
	Operation string `json:"operation"`
	Count     int    `json:"count,omitempty"`
}

// Authorize validates the token and decides whether the holder may
// perform the operation. With consume=true the usage counter is
// incremented atomically with the limit check.
func (h *LicenseHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	var req AuthorizeRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		apierror.ValidationFailed("Validation failed", err).WriteJSON(w)
		return
	}

	lic, err := h.tokens.Validate(r.Context(), req.Token)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var count int
	if req.Consume {
		count, err = h.entitlements.Consume(r.Context(), lic, req.Operation)
	} else {
		err = h.entitlements.Authorize(r.Context(), lic, req.Operation)
	}
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, AuthorizeResponse{
		Allowed:   true,
		Operation: req.Operation,
		Count:     count,
	})
}

// Status returns the holder's current license, expiry, and usage against
// limits.
func (h *LicenseHandler) Status(w http.ResponseWriter, r *http.Request) {
	holder := r.URL.Query().Get("holder")
	if holder == "" {
		apierror.BadRequest("holder query parameter is required").WriteJSON(w)
		return
	}

	status, err := h.entitlements.Status(r.Context(), holder)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// PricingResponse lists the purchasable plans.
type PricingResponse struct {
	Plans []plan.Plan `json:"plans"`
}

// Pricing returns the plan catalog ordered by price.
func (h *LicenseHandler) Pricing(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, PricingResponse{Plans: h.catalog.All()})
}
