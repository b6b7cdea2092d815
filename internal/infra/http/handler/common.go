// Package handler contains the HTTP handlers for the licensing API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/testmatestudio/licensing/internal/app"
	"github.com/testmatestudio/licensing/pkg/apierror"
	"github.com/testmatestudio/licensing/pkg/domain/admin"
	"github.com/testmatestudio/licensing/pkg/domain/license"
	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
	"github.com/testmatestudio/licensing/pkg/domain/trial"
	"github.com/testmatestudio/licensing/pkg/logger"
	"github.com/testmatestudio/licensing/pkg/token"
)

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

// respondError maps a domain error onto the API error taxonomy. Every
// deny and failure reason keeps its own code so clients can branch
// without string matching; only store failures are retryable.
func respondError(w http.ResponseWriter, log *logger.Logger, err error) {
	apiErr := classifyError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		log.Error("request failed", "error", err)
	}
	apiErr.WriteJSON(w)
}

func classifyError(err error) *apierror.Error {
	switch {
	case errors.Is(err, token.ErrMalformed):
		return apierror.New(http.StatusBadRequest, apierror.CodeMalformedToken,
			"License token is malformed")
	case errors.Is(err, token.ErrSignatureMismatch):
		return apierror.New(http.StatusUnauthorized, apierror.CodeSignatureMismatch,
			"License token signature does not verify")
	case errors.Is(err, token.ErrExpired), errors.Is(err, license.ErrExpired):
		return apierror.New(http.StatusForbidden, apierror.CodeLicenseExpired,
			"License has expired")
	case errors.Is(err, license.ErrRevoked):
		return apierror.New(http.StatusForbidden, apierror.CodeLicenseRevoked,
			"License has been revoked")
	case errors.Is(err, trial.ErrAlreadyConsumed):
		return apierror.New(http.StatusConflict, apierror.CodeTrialAlreadyConsumed,
			"Trial has already been used for this identity")
	case errors.Is(err, app.ErrQuotaExceeded):
		return apierror.New(http.StatusForbidden, apierror.CodeQuotaExceeded,
			"Usage quota for this operation is exhausted")
	case errors.Is(err, app.ErrFeatureNotIncluded):
		return apierror.New(http.StatusForbidden, apierror.CodeFeatureNotIncluded,
			"Feature is not included in the license plan")
	case errors.Is(err, app.ErrUnknownOperation):
		return apierror.BadRequest("Unknown operation")
	case errors.Is(err, admin.ErrAuthenticationFailed), errors.Is(err, admin.ErrSessionExpired):
		return apierror.New(http.StatusUnauthorized, apierror.CodeAuthenticationFailed,
			"Authentication failed")
	case errors.Is(err, plan.ErrUnknownTier),
		errors.Is(err, license.ErrInvalidDuration),
		errors.Is(err, license.ErrInvalidHolder):
		return apierror.Wrap(err, http.StatusBadRequest, apierror.CodeIssuanceError,
			"License cannot be issued: "+err.Error())
	case errors.Is(err, license.ErrNotFound), errors.Is(err, trial.ErrNotFound),
		errors.Is(err, shared.ErrNotFound):
		return apierror.NotFound("")
	case errors.Is(err, shared.ErrAlreadyExists):
		return apierror.Conflict("Resource already exists")
	case shared.IsStoreUnavailable(err):
		return apierror.Wrap(err, http.StatusServiceUnavailable, apierror.CodeStoreUnavailable,
			"Store temporarily unavailable, retry later")
	default:
		return apierror.InternalError(err)
	}
}
