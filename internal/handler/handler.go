package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"promo-service/internal/model"

	"github.com/rs/zerolog"
)

// Error categories used in responses.
const (
	errCategoryValidation  = "validation_error"
	errCategoryEligibility = "eligibility_error"
	errCategoryNotFound    = "not_found"
	errCategoryForbidden   = "forbidden"
	errCategoryBadRequest  = "bad_request"
	errCategoryInternal    = "internal_error"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing useful left to do.
		return
	}
}

// writeError writes a bad-request style error with a fixed category.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Warn().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: errCategoryBadRequest, Message: message})
}

// writeDomainError maps a domain error to its HTTP shape. Anything outside
// the taxonomy is a 500 with no internal detail leaked.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var verr *model.ValidationError
	var nferr *model.NotFoundError
	var elerr *model.EligibilityError
	var autherr *model.AuthorizationError

	switch {
	case errors.As(err, &verr):
		logger.Warn().Str("field", verr.Field).Str("error", verr.Message).Msg("validation failed")
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   errCategoryValidation,
			Field:   verr.Field,
			Message: verr.Message,
		})

	case errors.As(err, &elerr):
		logger.Info().Str("reason", elerr.Reason).Msg("redemption not eligible")
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   errCategoryEligibility,
			Reason:  elerr.Reason,
			Message: elerr.Message,
		})

	case errors.As(err, &nferr):
		writeJSON(w, http.StatusNotFound, model.ErrorResponse{
			Error:   errCategoryNotFound,
			Message: nferr.Error(),
		})

	case errors.As(err, &autherr):
		writeJSON(w, http.StatusForbidden, model.ErrorResponse{
			Error:   errCategoryForbidden,
			Message: autherr.Message,
		})

	default:
		logger.Error().Err(err).Msg("internal error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   errCategoryInternal,
			Message: "internal server error",
		})
	}
}
