package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"promo-service/internal/middleware"
	"promo-service/internal/model"
	"promo-service/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RedemptionHandler handles redemption HTTP requests.
type RedemptionHandler struct {
	service service.RedemptionService
	logger  zerolog.Logger
}

// NewRedemptionHandler creates a new redemption handler.
func NewRedemptionHandler(service service.RedemptionService, logger zerolog.Logger) *RedemptionHandler {
	return &RedemptionHandler{
		service: service,
		logger:  logger.With().Str("handler", "redemption").Logger(),
	}
}

// Redeem handles PUT /promocode/{id}/redeem requests. The body is optional
// and carries only audit fields.
func (h *RedemptionHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, model.ErrPromoCodeNotFound, h.logger)
		return
	}

	var req model.RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	caller := middleware.CallerFromContext(r.Context())

	rec, err := h.service.Redeem(r.Context(), caller, id, req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// ListForCode handles GET /promocode/{id}/redeemed requests.
func (h *RedemptionHandler) ListForCode(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, model.ErrPromoCodeNotFound, h.logger)
		return
	}

	caller := middleware.CallerFromContext(r.Context())

	records, err := h.service.ListRedemptions(r.Context(), caller, &id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	if records == nil {
		records = []model.RedemptionRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

// List handles GET /redeemed requests: redemptions across all codes, scoped
// by caller privilege.
func (h *RedemptionHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())

	records, err := h.service.ListRedemptions(r.Context(), caller, nil)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	if records == nil {
		records = []model.RedemptionRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

// Delete handles DELETE /redeemed/{id} requests: the admin un-redeem
// override.
func (h *RedemptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, model.ErrRedemptionNotFound, h.logger)
		return
	}

	caller := middleware.CallerFromContext(r.Context())

	if err := h.service.DeleteRedemption(r.Context(), caller, id); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
