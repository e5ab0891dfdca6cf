package handler

import (
	"encoding/json"
	"net/http"

	"promo-service/internal/middleware"
	"promo-service/internal/model"
	"promo-service/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PromoCodeHandler handles promo code HTTP requests.
type PromoCodeHandler struct {
	service service.PromoCodeService
	logger  zerolog.Logger
}

// NewPromoCodeHandler creates a new promo code handler.
func NewPromoCodeHandler(service service.PromoCodeService, logger zerolog.Logger) *PromoCodeHandler {
	return &PromoCodeHandler{
		service: service,
		logger:  logger.With().Str("handler", "promocode").Logger(),
	}
}

// Create handles POST /promocode requests.
func (h *PromoCodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.PromoCodeCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	caller := middleware.CallerFromContext(r.Context())

	code, err := h.service.Create(r.Context(), caller, req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, code)
}

// Get handles GET /promocode/{id} requests. The identifier may be a promo
// code UUID or the literal code text; no authentication is required.
func (h *PromoCodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "id")
	if identifier == "" {
		writeError(w, http.StatusBadRequest, "promo code identifier is required", h.logger)
		return
	}

	code, err := h.service.Retrieve(r.Context(), identifier)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, code)
}

// Update handles PUT /promocode/{id} requests. A successful update returns
// 202 rather than 200, distinguishing it from creation.
func (h *PromoCodeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, model.ErrPromoCodeNotFound, h.logger)
		return
	}

	var req model.PromoCodeUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	caller := middleware.CallerFromContext(r.Context())

	code, err := h.service.Update(r.Context(), caller, id, req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusAccepted, code)
}

// Delete handles DELETE /promocode/{id} requests.
func (h *PromoCodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, model.ErrPromoCodeNotFound, h.logger)
		return
	}

	caller := middleware.CallerFromContext(r.Context())

	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /promocode requests with the filters user, bound, type,
// min_value, max_value and search.
func (h *PromoCodeHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parsePromoCodeFilter(r)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	caller := middleware.CallerFromContext(r.Context())

	codes, err := h.service.List(r.Context(), caller, filter)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	if codes == nil {
		codes = []model.PromoCode{}
	}

	writeJSON(w, http.StatusOK, codes)
}

// parsePromoCodeFilter parses listing filters from the query string.
func parsePromoCodeFilter(r *http.Request) (model.PromoCodeFilter, error) {
	var filter model.PromoCodeFilter
	q := r.URL.Query()

	if v := q.Get("user"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, model.NewValidationError("user", "must be a valid UUID")
		}
		filter.OwnerUserID = &id
	}

	if v := q.Get("bound"); v != "" {
		switch v {
		case "true":
			b := true
			filter.Bound = &b
		case "false":
			b := false
			filter.Bound = &b
		default:
			return filter, model.NewValidationError("bound", "must be true or false")
		}
	}

	if v := q.Get("type"); v != "" {
		kind := model.PromoKind(v)
		if !kind.Valid() {
			return filter, model.NewValidationError("type", "must be one of: percent, value")
		}
		filter.Kind = &kind
	}

	if v := q.Get("min_value"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return filter, model.NewValidationError("min_value", "must be a decimal number")
		}
		filter.MinValue = &d
	}

	if v := q.Get("max_value"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return filter, model.NewValidationError("max_value", "must be a decimal number")
		}
		filter.MaxValue = &d
	}

	filter.Search = q.Get("search")

	return filter, nil
}
