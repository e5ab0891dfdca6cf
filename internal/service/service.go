package service

import (
	"context"

	"promo-service/internal/model"

	"github.com/google/uuid"
)

// PromoCodeService defines the business operations on promo codes.
// Operations marked admin-only return *model.AuthorizationError for other
// callers.
type PromoCodeService interface {
	// Create validates and persists a new promo code. Admin-only.
	Create(ctx context.Context, caller model.Caller, req model.PromoCodeCreateRequest) (*model.PromoCode, error)

	// Retrieve looks up a promo code by UUID or by literal code text.
	// Open to anonymous callers: a code's existence and terms are not
	// secret.
	Retrieve(ctx context.Context, identifier string) (*model.PromoCode, error)

	// Update validates and persists changes to an existing promo code.
	// The binding decision is immutable and not part of the request.
	// Admin-only.
	Update(ctx context.Context, caller model.Caller, id uuid.UUID, req model.PromoCodeUpdateRequest) (*model.PromoCode, error)

	// Delete removes a promo code and its redemption history. Admin-only.
	Delete(ctx context.Context, caller model.Caller, id uuid.UUID) error

	// List returns promo codes matching the filter. Admins see every
	// record; other callers see only codes bound to them.
	List(ctx context.Context, caller model.Caller, filter model.PromoCodeFilter) ([]model.PromoCode, error)
}

// RedemptionService defines the redemption engine: eligibility-checked
// appends to the redemption log, scoped listings, and the admin un-redeem
// override.
type RedemptionService interface {
	// Redeem checks eligibility (expiry, binding, usage cap, in that
	// order) and appends a redemption record for the caller.
	Redeem(ctx context.Context, caller model.Caller, promoCodeID uuid.UUID, req model.RedeemRequest) (*model.RedemptionRecord, error)

	// ListRedemptions returns redemption records, optionally scoped to one
	// promo code. Admins see every record; other callers only their own.
	ListRedemptions(ctx context.Context, caller model.Caller, promoCodeID *uuid.UUID) ([]model.RedemptionRecord, error)

	// DeleteRedemption removes a redemption record, restoring one unit of
	// usage capacity. Admin-only.
	DeleteRedemption(ctx context.Context, caller model.Caller, id uuid.UUID) error
}
