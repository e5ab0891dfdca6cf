// Package validation holds the pure input-validation pipeline for promo
// codes. Each rule is a plain function from input to *model.ValidationError;
// the exported entry points compose them in a fixed order and return the
// normalized record on success. Uniqueness of the normalized code is not
// checked here: it needs storage access and is enforced by the service layer
// plus the database unique index.
package validation

import (
	"time"

	"promo-service/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxPercent is the largest permitted amount for a percent-kind code. The
// amount is a fraction (0.10 = 10%), not a 0-100 scale.
var maxPercent = decimal.NewFromInt(1)

// ValidateCreate validates a create request and returns the normalized promo
// code draft. The draft has no ID or timestamps; the repository assigns
// those. Any client-supplied normalized code is discarded and re-derived.
func ValidateCreate(req model.PromoCodeCreateRequest, now time.Time) (*model.PromoCode, error) {
	draft := model.PromoCode{
		Code:           req.Code,
		CodeNormalized: model.NormalizeCode(req.Code),
		Kind:           req.Kind,
		Amount:         decimal.Zero,
		ExpiresAt:      req.ExpiresAt,
		BoundToUser:    req.BoundToUser,
		OwnerUserID:    req.OwnerUserID,
	}
	if req.Amount != nil {
		draft.Amount = *req.Amount
	}
	if req.RepeatLimit != nil {
		draft.RepeatLimit = *req.RepeatLimit
	}

	checks := []func() *model.ValidationError{
		func() *model.ValidationError { return checkCode(draft.Code) },
		func() *model.ValidationError { return checkKind(draft.Kind) },
		func() *model.ValidationError { return checkAmount(draft.Kind, draft.Amount) },
		func() *model.ValidationError { return checkExpiry(draft.ExpiresAt, now) },
		func() *model.ValidationError { return checkBinding(draft.BoundToUser, draft.OwnerUserID) },
		func() *model.ValidationError { return checkRepeatLimit(draft.RepeatLimit) },
	}
	for _, check := range checks {
		if verr := check(); verr != nil {
			return nil, verr
		}
	}

	return &draft, nil
}

// ValidateUpdate merges an update request into the existing record and
// validates the merged state. The expiry rule only fires when the request
// actually supplies a new expiry, so a code whose expiry has already passed
// can still have its other fields updated. Binding fields are not part of
// the update payload and are carried over untouched.
func ValidateUpdate(existing model.PromoCode, req model.PromoCodeUpdateRequest, now time.Time) (*model.PromoCode, error) {
	merged := existing
	if req.Code != nil {
		merged.Code = *req.Code
		merged.CodeNormalized = model.NormalizeCode(*req.Code)
	}
	if req.Kind != nil {
		merged.Kind = *req.Kind
	}
	if req.Amount != nil {
		merged.Amount = *req.Amount
	}
	if req.ExpiresAt != nil {
		merged.ExpiresAt = req.ExpiresAt
	}
	if req.RepeatLimit != nil {
		merged.RepeatLimit = *req.RepeatLimit
	}

	checks := []func() *model.ValidationError{
		func() *model.ValidationError { return checkCode(merged.Code) },
		func() *model.ValidationError { return checkKind(merged.Kind) },
		func() *model.ValidationError { return checkAmount(merged.Kind, merged.Amount) },
		func() *model.ValidationError {
			if req.ExpiresAt == nil {
				return nil
			}
			return checkExpiry(merged.ExpiresAt, now)
		},
		func() *model.ValidationError { return checkRepeatLimit(merged.RepeatLimit) },
	}
	for _, check := range checks {
		if verr := check(); verr != nil {
			return nil, verr
		}
	}

	return &merged, nil
}

func checkCode(code string) *model.ValidationError {
	if code == "" {
		return model.NewValidationError("code", "is required")
	}
	return nil
}

func checkKind(kind model.PromoKind) *model.ValidationError {
	if !kind.Valid() {
		return model.NewValidationError("kind", "must be one of: percent, value")
	}
	return nil
}

func checkAmount(kind model.PromoKind, amount decimal.Decimal) *model.ValidationError {
	if kind == model.PromoKindPercent && amount.GreaterThan(maxPercent) {
		return model.NewValidationError("amount", "percentage discount greater than 100%")
	}
	return nil
}

func checkExpiry(expiresAt *time.Time, now time.Time) *model.ValidationError {
	if expiresAt != nil && !expiresAt.After(now) {
		return model.NewValidationError("expiresAt", "must be in the future")
	}
	return nil
}

func checkBinding(bound bool, owner *uuid.UUID) *model.ValidationError {
	if bound && owner == nil {
		return model.NewValidationError("ownerUserId", "required when code is bound to a user")
	}
	return nil
}

func checkRepeatLimit(limit int) *model.ValidationError {
	if limit < 0 {
		return model.NewValidationError("repeatLimit", "must be 0 for unlimited, otherwise greater than 0")
	}
	return nil
}
