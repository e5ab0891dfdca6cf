package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromoKind distinguishes percentage discounts from fixed-value discounts.
type PromoKind string

const (
	// PromoKindPercent is a fractional discount; amount must be <= 1.0.
	PromoKindPercent PromoKind = "percent"

	// PromoKindValue is a fixed monetary discount.
	PromoKindValue PromoKind = "value"
)

// Valid reports whether the kind is one of the supported discount kinds.
func (k PromoKind) Valid() bool {
	return k == PromoKindPercent || k == PromoKindValue
}

// PromoCode represents a discount code definition.
type PromoCode struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Code           string          `json:"code" db:"code"`
	CodeNormalized string          `json:"codeNormalized" db:"code_normalized"`
	Kind           PromoKind       `json:"kind" db:"kind"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	ExpiresAt      *time.Time      `json:"expiresAt,omitempty" db:"expires_at"`
	BoundToUser    bool            `json:"boundToUser" db:"bound_to_user"`
	OwnerUserID    *uuid.UUID      `json:"ownerUserId,omitempty" db:"owner_user_id"`
	RepeatLimit    int             `json:"repeatLimit" db:"repeat_limit"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

// NormalizeCode returns the lowercase form of a code used for uniqueness
// checks and lookups.
func NormalizeCode(code string) string {
	return strings.ToLower(code)
}

// PromoCodeCreateRequest is the request payload for creating a promo code.
// Any client-supplied normalized code is ignored; it is always derived.
type PromoCodeCreateRequest struct {
	Code        string           `json:"code"`
	Kind        PromoKind        `json:"kind"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	ExpiresAt   *time.Time       `json:"expiresAt,omitempty"`
	BoundToUser bool             `json:"boundToUser"`
	OwnerUserID *uuid.UUID       `json:"ownerUserId,omitempty"`
	RepeatLimit *int             `json:"repeatLimit,omitempty"`
}

// PromoCodeUpdateRequest is the request payload for updating a promo code.
// The binding fields are deliberately absent: binding is decided at creation
// time and cannot be changed afterwards. Nil fields keep their current value.
type PromoCodeUpdateRequest struct {
	Code        *string          `json:"code,omitempty"`
	Kind        *PromoKind       `json:"kind,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	ExpiresAt   *time.Time       `json:"expiresAt,omitempty"`
	RepeatLimit *int             `json:"repeatLimit,omitempty"`
}

// PromoCodeFilter holds the supported listing filters.
type PromoCodeFilter struct {
	OwnerUserID *uuid.UUID
	Bound       *bool
	Kind        *PromoKind
	MinValue    *decimal.Decimal
	MaxValue    *decimal.Decimal
	Search      string
}
