package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the user paid for the discounted purchase. It is
// recorded for audit only and never consulted by the eligibility rules.
type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentVisa    PaymentMethod = "visa"
	PaymentEwallet PaymentMethod = "ewallet"
)

// Valid reports whether the payment method is one of the supported values.
func (p PaymentMethod) Valid() bool {
	return p == PaymentCash || p == PaymentVisa || p == PaymentEwallet
}

// RedemptionRecord is an immutable audit entry representing one successful
// use of a promo code by a user. Records are append-only; deleting one is an
// administrative override that restores a unit of usage capacity.
type RedemptionRecord struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	PromoCodeID   uuid.UUID       `json:"promoCodeId" db:"promo_code_id"`
	UserID        uuid.UUID       `json:"userId" db:"user_id"`
	RedeemedAt    time.Time       `json:"redeemedAt" db:"redeemed_at"`
	PaymentMethod PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	Company       string          `json:"company,omitempty" db:"company"`
	Item          string          `json:"item,omitempty" db:"item"`
	Service       string          `json:"service,omitempty" db:"service"`
	TotalPrice    decimal.Decimal `json:"totalPrice" db:"total_price"`
}

// RedemptionFilter scopes redemption listings. Nil fields are unrestricted.
type RedemptionFilter struct {
	PromoCodeID *uuid.UUID
	UserID      *uuid.UUID
}

// RedeemRequest carries the optional audit fields a caller may attach to a
// redemption. All fields default to zero values when omitted.
type RedeemRequest struct {
	PaymentMethod *PaymentMethod   `json:"paymentMethod,omitempty"`
	Company       string           `json:"company,omitempty"`
	Item          string           `json:"item,omitempty"`
	Service       string           `json:"service,omitempty"`
	TotalPrice    *decimal.Decimal `json:"totalPrice,omitempty"`
}
