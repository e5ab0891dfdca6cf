package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

// ValidationError reports malformed or rule-violating create/update input.
// It is surfaced to the caller as a 400 with field detail and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports that a referenced entity does not exist or is not
// visible to the caller. Surfaced as 404.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// Eligibility failure reasons, in the order the rules are evaluated.
const (
	ReasonExpired      = "expired"
	ReasonWrongUser    = "wrong_user"
	ReasonLimitReached = "limit_reached"
)

// EligibilityError reports that a redemption was attempted but disallowed.
// Surfaced as 400 with a machine-readable reason; the caller may retry later
// (for example after the repeat limit is raised) but the system never does.
type EligibilityError struct {
	Reason  string
	Message string
}

func (e *EligibilityError) Error() string {
	return e.Message
}

// AuthorizationError reports that the caller lacks privilege for an
// admin-only operation. Surfaced as 403.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// Common domain errors.
var (
	ErrPromoCodeNotFound  = &NotFoundError{Resource: "promo code"}
	ErrRedemptionNotFound = &NotFoundError{Resource: "redemption"}

	ErrExpired      = &EligibilityError{Reason: ReasonExpired, Message: "promo code has expired"}
	ErrWrongUser    = &EligibilityError{Reason: ReasonWrongUser, Message: "promo code is bound to another user"}
	ErrLimitReached = &EligibilityError{Reason: ReasonLimitReached, Message: "promo code has been used to its limit"}

	ErrAdminOnly = &AuthorizationError{Message: "administrator privilege required"}
)
