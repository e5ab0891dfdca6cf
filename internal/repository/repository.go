package repository

import (
	"context"

	"promo-service/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PromoCodeRepository defines the interface for promo code data access.
// Get methods return (nil, nil) when no record matches.
type PromoCodeRepository interface {
	// Create inserts a new promo code. A duplicate normalized code is
	// reported as a *model.ValidationError, backed by the unique index.
	Create(ctx context.Context, code *model.PromoCode) error

	// GetByID retrieves a promo code by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.PromoCode, error)

	// GetByNormalizedCode retrieves a promo code by its lowercase code.
	GetByNormalizedCode(ctx context.Context, normalized string) (*model.PromoCode, error)

	// Update rewrites the mutable fields of an existing promo code. The
	// binding fields are never touched.
	Update(ctx context.Context, code *model.PromoCode) error

	// Delete removes a promo code and, by cascade, its redemption history.
	// Returns false when no record matched.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// List retrieves promo codes matching the filter.
	List(ctx context.Context, filter model.PromoCodeFilter) ([]model.PromoCode, error)
}

// RedemptionRepository defines the interface for redemption data access.
// The count-then-append sequence of a redemption runs inside one transaction
// started with BeginTx; the serializable isolation level makes concurrent
// redemptions of the same (code, user) pair conflict instead of both passing
// the count check.
type RedemptionRepository interface {
	// BeginTx starts a serializable transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Count returns the number of redemptions for the (code, user) pair
	// within the provided transaction.
	Count(ctx context.Context, tx pgx.Tx, promoCodeID, userID uuid.UUID) (int, error)

	// Create appends a redemption record within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, rec *model.RedemptionRecord) error

	// List retrieves redemption records matching the filter.
	List(ctx context.Context, filter model.RedemptionFilter) ([]model.RedemptionRecord, error)

	// Delete removes a redemption record, restoring one unit of usage
	// capacity for its (code, user) pair. Returns false when no record
	// matched.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
