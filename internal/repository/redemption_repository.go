package repository

import (
	"context"
	"fmt"
	"strings"

	"promo-service/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const redemptionColumns = `id, promo_code_id, user_id, redeemed_at,
	payment_method, company, item, service, total_price`

// redemptionRepository implements RedemptionRepository using PostgreSQL.
type redemptionRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewRedemptionRepository creates a new PostgreSQL-backed redemption repository.
func NewRedemptionRepository(pool *pgxpool.Pool, logger zerolog.Logger) RedemptionRepository {
	return &redemptionRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "redemption").Logger(),
	}
}

// BeginTx starts a serializable transaction. Serializable isolation makes the
// count-then-append sequence of two concurrent redemptions for the same
// (code, user) pair conflict; the loser retries instead of over-redeeming.
func (r *redemptionRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// Count returns the number of redemptions for the (code, user) pair.
func (r *redemptionRepository) Count(ctx context.Context, tx pgx.Tx, promoCodeID, userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM redemptions WHERE promo_code_id = $1 AND user_id = $2`

	var count int
	if err := tx.QueryRow(ctx, query, promoCodeID, userID).Scan(&count); err != nil {
		r.logger.Error().
			Err(err).
			Str("promo_code_id", promoCodeID.String()).
			Str("user_id", userID.String()).
			Msg("failed to count redemptions")
		return 0, fmt.Errorf("failed to count redemptions: %w", err)
	}

	return count, nil
}

// Create appends a redemption record within the provided transaction.
func (r *redemptionRepository) Create(ctx context.Context, tx pgx.Tx, rec *model.RedemptionRecord) error {
	query := `
		INSERT INTO redemptions (id, promo_code_id, user_id, redeemed_at,
			payment_method, company, item, service, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.Exec(ctx, query,
		rec.ID,
		rec.PromoCodeID,
		rec.UserID,
		rec.RedeemedAt,
		string(rec.PaymentMethod),
		rec.Company,
		rec.Item,
		rec.Service,
		rec.TotalPrice,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("promo_code_id", rec.PromoCodeID.String()).
			Str("user_id", rec.UserID.String()).
			Msg("failed to create redemption")
		return fmt.Errorf("failed to create redemption: %w", err)
	}

	r.logger.Debug().
		Str("redemption_id", rec.ID.String()).
		Str("promo_code_id", rec.PromoCodeID.String()).
		Msg("redemption created")

	return nil
}

// List retrieves redemption records matching the filter, oldest first.
func (r *redemptionRepository) List(ctx context.Context, filter model.RedemptionFilter) ([]model.RedemptionRecord, error) {
	query := `SELECT ` + redemptionColumns + ` FROM redemptions`

	var conds []string
	var args []any

	if filter.PromoCodeID != nil {
		args = append(args, *filter.PromoCodeID)
		conds = append(conds, fmt.Sprintf("promo_code_id = $%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY redeemed_at, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list redemptions")
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}
	defer rows.Close()

	var records []model.RedemptionRecord
	for rows.Next() {
		var rec model.RedemptionRecord
		var paymentMethod string

		err := rows.Scan(
			&rec.ID,
			&rec.PromoCodeID,
			&rec.UserID,
			&rec.RedeemedAt,
			&paymentMethod,
			&rec.Company,
			&rec.Item,
			&rec.Service,
			&rec.TotalPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan redemption: %w", err)
		}

		rec.PaymentMethod = model.PaymentMethod(paymentMethod)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}

	return records, nil
}

// Delete removes a redemption record.
func (r *redemptionRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM redemptions WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("redemption_id", id.String()).Msg("failed to delete redemption")
		return false, fmt.Errorf("failed to delete redemption: %w", err)
	}

	deleted := tag.RowsAffected() > 0
	if deleted {
		r.logger.Debug().Str("redemption_id", id.String()).Msg("redemption deleted")
	}

	return deleted, nil
}
