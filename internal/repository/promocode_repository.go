package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"promo-service/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint breach.
const uniqueViolation = "23505"

const promoCodeColumns = `id, code, code_normalized, kind, amount, expires_at,
	bound_to_user, owner_user_id, repeat_limit, created_at, updated_at`

// promoCodeRepository implements PromoCodeRepository using PostgreSQL.
type promoCodeRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPromoCodeRepository creates a new PostgreSQL-backed promo code repository.
func NewPromoCodeRepository(pool *pgxpool.Pool, logger zerolog.Logger) PromoCodeRepository {
	return &promoCodeRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "promocode").Logger(),
	}
}

// Create inserts a new promo code.
func (r *promoCodeRepository) Create(ctx context.Context, code *model.PromoCode) error {
	query := `
		INSERT INTO promo_codes (id, code, code_normalized, kind, amount, expires_at,
			bound_to_user, owner_user_id, repeat_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		code.ID,
		code.Code,
		code.CodeNormalized,
		string(code.Kind),
		code.Amount,
		code.ExpiresAt,
		code.BoundToUser,
		code.OwnerUserID,
		code.RepeatLimit,
		code.CreatedAt,
		code.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// The validation pre-check is advisory; the index is the
			// authority. A race that slips past the pre-check still
			// surfaces as a clean validation error.
			return model.NewValidationError("code", "a promo code with this code already exists")
		}
		r.logger.Error().Err(err).Str("code", code.Code).Msg("failed to create promo code")
		return fmt.Errorf("failed to create promo code: %w", err)
	}

	r.logger.Debug().
		Str("promo_code_id", code.ID.String()).
		Str("code_normalized", code.CodeNormalized).
		Msg("promo code created")

	return nil
}

// GetByID retrieves a promo code by its ID.
func (r *promoCodeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PromoCode, error) {
	query := `SELECT ` + promoCodeColumns + ` FROM promo_codes WHERE id = $1`

	code, err := scanPromoCode(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("promo_code_id", id.String()).Msg("failed to get promo code")
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}

	return code, nil
}

// GetByNormalizedCode retrieves a promo code by its lowercase code.
func (r *promoCodeRepository) GetByNormalizedCode(ctx context.Context, normalized string) (*model.PromoCode, error) {
	query := `SELECT ` + promoCodeColumns + ` FROM promo_codes WHERE code_normalized = $1`

	code, err := scanPromoCode(r.pool.QueryRow(ctx, query, normalized))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code_normalized", normalized).Msg("failed to get promo code by code")
		return nil, fmt.Errorf("failed to get promo code by code: %w", err)
	}

	return code, nil
}

// Update rewrites the mutable fields of an existing promo code.
func (r *promoCodeRepository) Update(ctx context.Context, code *model.PromoCode) error {
	query := `
		UPDATE promo_codes
		SET code = $2, code_normalized = $3, kind = $4, amount = $5,
			expires_at = $6, repeat_limit = $7, updated_at = $8
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		code.ID,
		code.Code,
		code.CodeNormalized,
		string(code.Kind),
		code.Amount,
		code.ExpiresAt,
		code.RepeatLimit,
		code.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewValidationError("code", "a promo code with this code already exists")
		}
		r.logger.Error().Err(err).Str("promo_code_id", code.ID.String()).Msg("failed to update promo code")
		return fmt.Errorf("failed to update promo code: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrPromoCodeNotFound
	}

	r.logger.Debug().Str("promo_code_id", code.ID.String()).Msg("promo code updated")

	return nil
}

// Delete removes a promo code; its redemptions go with it via cascade.
func (r *promoCodeRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM promo_codes WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("promo_code_id", id.String()).Msg("failed to delete promo code")
		return false, fmt.Errorf("failed to delete promo code: %w", err)
	}

	deleted := tag.RowsAffected() > 0
	if deleted {
		r.logger.Debug().Str("promo_code_id", id.String()).Msg("promo code deleted")
	}

	return deleted, nil
}

// List retrieves promo codes matching the filter, oldest first.
func (r *promoCodeRepository) List(ctx context.Context, filter model.PromoCodeFilter) ([]model.PromoCode, error) {
	query := `SELECT ` + promoCodeColumns + ` FROM promo_codes`

	var conds []string
	var args []any

	addCond := func(format string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	if filter.OwnerUserID != nil {
		addCond("owner_user_id = $%d", *filter.OwnerUserID)
	}
	if filter.Bound != nil {
		addCond("bound_to_user = $%d", *filter.Bound)
	}
	if filter.Kind != nil {
		addCond("kind = $%d", string(*filter.Kind))
	}
	if filter.MinValue != nil {
		addCond("amount >= $%d", *filter.MinValue)
	}
	if filter.MaxValue != nil {
		addCond("amount <= $%d", *filter.MaxValue)
	}
	if filter.Search != "" {
		args = append(args, "%"+model.NormalizeCode(filter.Search)+"%")
		conds = append(conds, fmt.Sprintf("code_normalized LIKE $%d", len(args)))
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list promo codes")
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}
	defer rows.Close()

	var codes []model.PromoCode
	for rows.Next() {
		code, err := scanPromoCode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promo code: %w", err)
		}
		codes = append(codes, *code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}

	return codes, nil
}

// scanPromoCode scans one promo code row.
func scanPromoCode(row pgx.Row) (*model.PromoCode, error) {
	var code model.PromoCode
	var kind string

	err := row.Scan(
		&code.ID,
		&code.Code,
		&code.CodeNormalized,
		&kind,
		&code.Amount,
		&code.ExpiresAt,
		&code.BoundToUser,
		&code.OwnerUserID,
		&code.RepeatLimit,
		&code.CreatedAt,
		&code.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	code.Kind = model.PromoKind(kind)
	return &code, nil
}

// isUniqueViolation reports whether the error is a unique constraint breach.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
