package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"promo-service/internal/model"
	"promo-service/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// serializationFailure is the PostgreSQL SQLSTATE raised when a serializable
// transaction loses a conflict and must be retried.
const serializationFailure = "40001"

// maxRedeemAttempts bounds the retries of a redemption whose transaction
// lost a serialization conflict.
const maxRedeemAttempts = 3

// redemptionService implements RedemptionService.
type redemptionService struct {
	redemptionRepo repository.RedemptionRepository
	promoRepo      repository.PromoCodeRepository
	logger         zerolog.Logger
}

// NewRedemptionService creates a new redemption service.
func NewRedemptionService(
	redemptionRepo repository.RedemptionRepository,
	promoRepo repository.PromoCodeRepository,
	logger zerolog.Logger,
) RedemptionService {
	return &redemptionService{
		redemptionRepo: redemptionRepo,
		promoRepo:      promoRepo,
		logger:         logger.With().Str("service", "redemption").Logger(),
	}
}

// Redeem evaluates eligibility and appends a redemption record. The usage
// cap is always counted per (code, user) pair: an unbound code with
// repeat_limit=1 allows each distinct user one redemption, not the whole
// population one. Usage is derived by counting records, never stored on the
// code, so raising repeat_limit is retroactively permissive.
func (s *redemptionService) Redeem(ctx context.Context, caller model.Caller, promoCodeID uuid.UUID, req model.RedeemRequest) (*model.RedemptionRecord, error) {
	code, err := s.promoRepo.GetByID(ctx, promoCodeID)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, model.ErrPromoCodeNotFound
	}

	now := time.Now()

	// Ordered eligibility rules; first failure wins.
	if code.ExpiresAt != nil && !code.ExpiresAt.After(now) {
		s.logger.Info().
			Str("promo_code_id", promoCodeID.String()).
			Str("user_id", caller.ID.String()).
			Msg("redemption rejected: expired")
		return nil, model.ErrExpired
	}

	if code.BoundToUser && (code.OwnerUserID == nil || *code.OwnerUserID != caller.ID) {
		s.logger.Info().
			Str("promo_code_id", promoCodeID.String()).
			Str("user_id", caller.ID.String()).
			Msg("redemption rejected: bound to another user")
		return nil, model.ErrWrongUser
	}

	rec, err := s.buildRecord(caller, code, req, now)
	if err != nil {
		return nil, err
	}

	// The usage-cap check needs the count and the append to be indivisible
	// with respect to concurrent redemptions of the same pair. The
	// serializable transaction provides that; losers of a conflict are
	// retried with a fresh count.
	for attempt := 1; ; attempt++ {
		err := s.redeemOnce(ctx, code, rec)
		if err == nil {
			break
		}
		if isSerializationFailure(err) && attempt < maxRedeemAttempts {
			s.logger.Warn().
				Int("attempt", attempt).
				Str("promo_code_id", promoCodeID.String()).
				Str("user_id", caller.ID.String()).
				Msg("redemption serialization conflict, retrying")
			continue
		}
		return nil, err
	}

	s.logger.Info().
		Str("redemption_id", rec.ID.String()).
		Str("promo_code_id", promoCodeID.String()).
		Str("user_id", caller.ID.String()).
		Msg("promo code redeemed")

	return rec, nil
}

// redeemOnce runs one count-then-append attempt in a serializable transaction.
func (s *redemptionService) redeemOnce(ctx context.Context, code *model.PromoCode, rec *model.RedemptionRecord) (err error) {
	tx, err := s.redemptionRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to redeem promo code: %w", err)
	}

	defer func() {
		if err != nil {
			// A failed Commit leaves the transaction closed; rolling it
			// back then reports ErrTxClosed, which is not worth logging.
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if code.RepeatLimit > 0 {
		count, countErr := s.redemptionRepo.Count(ctx, tx, code.ID, rec.UserID)
		if countErr != nil {
			err = countErr
			return err
		}
		if count >= code.RepeatLimit {
			s.logger.Info().
				Str("promo_code_id", code.ID.String()).
				Str("user_id", rec.UserID.String()).
				Int("count", count).
				Int("repeat_limit", code.RepeatLimit).
				Msg("redemption rejected: limit reached")
			err = model.ErrLimitReached
			return err
		}
	}

	if err = s.redemptionRepo.Create(ctx, tx, rec); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit redemption: %w", err)
	}

	return nil
}

// buildRecord assembles the redemption record from the optional audit fields.
func (s *redemptionService) buildRecord(caller model.Caller, code *model.PromoCode, req model.RedeemRequest, now time.Time) (*model.RedemptionRecord, error) {
	rec := &model.RedemptionRecord{
		ID:            uuid.New(),
		PromoCodeID:   code.ID,
		UserID:        caller.ID,
		RedeemedAt:    now,
		PaymentMethod: model.PaymentCash,
		Company:       req.Company,
		Item:          req.Item,
		Service:       req.Service,
		TotalPrice:    decimal.Zero,
	}

	if req.PaymentMethod != nil {
		if !req.PaymentMethod.Valid() {
			return nil, model.NewValidationError("paymentMethod", "must be one of: cash, visa, ewallet")
		}
		rec.PaymentMethod = *req.PaymentMethod
	}
	if req.TotalPrice != nil {
		rec.TotalPrice = *req.TotalPrice
	}

	return rec, nil
}

// ListRedemptions returns redemption records, optionally scoped to one promo
// code, visibility-scoped by caller privilege.
func (s *redemptionService) ListRedemptions(ctx context.Context, caller model.Caller, promoCodeID *uuid.UUID) ([]model.RedemptionRecord, error) {
	if promoCodeID != nil {
		code, err := s.promoRepo.GetByID(ctx, *promoCodeID)
		if err != nil {
			return nil, err
		}
		if code == nil {
			return nil, model.ErrPromoCodeNotFound
		}
	}

	filter := model.RedemptionFilter{PromoCodeID: promoCodeID}
	if !caller.Admin {
		callerID := caller.ID
		filter.UserID = &callerID
	}

	records, err := s.redemptionRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int("count", len(records)).Bool("admin", caller.Admin).Msg("redemptions listed")

	return records, nil
}

// DeleteRedemption removes a redemption record (admin un-redeem). Since
// usage is derived by counting, no counter needs resetting.
func (s *redemptionService) DeleteRedemption(ctx context.Context, caller model.Caller, id uuid.UUID) error {
	if !caller.Admin {
		return model.ErrAdminOnly
	}

	deleted, err := s.redemptionRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrRedemptionNotFound
	}

	s.logger.Info().Str("redemption_id", id.String()).Msg("redemption deleted")

	return nil
}

// isSerializationFailure reports whether the error is a serializable
// transaction conflict.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == serializationFailure
}
