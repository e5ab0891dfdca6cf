package service

import (
	"context"
	"fmt"
	"time"

	"promo-service/internal/model"
	"promo-service/internal/repository"
	"promo-service/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// promoCodeService implements PromoCodeService.
type promoCodeService struct {
	promoRepo repository.PromoCodeRepository
	logger    zerolog.Logger
}

// NewPromoCodeService creates a new promo code service.
func NewPromoCodeService(promoRepo repository.PromoCodeRepository, logger zerolog.Logger) PromoCodeService {
	return &promoCodeService{
		promoRepo: promoRepo,
		logger:    logger.With().Str("service", "promocode").Logger(),
	}
}

// Create validates and persists a new promo code.
func (s *promoCodeService) Create(ctx context.Context, caller model.Caller, req model.PromoCodeCreateRequest) (*model.PromoCode, error) {
	if !caller.Admin {
		return nil, model.ErrAdminOnly
	}

	now := time.Now()
	draft, err := validation.ValidateCreate(req, now)
	if err != nil {
		s.logger.Warn().Err(err).Str("code", req.Code).Msg("promo code create rejected")
		return nil, err
	}

	// Advisory uniqueness pre-check; the unique index is the authority.
	existing, err := s.promoRepo.GetByNormalizedCode(ctx, draft.CodeNormalized)
	if err != nil {
		return nil, fmt.Errorf("failed to check code uniqueness: %w", err)
	}
	if existing != nil {
		s.logger.Warn().Str("code_normalized", draft.CodeNormalized).Msg("duplicate promo code rejected")
		return nil, model.NewValidationError("code", "a promo code with this code already exists")
	}

	draft.ID = uuid.New()
	draft.CreatedAt = now
	draft.UpdatedAt = now

	if err := s.promoRepo.Create(ctx, draft); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("promo_code_id", draft.ID.String()).
		Str("code", draft.Code).
		Str("kind", string(draft.Kind)).
		Bool("bound_to_user", draft.BoundToUser).
		Int("repeat_limit", draft.RepeatLimit).
		Msg("promo code created")

	return draft, nil
}

// Retrieve looks up a promo code by UUID or by literal code text.
func (s *promoCodeService) Retrieve(ctx context.Context, identifier string) (*model.PromoCode, error) {
	var code *model.PromoCode
	var err error

	if id, parseErr := uuid.Parse(identifier); parseErr == nil {
		code, err = s.promoRepo.GetByID(ctx, id)
	} else {
		code, err = s.promoRepo.GetByNormalizedCode(ctx, model.NormalizeCode(identifier))
	}
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, model.ErrPromoCodeNotFound
	}

	return code, nil
}

// Update validates changes against the merged state and persists them.
func (s *promoCodeService) Update(ctx context.Context, caller model.Caller, id uuid.UUID, req model.PromoCodeUpdateRequest) (*model.PromoCode, error) {
	if !caller.Admin {
		return nil, model.ErrAdminOnly
	}

	existing, err := s.promoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, model.ErrPromoCodeNotFound
	}

	now := time.Now()
	merged, err := validation.ValidateUpdate(*existing, req, now)
	if err != nil {
		s.logger.Warn().Err(err).Str("promo_code_id", id.String()).Msg("promo code update rejected")
		return nil, err
	}

	// A collision with the record being updated is not an error; only a
	// different record holding the normalized code blocks the update.
	if merged.CodeNormalized != existing.CodeNormalized {
		other, err := s.promoRepo.GetByNormalizedCode(ctx, merged.CodeNormalized)
		if err != nil {
			return nil, fmt.Errorf("failed to check code uniqueness: %w", err)
		}
		if other != nil && other.ID != id {
			return nil, model.NewValidationError("code", "a promo code with this code already exists")
		}
	}

	merged.UpdatedAt = now

	if err := s.promoRepo.Update(ctx, merged); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("promo_code_id", id.String()).
		Str("code", merged.Code).
		Int("repeat_limit", merged.RepeatLimit).
		Msg("promo code updated")

	return merged, nil
}

// Delete removes a promo code and, by cascade, its redemption history.
func (s *promoCodeService) Delete(ctx context.Context, caller model.Caller, id uuid.UUID) error {
	if !caller.Admin {
		return model.ErrAdminOnly
	}

	deleted, err := s.promoRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrPromoCodeNotFound
	}

	s.logger.Info().Str("promo_code_id", id.String()).Msg("promo code deleted")

	return nil
}

// List returns promo codes matching the filter, scoped by caller privilege.
// Ordinary callers only ever see codes bound to them; unbound codes stay
// reachable through Retrieve but are not listed.
func (s *promoCodeService) List(ctx context.Context, caller model.Caller, filter model.PromoCodeFilter) ([]model.PromoCode, error) {
	if !caller.Admin {
		bound := true
		callerID := caller.ID
		filter.Bound = &bound
		filter.OwnerUserID = &callerID
	}

	codes, err := s.promoRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int("count", len(codes)).Bool("admin", caller.Admin).Msg("promo codes listed")

	return codes, nil
}
