package validation

import (
	"testing"
	"time"

	"promo-service/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intPtr(i int) *int { return &i }

func TestValidateCreate(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)
	owner := uuid.New()

	tests := []struct {
		name          string
		req           model.PromoCodeCreateRequest
		expectedField string
	}{
		{
			name: "valid percent code",
			req: model.PromoCodeCreateRequest{
				Code:   "SPRING25",
				Kind:   model.PromoKindPercent,
				Amount: decimalPtr("0.25"),
			},
		},
		{
			name: "valid value code with all fields",
			req: model.PromoCodeCreateRequest{
				Code:        "BIGSPENDER",
				Kind:        model.PromoKindValue,
				Amount:      decimalPtr("150.00"),
				ExpiresAt:   &future,
				BoundToUser: true,
				OwnerUserID: &owner,
				RepeatLimit: intPtr(3),
			},
		},
		{
			name: "percent amount of exactly 1.0 is allowed",
			req: model.PromoCodeCreateRequest{
				Code:   "FREEBIE",
				Kind:   model.PromoKindPercent,
				Amount: decimalPtr("1.0"),
			},
		},
		{
			name: "value amount above 1.0 is allowed",
			req: model.PromoCodeCreateRequest{
				Code:   "TWENTYOFF",
				Kind:   model.PromoKindValue,
				Amount: decimalPtr("20.00"),
			},
		},
		{
			name: "missing code",
			req: model.PromoCodeCreateRequest{
				Kind:   model.PromoKindPercent,
				Amount: decimalPtr("0.25"),
			},
			expectedField: "code",
		},
		{
			name: "invalid kind",
			req: model.PromoCodeCreateRequest{
				Code: "BADKIND",
				Kind: model.PromoKind("points"),
			},
			expectedField: "kind",
		},
		{
			name: "percent amount above 1.0",
			req: model.PromoCodeCreateRequest{
				Code:   "TOOGENEROUS",
				Kind:   model.PromoKindPercent,
				Amount: decimalPtr("1.5"),
			},
			expectedField: "amount",
		},
		{
			name: "expiry in the past",
			req: model.PromoCodeCreateRequest{
				Code:      "STALE",
				Kind:      model.PromoKindPercent,
				Amount:    decimalPtr("0.10"),
				ExpiresAt: &past,
			},
			expectedField: "expiresAt",
		},
		{
			name: "expiry exactly now",
			req: model.PromoCodeCreateRequest{
				Code:      "BORDERLINE",
				Kind:      model.PromoKindPercent,
				Amount:    decimalPtr("0.10"),
				ExpiresAt: &now,
			},
			expectedField: "expiresAt",
		},
		{
			name: "bound without an owner",
			req: model.PromoCodeCreateRequest{
				Code:        "ORPHANED",
				Kind:        model.PromoKindPercent,
				Amount:      decimalPtr("0.10"),
				BoundToUser: true,
			},
			expectedField: "ownerUserId",
		},
		{
			name: "negative repeat limit",
			req: model.PromoCodeCreateRequest{
				Code:        "NEGATIVE",
				Kind:        model.PromoKindPercent,
				Amount:      decimalPtr("0.10"),
				RepeatLimit: intPtr(-1),
			},
			expectedField: "repeatLimit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := ValidateCreate(tt.req, now)

			if tt.expectedField != "" {
				require.Error(t, err)
				var verr *model.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.expectedField, verr.Field)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, draft)
			assert.Equal(t, model.NormalizeCode(tt.req.Code), draft.CodeNormalized)
		})
	}
}

func TestValidateCreate_Defaults(t *testing.T) {
	now := time.Now()

	draft, err := ValidateCreate(model.PromoCodeCreateRequest{
		Code: "Minimal",
		Kind: model.PromoKindValue,
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "Minimal", draft.Code)
	assert.Equal(t, "minimal", draft.CodeNormalized)
	assert.True(t, draft.Amount.Equal(decimal.Zero))
	assert.Nil(t, draft.ExpiresAt)
	assert.False(t, draft.BoundToUser)
	assert.Equal(t, 0, draft.RepeatLimit)
	assert.Equal(t, uuid.Nil, draft.ID)
}

func TestValidateUpdate(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)
	owner := uuid.New()

	existing := model.PromoCode{
		ID:             uuid.New(),
		Code:           "Original",
		CodeNormalized: "original",
		Kind:           model.PromoKindPercent,
		Amount:         decimal.RequireFromString("0.10"),
		BoundToUser:    true,
		OwnerUserID:    &owner,
		RepeatLimit:    2,
	}

	t.Run("empty request keeps the existing state", func(t *testing.T) {
		merged, err := ValidateUpdate(existing, model.PromoCodeUpdateRequest{}, now)
		require.NoError(t, err)
		assert.Equal(t, existing.Code, merged.Code)
		assert.Equal(t, existing.Kind, merged.Kind)
		assert.Equal(t, existing.RepeatLimit, merged.RepeatLimit)
	})

	t.Run("renaming re-derives the normalized code", func(t *testing.T) {
		code := "Renamed"
		merged, err := ValidateUpdate(existing, model.PromoCodeUpdateRequest{Code: &code}, now)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", merged.Code)
		assert.Equal(t, "renamed", merged.CodeNormalized)
	})

	t.Run("binding survives every update untouched", func(t *testing.T) {
		kind := model.PromoKindValue
		merged, err := ValidateUpdate(existing, model.PromoCodeUpdateRequest{
			Kind:   &kind,
			Amount: decimalPtr("30.00"),
		}, now)
		require.NoError(t, err)
		assert.True(t, merged.BoundToUser)
		require.NotNil(t, merged.OwnerUserID)
		assert.Equal(t, owner, *merged.OwnerUserID)
	})

	t.Run("expired code can still be updated when expiry is untouched", func(t *testing.T) {
		stale := existing
		stale.ExpiresAt = &past

		limit := 5
		merged, err := ValidateUpdate(stale, model.PromoCodeUpdateRequest{RepeatLimit: &limit}, now)
		require.NoError(t, err)
		assert.Equal(t, 5, merged.RepeatLimit)
		assert.Equal(t, &past, merged.ExpiresAt)
	})

	t.Run("supplying a past expiry is rejected", func(t *testing.T) {
		_, err := ValidateUpdate(existing, model.PromoCodeUpdateRequest{ExpiresAt: &past}, now)
		require.Error(t, err)
		var verr *model.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "expiresAt", verr.Field)
	})

	t.Run("supplying a future expiry is accepted", func(t *testing.T) {
		merged, err := ValidateUpdate(existing, model.PromoCodeUpdateRequest{ExpiresAt: &future}, now)
		require.NoError(t, err)
		assert.Equal(t, &future, merged.ExpiresAt)
	})

	t.Run("merged state is validated as a whole", func(t *testing.T) {
		// Flipping the kind to percent makes the existing large amount
		// invalid, even though the request itself never names the amount.
		valueCode := existing
		valueCode.Kind = model.PromoKindValue
		valueCode.Amount = decimal.RequireFromString("50.00")

		percent := model.PromoKindPercent
		_, err := ValidateUpdate(valueCode, model.PromoCodeUpdateRequest{Kind: &percent}, now)
		require.Error(t, err)
		var verr *model.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "amount", verr.Field)
	})

	t.Run("blank code is rejected", func(t *testing.T) {
		blank := ""
		_, err := ValidateUpdate(existing, model.PromoCodeUpdateRequest{Code: &blank}, now)
		require.Error(t, err)
		var verr *model.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "code", verr.Field)
	})
}
