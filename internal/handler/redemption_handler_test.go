package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"promo-service/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRedemptionService is a mock implementation of service.RedemptionService.
type MockRedemptionService struct {
	mock.Mock
}

func (m *MockRedemptionService) Redeem(ctx context.Context, caller model.Caller, promoCodeID uuid.UUID, req model.RedeemRequest) (*model.RedemptionRecord, error) {
	args := m.Called(ctx, caller, promoCodeID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RedemptionRecord), args.Error(1)
}

func (m *MockRedemptionService) ListRedemptions(ctx context.Context, caller model.Caller, promoCodeID *uuid.UUID) ([]model.RedemptionRecord, error) {
	args := m.Called(ctx, caller, promoCodeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RedemptionRecord), args.Error(1)
}

func (m *MockRedemptionService) DeleteRedemption(ctx context.Context, caller model.Caller, id uuid.UUID) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

var testUser = model.Caller{ID: uuid.New(), Authenticated: true}

func TestRedemptionHandler_Redeem(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("returns 201 with the redemption record", func(t *testing.T) {
		mockService := new(MockRedemptionService)
		handler := NewRedemptionHandler(mockService, logger)

		codeID := uuid.New()
		rec := &model.RedemptionRecord{ID: uuid.New(), PromoCodeID: codeID, UserID: testUser.ID}
		mockService.On("Redeem", mock.Anything, testUser, codeID, mock.AnythingOfType("model.RedeemRequest")).
			Return(rec, nil)

		body := map[string]any{"paymentMethod": "visa", "company": "acme"}
		req := newRequest(http.MethodPut, "/promocode/"+codeID.String()+"/redeem", testUser, body,
			map[string]string{"id": codeID.String()})
		w := httptest.NewRecorder()

		handler.Redeem(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var got model.RedemptionRecord
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, rec.ID, got.ID)
		mockService.AssertExpectations(t)
	})

	t.Run("accepts an empty body", func(t *testing.T) {
		mockService := new(MockRedemptionService)
		handler := NewRedemptionHandler(mockService, logger)

		codeID := uuid.New()
		rec := &model.RedemptionRecord{ID: uuid.New(), PromoCodeID: codeID}
		mockService.On("Redeem", mock.Anything, testUser, codeID, model.RedeemRequest{}).
			Return(rec, nil)

		req := newRequest(http.MethodPut, "/promocode/"+codeID.String()+"/redeem", testUser, nil,
			map[string]string{"id": codeID.String()})
		w := httptest.NewRecorder()

		handler.Redeem(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("returns 400 with a reason for an ineligible code", func(t *testing.T) {
		tests := []struct {
			name   string
			err    error
			reason string
		}{
			{"expired", model.ErrExpired, model.ReasonExpired},
			{"wrong user", model.ErrWrongUser, model.ReasonWrongUser},
			{"limit reached", model.ErrLimitReached, model.ReasonLimitReached},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mockService := new(MockRedemptionService)
				handler := NewRedemptionHandler(mockService, logger)

				codeID := uuid.New()
				mockService.On("Redeem", mock.Anything, testUser, codeID, mock.Anything).
					Return(nil, tt.err)

				req := newRequest(http.MethodPut, "/promocode/"+codeID.String()+"/redeem", testUser, nil,
					map[string]string{"id": codeID.String()})
				w := httptest.NewRecorder()

				handler.Redeem(w, req)

				assert.Equal(t, http.StatusBadRequest, w.Code)
				resp := decodeError(t, w)
				assert.Equal(t, "eligibility_error", resp.Error)
				assert.Equal(t, tt.reason, resp.Reason)
			})
		}
	})

	t.Run("returns 404 for a non-UUID identifier", func(t *testing.T) {
		mockService := new(MockRedemptionService)
		handler := NewRedemptionHandler(mockService, logger)

		req := newRequest(http.MethodPut, "/promocode/nope/redeem", testUser, nil,
			map[string]string{"id": "nope"})
		w := httptest.NewRecorder()

		handler.Redeem(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertNotCalled(t, "Redeem")
	})
}

func TestRedemptionHandler_ListForCode(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("returns 200 with the records for a code", func(t *testing.T) {
		mockService := new(MockRedemptionService)
		handler := NewRedemptionHandler(mockService, logger)

		codeID := uuid.New()
		records := []model.RedemptionRecord{{ID: uuid.New(), PromoCodeID: codeID}}
		mockService.On("ListRedemptions", mock.Anything, testUser, &codeID).Return(records, nil)

		req := newRequest(http.MethodGet, "/promocode/"+codeID.String()+"/redeemed", testUser, nil,
			map[string]string{"id": codeID.String()})
		w := httptest.NewRecorder()

		handler.ListForCode(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var got []model.RedemptionRecord
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Len(t, got, 1)
	})

	t.Run("returns 404 for an unknown code", func(t *testing.T) {
		mockService := new(MockRedemptionService)
		handler := NewRedemptionHandler(mockService, logger)

		codeID := uuid.New()
		mockService.On("ListRedemptions", mock.Anything, testUser, &codeID).
			Return(nil, model.ErrPromoCodeNotFound)

		req := newRequest(http.MethodGet, "/promocode/"+codeID.String()+"/redeemed", testUser, nil,
			map[string]string{"id": codeID.String()})
		w := httptest.NewRecorder()

		handler.ListForCode(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRedemptionHandler_List(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("returns 200 with an empty array instead of null", func(t *testing.T) {
		mockService := new(MockRedemptionService)
		handler := NewRedemptionHandler(mockService, logger)

		mockService.On("ListRedemptions", mock.Anything, testUser, (*uuid.UUID)(nil)).
			Return([]model.RedemptionRecord(nil), nil)

		req := newRequest(http.MethodGet, "/redeemed", testUser, nil, nil)
		w := httptest.NewRecorder()

		handler.List(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})
}

func TestRedemptionHandler_Delete(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("returns 204 on success", func(t *testing.T) {
		mockService := new(MockRedemptionService)
		handler := NewRedemptionHandler(mockService, logger)

		id := uuid.New()
		mockService.On("DeleteRedemption", mock.Anything, testAdmin, id).Return(nil)

		req := newRequest(http.MethodDelete, "/redeemed/"+id.String(), testAdmin, nil,
			map[string]string{"id": id.String()})
		w := httptest.NewRecorder()

		handler.Delete(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("returns 403 for a non-admin caller", func(t *testing.T) {
		mockService := new(MockRedemptionService)
		handler := NewRedemptionHandler(mockService, logger)

		id := uuid.New()
		mockService.On("DeleteRedemption", mock.Anything, testUser, id).Return(model.ErrAdminOnly)

		req := newRequest(http.MethodDelete, "/redeemed/"+id.String(), testUser, nil,
			map[string]string{"id": id.String()})
		w := httptest.NewRecorder()

		handler.Delete(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("returns 404 for a missing record", func(t *testing.T) {
		mockService := new(MockRedemptionService)
		handler := NewRedemptionHandler(mockService, logger)

		id := uuid.New()
		mockService.On("DeleteRedemption", mock.Anything, testAdmin, id).
			Return(model.ErrRedemptionNotFound)

		req := newRequest(http.MethodDelete, "/redeemed/"+id.String(), testAdmin, nil,
			map[string]string{"id": id.String()})
		w := httptest.NewRecorder()

		handler.Delete(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
