package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"promo-service/internal/auth"
	"promo-service/internal/config"
	"promo-service/internal/handler"
	"promo-service/internal/model"
	"promo-service/internal/repository"
	"promo-service/internal/router"
	"promo-service/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
	tokens  *auth.Manager
}

func setupTestServer(t *testing.T, testDB *TestDB) *testServer {
	t.Helper()

	logger := zerolog.Nop()

	promoRepo := repository.NewPromoCodeRepository(testDB.Pool, logger)
	redemptionRepo := repository.NewRedemptionRepository(testDB.Pool, logger)

	promoService := service.NewPromoCodeService(promoRepo, logger)
	redemptionService := service.NewRedemptionService(redemptionRepo, promoRepo, logger)

	promoHandler := handler.NewPromoCodeHandler(promoService, logger)
	redemptionHandler := handler.NewRedemptionHandler(redemptionService, logger)

	tokens := auth.NewManager("integration-test-secret", time.Hour)

	cfg := &config.Config{}

	return &testServer{
		handler: router.New(promoHandler, redemptionHandler, tokens, nil, cfg, logger),
		tokens:  tokens,
	}
}

// do issues a request against the in-process server. An empty token means an
// anonymous call.
func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	token, err := s.tokens.Issue(uuid.New(), true)
	require.NoError(t, err)
	return token
}

func (s *testServer) userToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := s.tokens.Issue(userID, false)
	require.NoError(t, err)
	return token
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

func TestPromoCodeAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)
	admin := server.adminToken(t)

	createBody := func(code string) map[string]any {
		return map[string]any{
			"code":   code,
			"kind":   "percent",
			"amount": "0.25",
		}
	}

	t.Run("POST /promocode creates a code", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		w := server.do(t, http.MethodPost, "/promocode", admin, createBody("Spring25"))
		require.Equal(t, http.StatusCreated, w.Code)

		created := decodeBody[model.PromoCode](t, w)
		assert.Equal(t, "Spring25", created.Code)
		assert.Equal(t, "spring25", created.CodeNormalized)
		assert.NotEqual(t, uuid.Nil, created.ID)
	})

	t.Run("POST /promocode rejects duplicate code case-insensitively", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		w := server.do(t, http.MethodPost, "/promocode", admin, createBody("Spring25"))
		require.Equal(t, http.StatusCreated, w.Code)

		w = server.do(t, http.MethodPost, "/promocode", admin, createBody("SPRING25"))
		require.Equal(t, http.StatusBadRequest, w.Code)

		errResp := decodeBody[model.ErrorResponse](t, w)
		assert.Equal(t, "validation_error", errResp.Error)
		assert.Equal(t, "code", errResp.Field)
	})

	t.Run("POST /promocode requires admin", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		user := server.userToken(t, uuid.New())
		w := server.do(t, http.MethodPost, "/promocode", user, createBody("NOPE"))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("GET /promocode/{code} resolves by code text", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		w := server.do(t, http.MethodPost, "/promocode", admin, createBody("ByCode"))
		require.Equal(t, http.StatusCreated, w.Code)
		created := decodeBody[model.PromoCode](t, w)

		w = server.do(t, http.MethodGet, "/promocode/BYCODE", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		got := decodeBody[model.PromoCode](t, w)
		assert.Equal(t, created.ID, got.ID)

		w = server.do(t, http.MethodGet, "/promocode/"+created.ID.String(), "", nil)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("PUT /promocode/{id} returns 202", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		w := server.do(t, http.MethodPost, "/promocode", admin, createBody("Mutable"))
		require.Equal(t, http.StatusCreated, w.Code)
		created := decodeBody[model.PromoCode](t, w)

		update := map[string]any{"code": "Renamed"}
		w = server.do(t, http.MethodPut, "/promocode/"+created.ID.String(), admin, update)
		require.Equal(t, http.StatusAccepted, w.Code)

		updated := decodeBody[model.PromoCode](t, w)
		assert.Equal(t, "Renamed", updated.Code)
		assert.Equal(t, "renamed", updated.CodeNormalized)
	})

	t.Run("DELETE /promocode/{id} returns 204", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		w := server.do(t, http.MethodPost, "/promocode", admin, createBody("Doomed"))
		require.Equal(t, http.StatusCreated, w.Code)
		created := decodeBody[model.PromoCode](t, w)

		w = server.do(t, http.MethodDelete, "/promocode/"+created.ID.String(), admin, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = server.do(t, http.MethodGet, "/promocode/"+created.ID.String(), "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("GET /promocode scopes non-admin listings to bound codes", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		userID := uuid.New()
		user := server.userToken(t, userID)

		w := server.do(t, http.MethodPost, "/promocode", admin, createBody("PUBLIC1"))
		require.Equal(t, http.StatusCreated, w.Code)

		boundBody := map[string]any{
			"code":        "MINEONLY",
			"kind":        "value",
			"amount":      "15.00",
			"boundToUser": true,
			"ownerUserId": userID.String(),
		}
		w = server.do(t, http.MethodPost, "/promocode", admin, boundBody)
		require.Equal(t, http.StatusCreated, w.Code)

		w = server.do(t, http.MethodGet, "/promocode", admin, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeBody[[]model.PromoCode](t, w), 2)

		w = server.do(t, http.MethodGet, "/promocode", user, nil)
		require.Equal(t, http.StatusOK, w.Code)
		mine := decodeBody[[]model.PromoCode](t, w)
		require.Len(t, mine, 1)
		assert.Equal(t, "MINEONLY", mine[0].Code)
	})

	t.Run("unknown verb on known path returns 404", func(t *testing.T) {
		w := server.do(t, http.MethodPatch, "/promocode", admin, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRedemptionAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)
	admin := server.adminToken(t)

	createCode := func(t *testing.T, body map[string]any) model.PromoCode {
		t.Helper()
		w := server.do(t, http.MethodPost, "/promocode", admin, body)
		require.Equal(t, http.StatusCreated, w.Code)
		return decodeBody[model.PromoCode](t, w)
	}

	t.Run("PUT /promocode/{id}/redeem records a redemption", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		code := createCode(t, map[string]any{"code": "OPEN10", "kind": "percent", "amount": "0.10"})

		userID := uuid.New()
		user := server.userToken(t, userID)

		body := map[string]any{"paymentMethod": "visa", "company": "acme", "totalPrice": "49.90"}
		w := server.do(t, http.MethodPut, fmt.Sprintf("/promocode/%s/redeem", code.ID), user, body)
		require.Equal(t, http.StatusCreated, w.Code)

		rec := decodeBody[model.RedemptionRecord](t, w)
		assert.Equal(t, code.ID, rec.PromoCodeID)
		assert.Equal(t, userID, rec.UserID)
		assert.Equal(t, model.PaymentVisa, rec.PaymentMethod)
	})

	t.Run("redeeming requires authentication", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		code := createCode(t, map[string]any{"code": "AUTHED", "kind": "percent", "amount": "0.10"})

		w := server.do(t, http.MethodPut, fmt.Sprintf("/promocode/%s/redeem", code.ID), "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("repeat limit is enforced per user", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		code := createCode(t, map[string]any{
			"code": "ONCE", "kind": "value", "amount": "5.00", "repeatLimit": 1,
		})

		user := server.userToken(t, uuid.New())
		path := fmt.Sprintf("/promocode/%s/redeem", code.ID)

		w := server.do(t, http.MethodPut, path, user, nil)
		require.Equal(t, http.StatusCreated, w.Code)

		w = server.do(t, http.MethodPut, path, user, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		errResp := decodeBody[model.ErrorResponse](t, w)
		assert.Equal(t, model.ReasonLimitReached, errResp.Reason)

		// A different user still has capacity.
		other := server.userToken(t, uuid.New())
		w = server.do(t, http.MethodPut, path, other, nil)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("raising the repeat limit permits further redemptions", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		code := createCode(t, map[string]any{
			"code": "GROWING", "kind": "value", "amount": "5.00", "repeatLimit": 1,
		})
		path := fmt.Sprintf("/promocode/%s/redeem", code.ID)
		user := server.userToken(t, uuid.New())

		require.Equal(t, http.StatusCreated, server.do(t, http.MethodPut, path, user, nil).Code)

		w := server.do(t, http.MethodPut, path, user, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		errResp := decodeBody[model.ErrorResponse](t, w)
		require.Equal(t, model.ReasonLimitReached, errResp.Reason)

		// Usage is counted, not stored, so the raised cap applies at once.
		w = server.do(t, http.MethodPut, "/promocode/"+code.ID.String(), admin,
			map[string]any{"repeatLimit": 2})
		require.Equal(t, http.StatusAccepted, w.Code)

		assert.Equal(t, http.StatusCreated, server.do(t, http.MethodPut, path, user, nil).Code)
	})

	t.Run("bound code rejects other users", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		ownerID := uuid.New()
		code := createCode(t, map[string]any{
			"code": "PERSONAL", "kind": "percent", "amount": "0.50",
			"boundToUser": true, "ownerUserId": ownerID.String(),
		})

		stranger := server.userToken(t, uuid.New())
		w := server.do(t, http.MethodPut, fmt.Sprintf("/promocode/%s/redeem", code.ID), stranger, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		errResp := decodeBody[model.ErrorResponse](t, w)
		assert.Equal(t, model.ReasonWrongUser, errResp.Reason)

		owner := server.userToken(t, ownerID)
		w = server.do(t, http.MethodPut, fmt.Sprintf("/promocode/%s/redeem", code.ID), owner, nil)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("expired code cannot be redeemed", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		// Created valid, then forced into the past directly: creation
		// rejects non-future expiries.
		code := createCode(t, map[string]any{
			"code": "STALE", "kind": "percent", "amount": "0.10",
			"expiresAt": time.Now().Add(time.Minute).UTC().Format(time.RFC3339),
		})
		_, err := testDB.Pool.Exec(context.Background(),
			"UPDATE promo_codes SET expires_at = NOW() - INTERVAL '1 hour' WHERE id = $1", code.ID)
		require.NoError(t, err)

		user := server.userToken(t, uuid.New())
		w := server.do(t, http.MethodPut, fmt.Sprintf("/promocode/%s/redeem", code.ID), user, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		errResp := decodeBody[model.ErrorResponse](t, w)
		assert.Equal(t, model.ReasonExpired, errResp.Reason)
	})

	t.Run("GET /redeemed scopes non-admin callers to their own records", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		code := createCode(t, map[string]any{"code": "SHARED", "kind": "percent", "amount": "0.10"})
		path := fmt.Sprintf("/promocode/%s/redeem", code.ID)

		firstID := uuid.New()
		first := server.userToken(t, firstID)
		second := server.userToken(t, uuid.New())

		require.Equal(t, http.StatusCreated, server.do(t, http.MethodPut, path, first, nil).Code)
		require.Equal(t, http.StatusCreated, server.do(t, http.MethodPut, path, second, nil).Code)

		w := server.do(t, http.MethodGet, "/redeemed", admin, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeBody[[]model.RedemptionRecord](t, w), 2)

		w = server.do(t, http.MethodGet, "/redeemed", first, nil)
		require.Equal(t, http.StatusOK, w.Code)
		own := decodeBody[[]model.RedemptionRecord](t, w)
		require.Len(t, own, 1)
		assert.Equal(t, firstID, own[0].UserID)
	})

	t.Run("DELETE /redeemed/{id} restores usage capacity", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		code := createCode(t, map[string]any{
			"code": "REFUND", "kind": "value", "amount": "10.00", "repeatLimit": 1,
		})
		path := fmt.Sprintf("/promocode/%s/redeem", code.ID)
		user := server.userToken(t, uuid.New())

		w := server.do(t, http.MethodPut, path, user, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		rec := decodeBody[model.RedemptionRecord](t, w)

		require.Equal(t, http.StatusBadRequest, server.do(t, http.MethodPut, path, user, nil).Code)

		w = server.do(t, http.MethodDelete, "/redeemed/"+rec.ID.String(), admin, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		assert.Equal(t, http.StatusCreated, server.do(t, http.MethodPut, path, user, nil).Code)
	})

	t.Run("DELETE /redeemed/{id} requires admin", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		user := server.userToken(t, uuid.New())
		w := server.do(t, http.MethodDelete, "/redeemed/"+uuid.NewString(), user, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
