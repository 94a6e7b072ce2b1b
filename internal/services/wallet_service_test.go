package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shaadisync/backend/internal/middleware"
	"github.com/stretchr/testify/assert"
)

func authedRequest(method, target, userID, role string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	ctx = context.WithValue(ctx, middleware.RoleKey, role)
	return r.WithContext(ctx)
}

func TestWalletService_GetUserCoins(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewWalletService(db)

	t.Run("returns balance", func(t *testing.T) {
		mock.ExpectQuery("SELECT sync_coins FROM users").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"sync_coins"}).AddRow(4))

		w := httptest.NewRecorder()
		service.GetUserCoins(w, authedRequest("GET", "/wallet/coins", "1", "user"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"syncCoins":4`)
	})

	t.Run("unknown user", func(t *testing.T) {
		mock.ExpectQuery("SELECT sync_coins FROM users").
			WithArgs(99).
			WillReturnRows(sqlmock.NewRows([]string{"sync_coins"}))

		w := httptest.NewRecorder()
		service.GetUserCoins(w, authedRequest("GET", "/wallet/coins", "99", "user"))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing auth context", func(t *testing.T) {
		w := httptest.NewRecorder()
		service.GetUserCoins(w, httptest.NewRequest("GET", "/wallet/coins", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	// Artist ids live in their own table; an artist token whose id happens
	// to collide with a user id must not read that user's balance.
	t.Run("artist token is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		service.GetUserCoins(w, authedRequest("GET", "/wallet/coins", "1", "artist"))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletService_GetUserTransactions(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewWalletService(db)

	t.Run("returns history", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, transaction_no, user_id, sync_coins, amount_cents, type, description, unlock_id, coins_after, created_at").
			WithArgs(1, 20).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "transaction_no", "user_id", "sync_coins", "amount_cents",
				"type", "description", "unlock_id", "coins_after", "created_at"}).
				AddRow(2, "tx-2", 1, -1, 0, "DEBIT", "Unlocked service", "u-1", 3, time.Now()).
				AddRow(1, "tx-1", 1, 5, 49900, "CREDIT", "SyncCoin purchase", nil, 4, time.Now()))

		w := httptest.NewRecorder()
		service.GetUserTransactions(w, authedRequest("GET", "/wallet/transactions", "1", "user"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":2`)
	})

	t.Run("limit above cap is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		service.GetUserTransactions(w, authedRequest("GET", "/wallet/transactions?limit=500", "1", "user"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWalletService_GetArtistBalance(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewWalletService(db)

	t.Run("returns wallet and max charge", func(t *testing.T) {
		mock.ExpectQuery("SELECT balance_cents, max_charge_cents FROM artists").
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"balance_cents", "max_charge_cents"}).
				AddRow(25000, 100000))

		w := httptest.NewRecorder()
		service.GetArtistBalance(w, authedRequest("GET", "/wallet/balance", "7", "artist"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"balanceCents":25000`)
		assert.Contains(t, w.Body.String(), `"maxChargeCents":100000`)
	})

	t.Run("unknown artist", func(t *testing.T) {
		mock.ExpectQuery("SELECT balance_cents, max_charge_cents FROM artists").
			WithArgs(99).
			WillReturnRows(sqlmock.NewRows([]string{"balance_cents", "max_charge_cents"}))

		w := httptest.NewRecorder()
		service.GetArtistBalance(w, authedRequest("GET", "/wallet/balance", "99", "artist"))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("user token is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		service.GetArtistBalance(w, authedRequest("GET", "/wallet/balance", "7", "user"))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletService_GetArtistTransactions(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewWalletService(db)

	mock.ExpectQuery("SELECT id, transaction_no, artist_id, amount_cents, type, description, unlock_id, balance_after_cents, created_at").
		WithArgs(7, 20).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "transaction_no", "artist_id", "amount_cents",
			"type", "description", "unlock_id", "balance_after_cents", "created_at"}).
			AddRow(1, "tx-1", 7, 1000, "DEBIT", "Unlock fee", "u-1", 24000, time.Now()))

	w := httptest.NewRecorder()
	service.GetArtistTransactions(w, authedRequest("GET", "/wallet/artist-transactions", "7", "artist"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}
