package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

const testWebhookSecret = "test-webhook-secret"

func newTestPaymentService(t *testing.T) (*PaymentService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	viper.Set("payments.webhook_secret", testWebhookSecret)
	return NewPaymentService(db, NewLedgerService(db, testFees())), mock, func() { db.Close() }
}

func signedWebhookRequest(t *testing.T, event WebhookEvent) *http.Request {
	t.Helper()
	body, err := json.Marshal(event)
	assert.NoError(t, err)

	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", hex.EncodeToString(mac.Sum(nil)))
	return req
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	t.Run("syncoin purchase credits the user", func(t *testing.T) {
		service, mock, closeDB := newTestPaymentService(t)
		defer closeDB()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO payment_events").
			WithArgs("ref-001", EventSyncCoinPurchase).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery("SELECT id, sync_coins FROM users").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "sync_coins"}).AddRow(1, 2))
		mock.ExpectExec("UPDATE users SET sync_coins = \\$1").
			WithArgs(7, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO user_transactions").
			WithArgs(sqlmock.AnyArg(), 1, 5, int64(49900), "CREDIT", sqlmock.AnyArg(), nil, 7).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))
		mock.ExpectCommit()

		req := signedWebhookRequest(t, WebhookEvent{
			Type:        EventSyncCoinPurchase,
			Reference:   "ref-001",
			UserID:      1,
			Coins:       5,
			AmountCents: 49900,
		})
		rec := httptest.NewRecorder()
		service.HandleWebhook(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]string
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "processed", resp["status"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wallet topup credits the artist", func(t *testing.T) {
		service, mock, closeDB := newTestPaymentService(t)
		defer closeDB()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO payment_events").
			WithArgs("ref-002", EventWalletTopup).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery("SELECT id, balance_cents, max_charge_cents, version, is_verified, is_blocked FROM artists").
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance_cents", "max_charge_cents", "version", "is_verified", "is_blocked"}).
				AddRow(7, 1000, 0, 4, true, false))
		mock.ExpectExec("UPDATE artists SET balance_cents = \\$1, version = version \\+ 1").
			WithArgs(int64(51000), 7, 4).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO artist_transactions").
			WithArgs(sqlmock.AnyArg(), 7, int64(50000), "CREDIT", sqlmock.AnyArg(), nil, int64(51000)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))
		mock.ExpectCommit()

		req := signedWebhookRequest(t, WebhookEvent{
			Type:        EventWalletTopup,
			Reference:   "ref-002",
			ArtistID:    7,
			AmountCents: 50000,
		})
		rec := httptest.NewRecorder()
		service.HandleWebhook(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate reference is acknowledged without crediting", func(t *testing.T) {
		service, mock, closeDB := newTestPaymentService(t)
		defer closeDB()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO payment_events").
			WithArgs("ref-001", EventSyncCoinPurchase).
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		req := signedWebhookRequest(t, WebhookEvent{
			Type:        EventSyncCoinPurchase,
			Reference:   "ref-001",
			UserID:      1,
			Coins:       5,
			AmountCents: 49900,
		})
		rec := httptest.NewRecorder()
		service.HandleWebhook(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]string
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "already processed", resp["status"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid signature is rejected", func(t *testing.T) {
		service, mock, closeDB := newTestPaymentService(t)
		defer closeDB()

		body, _ := json.Marshal(WebhookEvent{
			Type:      EventSyncCoinPurchase,
			Reference: "ref-003",
			UserID:    1,
			Coins:     5,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
		req.Header.Set("X-Webhook-Signature", "deadbeef")

		rec := httptest.NewRecorder()
		service.HandleWebhook(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing signature is rejected", func(t *testing.T) {
		service, mock, closeDB := newTestPaymentService(t)
		defer closeDB()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader([]byte("{}")))
		rec := httptest.NewRecorder()
		service.HandleWebhook(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown event type fails validation", func(t *testing.T) {
		service, mock, closeDB := newTestPaymentService(t)
		defer closeDB()

		req := signedWebhookRequest(t, WebhookEvent{
			Type:      "refund.issued",
			Reference: "ref-004",
		})
		rec := httptest.NewRecorder()
		service.HandleWebhook(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
