package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/spf13/viper"
)

const (
	EventSyncCoinPurchase = "syncoin.purchase"
	EventWalletTopup      = "wallet.topup"
)

// PaymentService receives signed webhook events from the payment provider
// and feeds credits into the ledger: SyncCoin purchases for users, wallet
// top-ups for artists. Events are idempotent by provider reference: the
// payment_events row is inserted in the same transaction as the credit, so
// a redelivered event can never credit twice.
type PaymentService struct {
	db        *sql.DB
	ledger    *LedgerService
	validator *ValidationHelper
}

// WebhookEvent is the provider payload. Exactly one of UserID/ArtistID is
// set depending on the event type.
type WebhookEvent struct {
	Type        string `json:"type" validate:"required,oneof=syncoin.purchase wallet.topup"`
	Reference   string `json:"reference" validate:"required,max=64"`
	UserID      int    `json:"userId,omitempty"`
	ArtistID    int    `json:"artistId,omitempty"`
	Coins       int    `json:"coins,omitempty"`
	AmountCents int64  `json:"amountCents,omitempty"`
}

func NewPaymentService(db *sql.DB, ledger *LedgerService) *PaymentService {
	return &PaymentService{
		db:        db,
		ledger:    ledger,
		validator: NewValidationHelper(),
	}
}

// HandleWebhook processes a payment provider event
// @Summary Payment webhook
// @Description Receive a signed payment event and credit SyncCoins or an artist wallet
// @Tags payments
// @Accept json
// @Produce json
// @Param X-Webhook-Signature header string true "Hex HMAC-SHA256 of the raw body"
// @Param event body WebhookEvent true "Payment event"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /payments/webhook [post]
func (ps *PaymentService) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if !ps.verifySignature(body, r.Header.Get("X-Webhook-Signature")) {
		log.Printf("[PAYMENT] Webhook signature verification failed from IP: %s", r.RemoteAddr)
		SendErrorResponse(w, "Invalid signature", http.StatusUnauthorized, nil)
		return
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := ps.validator.ValidateStruct(&event); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	applied, err := ps.processEvent(&event)
	if err != nil {
		status := StatusForError(err)
		if status == http.StatusInternalServerError {
			log.Printf("[PAYMENT] Webhook processing failed for reference %s: %v", event.Reference, err)
			SendErrorResponse(w, "Failed to process event", status, nil)
			return
		}
		SendErrorResponse(w, err.Error(), status, nil)
		return
	}

	message := "processed"
	if !applied {
		message = "already processed"
	}
	SendJSON(w, http.StatusOK, map[string]string{
		"status":    message,
		"reference": event.Reference,
	})
}

// processEvent applies one event. Returns false when the reference was seen
// before (duplicate delivery, nothing applied).
func (ps *PaymentService) processEvent(event *WebhookEvent) (bool, error) {
	tx, err := ps.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO payment_events (reference, event_type)
		VALUES ($1, $2)`, event.Reference, event.Type)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}

	switch event.Type {
	case EventSyncCoinPurchase:
		if event.Coins <= 0 {
			return false, fmt.Errorf("event %s: coins must be positive", event.Reference)
		}
		user, err := ps.ledger.LockUser(tx, event.UserID)
		if err != nil {
			return false, err
		}
		if _, err := ps.ledger.CreditUserCoinsTx(tx, user, event.Coins, event.AmountCents,
			fmt.Sprintf("SyncCoin purchase %s", event.Reference)); err != nil {
			return false, err
		}
		log.Printf("[PAYMENT] Credited %d SyncCoins to user %d (reference %s)", event.Coins, event.UserID, event.Reference)

	case EventWalletTopup:
		if event.AmountCents <= 0 {
			return false, fmt.Errorf("event %s: amount must be positive", event.Reference)
		}
		artist, err := ps.ledger.LockArtist(tx, event.ArtistID)
		if err != nil {
			return false, err
		}
		if _, err := ps.ledger.CreditArtistTx(tx, artist, event.AmountCents,
			fmt.Sprintf("Wallet top-up %s", event.Reference)); err != nil {
			return false, err
		}
		log.Printf("[PAYMENT] Credited %d cents to artist %d (reference %s)", event.AmountCents, event.ArtistID, event.Reference)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (ps *PaymentService) verifySignature(body []byte, signature string) bool {
	secret := viper.GetString("payments.webhook_secret")
	if secret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
