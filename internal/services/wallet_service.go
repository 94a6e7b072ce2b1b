package services

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"

	"github.com/shaadisync/backend/internal/models"
)

// WalletService exposes read-only views of the two ledgers: SyncCoin
// balances and history for users, wallet balance and history for artists.
type WalletService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewWalletService(db *sql.DB) *WalletService {
	return &WalletService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// GetUserCoins returns the caller's SyncCoin balance
// @Summary Get SyncCoin balance
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{userId=int,syncCoins=int}
// @Failure 404 {object} ErrorResponse
// @Router /wallet/coins [get]
func (ws *WalletService) GetUserCoins(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerUserID(r)
	if !ok {
		SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return
	}

	var coins int
	err := ws.db.QueryRow(`SELECT sync_coins FROM users WHERE id = $1`, userID).Scan(&coins)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, ErrUserNotFound.Error(), http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[WALLET] Coin enquiry failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch balance", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"userId":    userID,
		"syncCoins": coins,
	})
}

// GetUserTransactions returns the caller's SyncCoin ledger history
// @Summary List SyncCoin transactions
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of entries (default 20, max 100)"
// @Success 200 {object} object{transactions=[]models.UserTransaction,count=int}
// @Router /wallet/transactions [get]
func (ws *WalletService) GetUserTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerUserID(r)
	if !ok {
		SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return
	}

	limit, ok := ws.parseLimit(w, r)
	if !ok {
		return
	}

	rows, err := ws.db.Query(`
		SELECT id, transaction_no, user_id, sync_coins, amount_cents, type, description, unlock_id, coins_after, created_at
		FROM user_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		log.Printf("[WALLET] History fetch failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	transactions := []models.UserTransaction{}
	for rows.Next() {
		var t models.UserTransaction
		if err := rows.Scan(&t.ID, &t.TransactionNo, &t.UserID, &t.SyncCoins, &t.AmountCents,
			&t.Type, &t.Description, &t.UnlockID, &t.CoinsAfter, &t.CreatedAt); err != nil {
			SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
			return
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// GetArtistBalance returns the calling artist's wallet balance
// @Summary Get artist wallet balance
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{artistId=int,balanceCents=int64,maxChargeCents=int64}
// @Failure 404 {object} ErrorResponse
// @Router /wallet/balance [get]
func (ws *WalletService) GetArtistBalance(w http.ResponseWriter, r *http.Request) {
	artistID, ok := callerArtistID(r)
	if !ok {
		SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return
	}

	var balance, maxCharge int64
	err := ws.db.QueryRow(`
		SELECT balance_cents, max_charge_cents FROM artists WHERE id = $1`, artistID).
		Scan(&balance, &maxCharge)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, ErrArtistNotFound.Error(), http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[WALLET] Balance enquiry failed for artist %d: %v", artistID, err)
		SendErrorResponse(w, "Failed to fetch balance", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"artistId":       artistID,
		"balanceCents":   balance,
		"maxChargeCents": maxCharge,
	})
}

// GetArtistTransactions returns the calling artist's wallet ledger history
// @Summary List artist wallet transactions
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of entries (default 20, max 100)"
// @Success 200 {object} object{transactions=[]models.ArtistTransaction,count=int}
// @Router /wallet/artist-transactions [get]
func (ws *WalletService) GetArtistTransactions(w http.ResponseWriter, r *http.Request) {
	artistID, ok := callerArtistID(r)
	if !ok {
		SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return
	}

	limit, ok := ws.parseLimit(w, r)
	if !ok {
		return
	}

	rows, err := ws.db.Query(`
		SELECT id, transaction_no, artist_id, amount_cents, type, description, unlock_id, balance_after_cents, created_at
		FROM artist_transactions
		WHERE artist_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, artistID, limit)
	if err != nil {
		log.Printf("[WALLET] History fetch failed for artist %d: %v", artistID, err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	transactions := []models.ArtistTransaction{}
	for rows.Next() {
		var t models.ArtistTransaction
		if err := rows.Scan(&t.ID, &t.TransactionNo, &t.ArtistID, &t.AmountCents,
			&t.Type, &t.Description, &t.UnlockID, &t.BalanceAfterCents, &t.CreatedAt); err != nil {
			SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
			return
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

func (ws *WalletService) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	var req struct {
		Limit int `validate:"omitempty,min=1,max=100"`
	}
	req.Limit = 20

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			req.Limit = l
		}
	}

	if err := ws.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return 0, false
	}
	return req.Limit, true
}
