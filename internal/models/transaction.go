package models

import "time"

const (
	TransactionTypeCredit = "CREDIT"
	TransactionTypeDebit  = "DEBIT"
)

// ArtistTransaction is one row of the append-only artist ledger. Rows are
// never updated or deleted; BalanceAfterCents carries the materialized
// balance at the time of the write so the ledger can be audited offline.
type ArtistTransaction struct {
	ID                int       `json:"id" db:"id"`
	TransactionNo     string    `json:"transactionNo" db:"transaction_no"`
	ArtistID          int       `json:"artistId" db:"artist_id"`
	AmountCents       int64     `json:"amountCents" db:"amount_cents"`
	Type              string    `json:"type" db:"type"`
	Description       string    `json:"description" db:"description"`
	UnlockID          *string   `json:"unlockId,omitempty" db:"unlock_id"`
	BalanceAfterCents int64     `json:"balanceAfterCents" db:"balance_after_cents"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}

// UserTransaction mirrors ArtistTransaction for SyncCoin movements.
// SyncCoins is the signed coin delta; AmountCents is the money side of a
// movement when one exists (webhook purchases), 0 for unlock debits.
type UserTransaction struct {
	ID            int       `json:"id" db:"id"`
	TransactionNo string    `json:"transactionNo" db:"transaction_no"`
	UserID        int       `json:"userId" db:"user_id"`
	SyncCoins     int       `json:"syncCoins" db:"sync_coins"`
	AmountCents   int64     `json:"amountCents" db:"amount_cents"`
	Type          string    `json:"type" db:"type"`
	Description   string    `json:"description" db:"description"`
	UnlockID      *string   `json:"unlockId,omitempty" db:"unlock_id"`
	CoinsAfter    int       `json:"coinsAfter" db:"coins_after"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}
