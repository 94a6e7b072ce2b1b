package services

import (
	"database/sql"
	"log"

	"github.com/google/uuid"
	"github.com/shaadisync/backend/internal/config"
	"github.com/shaadisync/backend/internal/models"
)

// LedgerService owns every balance mutation. Balances on users and artists
// are materialized counters; each mutation writes the matching append-only
// transaction row inside the same sql.Tx, so a counter can never move
// without its ledger entry.
type LedgerService struct {
	db   *sql.DB
	fees *config.FeeConfig
}

func NewLedgerService(db *sql.DB, fees *config.FeeConfig) *LedgerService {
	return &LedgerService{db: db, fees: fees}
}

// LockedUser is a user row held under FOR UPDATE for the rest of the
// transaction.
type LockedUser struct {
	ID        int
	SyncCoins int
}

// LockedArtist is an artist row held under FOR UPDATE. Debits update the
// struct in place so later steps (the reconciler) see the new balance.
type LockedArtist struct {
	ID             int
	BalanceCents   int64
	MaxChargeCents int64
	Version        int
	IsVerified     bool
	IsBlocked      bool
}

// LockUser locks the user row for the duration of tx.
func (s *LedgerService) LockUser(tx *sql.Tx, userID int) (*LockedUser, error) {
	var u LockedUser
	err := tx.QueryRow(`
		SELECT id, sync_coins FROM users
		WHERE id = $1
		FOR UPDATE`, userID).Scan(&u.ID, &u.SyncCoins)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// LockArtist locks the artist row for the duration of tx. Lock order is
// always user before artist; no flow locks an artist and then a user.
func (s *LedgerService) LockArtist(tx *sql.Tx, artistID int) (*LockedArtist, error) {
	var a LockedArtist
	err := tx.QueryRow(`
		SELECT id, balance_cents, max_charge_cents, version, is_verified, is_blocked FROM artists
		WHERE id = $1
		FOR UPDATE`, artistID).Scan(&a.ID, &a.BalanceCents, &a.MaxChargeCents, &a.Version, &a.IsVerified, &a.IsBlocked)
	if err == sql.ErrNoRows {
		return nil, ErrArtistNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// DebitArtistTx moves amountCents out of the artist wallet and appends the
// matching DEBIT entry. The caller must hold the artist lock.
func (s *LedgerService) DebitArtistTx(tx *sql.Tx, artist *LockedArtist, amountCents int64, description string, unlockID *string) (*models.ArtistTransaction, error) {
	if artist.BalanceCents < amountCents {
		return nil, ErrInsufficientBalance
	}

	newBalance := artist.BalanceCents - amountCents
	if err := s.updateArtistBalance(tx, artist, newBalance); err != nil {
		return nil, err
	}

	return s.appendArtistEntry(tx, artist.ID, amountCents, models.TransactionTypeDebit, description, unlockID, newBalance)
}

// CreditArtistTx moves amountCents into the artist wallet and appends the
// matching CREDIT entry. The caller must hold the artist lock.
func (s *LedgerService) CreditArtistTx(tx *sql.Tx, artist *LockedArtist, amountCents int64, description string) (*models.ArtistTransaction, error) {
	newBalance := artist.BalanceCents + amountCents
	if err := s.updateArtistBalance(tx, artist, newBalance); err != nil {
		return nil, err
	}

	return s.appendArtistEntry(tx, artist.ID, amountCents, models.TransactionTypeCredit, description, nil, newBalance)
}

// DebitUserCoinsTx spends SyncCoins and appends the matching DEBIT entry.
// The caller must hold the user lock.
func (s *LedgerService) DebitUserCoinsTx(tx *sql.Tx, user *LockedUser, coins int, description string, unlockID *string) (*models.UserTransaction, error) {
	if user.SyncCoins < coins {
		return nil, ErrInsufficientCoins
	}

	newCoins := user.SyncCoins - coins
	if err := s.updateUserCoins(tx, user, newCoins); err != nil {
		return nil, err
	}

	return s.appendUserEntry(tx, user.ID, -coins, 0, models.TransactionTypeDebit, description, unlockID, newCoins)
}

// CreditUserCoinsTx grants SyncCoins and appends the matching CREDIT entry,
// recording the money paid for them when there was one. The caller must
// hold the user lock.
func (s *LedgerService) CreditUserCoinsTx(tx *sql.Tx, user *LockedUser, coins int, amountCents int64, description string) (*models.UserTransaction, error) {
	newCoins := user.SyncCoins + coins
	if err := s.updateUserCoins(tx, user, newCoins); err != nil {
		return nil, err
	}

	return s.appendUserEntry(tx, user.ID, coins, amountCents, models.TransactionTypeCredit, description, nil, newCoins)
}

// ReconcileLiveServicesTx re-evaluates the artist's live listings after a
// debit. Two-level gate: the stale maxCharge threshold decides whether the
// per-service pass runs at all, then each live service is checked against
// its own price threshold. Turning services off only ever lowers maxCharge,
// so a single pass suffices. Returns the artist's maxCharge after the pass.
func (s *LedgerService) ReconcileLiveServicesTx(tx *sql.Tx, artist *LockedArtist) (int64, error) {
	gate := config.BpsOf(artist.MaxChargeCents, s.fees.DeactivationBps)
	if artist.BalanceCents >= gate {
		return artist.MaxChargeCents, nil
	}

	rows, err := tx.Query(`
		SELECT id, price_cents FROM services
		WHERE artist_id = $1 AND is_live = TRUE
		ORDER BY id`, artist.ID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var offline []int
	for rows.Next() {
		var id int
		var priceCents int64
		if err := rows.Scan(&id, &priceCents); err != nil {
			return 0, err
		}
		if artist.BalanceCents < config.BpsOf(priceCents, s.fees.DeactivationBps) {
			offline = append(offline, id)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range offline {
		if _, err := tx.Exec(`
			UPDATE services SET is_live = FALSE, updated_at = NOW()
			WHERE id = $1`, id); err != nil {
			return 0, err
		}
		log.Printf("[LEDGER] Service %d taken offline for artist %d (balance below threshold)", id, artist.ID)
	}

	newMax, err := s.RecomputeMaxChargeTx(tx, artist.ID)
	if err != nil {
		return 0, err
	}
	artist.MaxChargeCents = newMax
	return newMax, nil
}

// RecomputeMaxChargeTx refreshes the cached maxCharge from the artist's
// remaining live services (0 if none) and returns the new value.
func (s *LedgerService) RecomputeMaxChargeTx(tx *sql.Tx, artistID int) (int64, error) {
	var newMax int64
	err := tx.QueryRow(`
		SELECT COALESCE(MAX(price_cents), 0) FROM services
		WHERE artist_id = $1 AND is_live = TRUE`, artistID).Scan(&newMax)
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(`
		UPDATE artists SET max_charge_cents = $1, updated_at = NOW()
		WHERE id = $2`, newMax, artistID); err != nil {
		return 0, err
	}
	return newMax, nil
}

func (s *LedgerService) updateArtistBalance(tx *sql.Tx, artist *LockedArtist, newBalance int64) error {
	result, err := tx.Exec(`
		UPDATE artists SET balance_cents = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3`,
		newBalance, artist.ID, artist.Version)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOptimisticLock
	}

	artist.BalanceCents = newBalance
	artist.Version++
	return nil
}

func (s *LedgerService) updateUserCoins(tx *sql.Tx, user *LockedUser, newCoins int) error {
	result, err := tx.Exec(`
		UPDATE users SET sync_coins = $1, updated_at = NOW()
		WHERE id = $2`, newCoins, user.ID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	user.SyncCoins = newCoins
	return nil
}

func (s *LedgerService) appendArtistEntry(tx *sql.Tx, artistID int, amountCents int64, entryType, description string, unlockID *string, balanceAfter int64) (*models.ArtistTransaction, error) {
	entry := &models.ArtistTransaction{
		TransactionNo:     uuid.NewString(),
		ArtistID:          artistID,
		AmountCents:       amountCents,
		Type:              entryType,
		Description:       description,
		UnlockID:          unlockID,
		BalanceAfterCents: balanceAfter,
	}

	err := tx.QueryRow(`
		INSERT INTO artist_transactions (transaction_no, artist_id, amount_cents, type, description, unlock_id, balance_after_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		entry.TransactionNo, entry.ArtistID, entry.AmountCents, entry.Type, entry.Description, entry.UnlockID, entry.BalanceAfterCents).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *LedgerService) appendUserEntry(tx *sql.Tx, userID, coins int, amountCents int64, entryType, description string, unlockID *string, coinsAfter int) (*models.UserTransaction, error) {
	entry := &models.UserTransaction{
		TransactionNo: uuid.NewString(),
		UserID:        userID,
		SyncCoins:     coins,
		AmountCents:   amountCents,
		Type:          entryType,
		Description:   description,
		UnlockID:      unlockID,
		CoinsAfter:    coinsAfter,
	}

	err := tx.QueryRow(`
		INSERT INTO user_transactions (transaction_no, user_id, sync_coins, amount_cents, type, description, unlock_id, coins_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		entry.TransactionNo, entry.UserID, entry.SyncCoins, entry.AmountCents, entry.Type, entry.Description, entry.UnlockID, entry.CoinsAfter).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	return entry, nil
}
