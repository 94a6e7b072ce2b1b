package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shaadisync/backend/internal/config"
	"github.com/shaadisync/backend/internal/middleware"
	"github.com/shaadisync/backend/internal/models"
)

// UnlockService orchestrates the paid reveal of an artist's contact details.
// A successful unlock atomically debits the per-unlock fee from the artist
// wallet, spends one of the user's SyncCoins, records both ledger entries
// and the unlock row, and reconciles the artist's live listings, all in a
// single database transaction.
type UnlockService struct {
	db        *sql.DB
	ledger    *LedgerService
	fees      *config.FeeConfig
	cfg       *config.UnlockConfig
	validator *ValidationHelper
}

func NewUnlockService(db *sql.DB, ledger *LedgerService, fees *config.FeeConfig, cfg *config.UnlockConfig) *UnlockService {
	return &UnlockService{
		db:        db,
		ledger:    ledger,
		fees:      fees,
		cfg:       cfg,
		validator: NewValidationHelper(),
	}
}

// UnlockResult bundles the three records a successful unlock creates.
type UnlockResult struct {
	Unlock            *models.Unlock            `json:"unlock"`
	ArtistTransaction *models.ArtistTransaction `json:"artistTransaction"`
	UserTransaction   *models.UserTransaction   `json:"userTransaction"`
}

// ProcessUnlock runs the unlock orchestration, retrying once on transient
// transaction conflicts (serialization failure, deadlock).
func (s *UnlockService) ProcessUnlock(ctx context.Context, userID, serviceID int) (*UnlockResult, error) {
	var result *UnlockResult
	var err error
	for attempt := 0; ; attempt++ {
		result, err = s.processUnlockOnce(ctx, userID, serviceID)
		if err == nil || !isRetryableTxError(err) || attempt >= s.cfg.MaxRetries {
			return result, err
		}
		log.Printf("[UNLOCK] Transient conflict for user %d service %d, retrying: %v", userID, serviceID, err)
	}
}

func (s *UnlockService) processUnlockOnce(ctx context.Context, userID, serviceID int) (*UnlockResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Preconditions, checked in order; a failure here has produced no
	// writes, so the rollback is a no-op.
	user, err := s.ledger.LockUser(tx, userID)
	if err != nil {
		return nil, err
	}

	var artistID int
	var serviceName string
	var priceCents int64
	err = tx.QueryRow(`
		SELECT artist_id, name, price_cents FROM services
		WHERE id = $1`, serviceID).Scan(&artistID, &serviceName, &priceCents)
	if err == sql.ErrNoRows {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}

	var alreadyUnlocked bool
	err = tx.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM unlocks WHERE user_id = $1 AND service_id = $2)`,
		userID, serviceID).Scan(&alreadyUnlocked)
	if err != nil {
		return nil, err
	}
	if alreadyUnlocked {
		return nil, ErrAlreadyUnlocked
	}

	if user.SyncCoins < 1 {
		return nil, ErrInsufficientCoins
	}

	feeCents := config.BpsOf(priceCents, s.fees.UnlockFeeBps)
	artist, err := s.ledger.LockArtist(tx, artistID)
	if err != nil {
		return nil, err
	}
	if artist.BalanceCents < feeCents {
		return nil, ErrInsufficientBalance
	}

	// Mutation phase. The unique constraint on unlocks(user_id, service_id)
	// is the real double-unlock guard; a concurrent loser surfaces here as
	// a unique violation and is reported as AlreadyUnlocked.
	unlock := &models.Unlock{
		ID:        uuid.NewString(),
		UserID:    userID,
		ServiceID: serviceID,
		ArtistID:  artistID,
	}
	err = tx.QueryRow(`
		INSERT INTO unlocks (id, user_id, service_id, artist_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		unlock.ID, unlock.UserID, unlock.ServiceID, unlock.ArtistID).Scan(&unlock.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyUnlocked
		}
		return nil, err
	}

	artistEntry, err := s.ledger.DebitArtistTx(tx, artist, feeCents,
		fmt.Sprintf("Unlock fee for service %q", serviceName), &unlock.ID)
	if err != nil {
		return nil, err
	}

	userEntry, err := s.ledger.DebitUserCoinsTx(tx, user, 1,
		fmt.Sprintf("Unlocked service %q", serviceName), &unlock.ID)
	if err != nil {
		return nil, err
	}

	if _, err := s.ledger.ReconcileLiveServicesTx(tx, artist); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("[UNLOCK] User %d unlocked service %d (fee %d cents, artist %d balance now %d)",
		userID, serviceID, feeCents, artistID, artist.BalanceCents)
	return &UnlockResult{
		Unlock:            unlock,
		ArtistTransaction: artistEntry,
		UserTransaction:   userEntry,
	}, nil
}

// CreateUnlock handles the unlock request
// @Summary Unlock a service
// @Description Spend one SyncCoin to permanently unlock an artist's contact details for a service
// @Tags unlocks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{serviceId=int} true "Unlock request"
// @Success 201 {object} UnlockResult
// @Failure 400 {object} ErrorResponse
// @Failure 402 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /unlock [post]
func (s *UnlockService) CreateUnlock(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerUserID(r)
	if !ok {
		SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return
	}

	var req struct {
		ServiceID int `json:"serviceId" validate:"required,gt=0"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := s.ProcessUnlock(r.Context(), userID, req.ServiceID)
	if err != nil {
		status := StatusForError(err)
		if status == http.StatusInternalServerError {
			log.Printf("[UNLOCK] Unlock failed for user %d service %d: %v", userID, req.ServiceID, err)
			SendErrorResponse(w, "Failed to process unlock", status, nil)
			return
		}
		SendErrorResponse(w, err.Error(), status, nil)
		return
	}

	SendJSON(w, http.StatusCreated, result)
}

// IsUnlocked reports whether a user has unlocked a service
// @Summary Check unlock status
// @Description Check whether a (user, service) pair has an unlock record
// @Tags unlocks
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Param serviceId path int true "Service ID"
// @Success 200 {object} object{unlock=models.Unlock}
// @Failure 404 {object} ErrorResponse
// @Router /unlocks/is-unlocked/{userId}/{serviceId} [get]
func (s *UnlockService) IsUnlocked(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userId"))
	if err != nil {
		SendErrorResponse(w, "Invalid user id", http.StatusBadRequest, nil)
		return
	}
	serviceID, err := strconv.Atoi(chi.URLParam(r, "serviceId"))
	if err != nil {
		SendErrorResponse(w, "Invalid service id", http.StatusBadRequest, nil)
		return
	}

	if !callerMatches(r, userID) {
		SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return
	}

	var unlock models.Unlock
	err = s.db.QueryRow(`
		SELECT id, user_id, service_id, artist_id, created_at FROM unlocks
		WHERE user_id = $1 AND service_id = $2`,
		userID, serviceID).Scan(&unlock.ID, &unlock.UserID, &unlock.ServiceID, &unlock.ArtistID, &unlock.CreatedAt)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, ErrNotUnlocked.Error(), http.StatusNotFound, nil)
		return
	}
	if err != nil {
		SendErrorResponse(w, "Failed to fetch unlock", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{"unlock": unlock})
}

// ListUserUnlocks lists a user's unlocked services
// @Summary List unlocked services
// @Description List a user's unlock records joined with service summaries
// @Tags unlocks
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {array} models.UnlockedService
// @Router /unlocks/user/{userId} [get]
func (s *UnlockService) ListUserUnlocks(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userId"))
	if err != nil {
		SendErrorResponse(w, "Invalid user id", http.StatusBadRequest, nil)
		return
	}

	if !callerMatches(r, userID) {
		SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return
	}

	rows, err := s.db.Query(`
		SELECT u.id, u.user_id, u.service_id, u.artist_id, u.created_at,
		       s.name, s.price_cents, a.studio_name
		FROM unlocks u
		JOIN services s ON s.id = u.service_id
		JOIN artists a ON a.id = u.artist_id
		WHERE u.user_id = $1
		ORDER BY u.created_at DESC`, userID)
	if err != nil {
		SendErrorResponse(w, "Failed to fetch unlocks", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	unlocked := []models.UnlockedService{}
	for rows.Next() {
		var item models.UnlockedService
		if err := rows.Scan(&item.Unlock.ID, &item.Unlock.UserID, &item.Unlock.ServiceID,
			&item.Unlock.ArtistID, &item.Unlock.CreatedAt,
			&item.Service.Name, &item.Service.PriceCents, &item.Service.StudioName); err != nil {
			SendErrorResponse(w, "Failed to fetch unlocks", http.StatusInternalServerError, nil)
			return
		}
		item.Service.ID = item.Unlock.ServiceID
		item.Service.ArtistID = item.Unlock.ArtistID
		unlocked = append(unlocked, item)
	}
	if err := rows.Err(); err != nil {
		SendErrorResponse(w, "Failed to fetch unlocks", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, unlocked)
}

// GetContact returns the artist contact details behind an unlocked service
// @Summary Get unlocked contact details
// @Description Return the artist contact payload for a service the caller has unlocked
// @Tags unlocks
// @Produce json
// @Security BearerAuth
// @Param serviceId path int true "Service ID"
// @Success 200 {object} models.ArtistContact
// @Failure 404 {object} ErrorResponse
// @Router /unlocks/contact/{serviceId} [get]
func (s *UnlockService) GetContact(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerUserID(r)
	if !ok {
		SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return
	}
	serviceID, err := strconv.Atoi(chi.URLParam(r, "serviceId"))
	if err != nil {
		SendErrorResponse(w, "Invalid service id", http.StatusBadRequest, nil)
		return
	}

	contact, err := s.FetchContact(r.Context(), userID, serviceID)
	if err != nil {
		status := StatusForError(err)
		if status == http.StatusInternalServerError {
			SendErrorResponse(w, "Failed to fetch contact", status, nil)
			return
		}
		SendErrorResponse(w, err.Error(), status, nil)
		return
	}

	SendJSON(w, http.StatusOK, contact)
}

// FetchContact loads the contact payload for a service the user has
// unlocked. Shared by the contact endpoint and the QR handler.
func (s *UnlockService) FetchContact(ctx context.Context, userID, serviceID int) (*models.ArtistContact, error) {
	var contact models.ArtistContact
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.studio_name, a.email, a.phone_number
		FROM unlocks u
		JOIN artists a ON a.id = u.artist_id
		WHERE u.user_id = $1 AND u.service_id = $2`,
		userID, serviceID).Scan(&contact.ArtistID, &contact.StudioName, &contact.Email, &contact.PhoneNumber)
	if err == sql.ErrNoRows {
		return nil, ErrNotUnlocked
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// callerID extracts the authenticated principal id from the request context.
func callerID(r *http.Request) (int, bool) {
	raw, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok || raw == "" {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}

// callerUserID extracts the principal id for routes scoped to the user
// table. Artist ids share the same numeric space, so the role has to be
// checked before the id means anything.
func callerUserID(r *http.Request) (int, bool) {
	if role, _ := r.Context().Value(middleware.RoleKey).(string); role != middleware.RoleUser {
		return 0, false
	}
	return callerID(r)
}

// callerArtistID is the artist-table counterpart of callerUserID.
func callerArtistID(r *http.Request) (int, bool) {
	if role, _ := r.Context().Value(middleware.RoleKey).(string); role != middleware.RoleArtist {
		return 0, false
	}
	return callerID(r)
}

// callerMatches reports whether the caller is the given user or an admin.
// Non-user, non-admin principals never match, whatever their id.
func callerMatches(r *http.Request, userID int) bool {
	role, _ := r.Context().Value(middleware.RoleKey).(string)
	if role == middleware.RoleAdmin {
		return true
	}
	if role != middleware.RoleUser {
		return false
	}
	id, ok := callerID(r)
	return ok && id == userID
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isRetryableTxError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	// serialization_failure, deadlock_detected
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
