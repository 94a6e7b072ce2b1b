package services

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shaadisync/backend/internal/models"
)

// ArtistService exposes the public artist profile and the admin moderation
// endpoints (verify / block / unblock).
type ArtistService struct {
	db *sql.DB
}

func NewArtistService(db *sql.DB) *ArtistService {
	return &ArtistService{db: db}
}

// GetArtistProfile returns the public view of an artist
// @Summary Get artist profile
// @Description Public artist profile; contact details are only available through the unlock flow
// @Tags artists
// @Produce json
// @Param id path int true "Artist ID"
// @Success 200 {object} models.ArtistProfile "Artist profile"
// @Failure 404 {string} string "Artist not found"
// @Router /artists/{id} [get]
func (s *ArtistService) GetArtistProfile(w http.ResponseWriter, r *http.Request) {
	artistID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		SendErrorResponse(w, "Invalid artist ID", http.StatusBadRequest, nil)
		return
	}

	var profile models.ArtistProfile
	err = s.db.QueryRowContext(r.Context(), `
		SELECT id, studio_name, category, is_verified
		FROM artists WHERE id = $1 AND is_blocked = FALSE`, artistID).
		Scan(&profile.ID, &profile.StudioName, &profile.Category, &profile.IsVerified)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Artist not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[ARTIST] Failed to fetch artist %d: %v", artistID, err)
		SendErrorResponse(w, "Failed to fetch artist", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, profile)
}

// VerifyArtist marks an artist as verified
// @Summary Verify an artist
// @Description Admin marks an artist as verified, allowing their services to go live
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Artist ID"
// @Success 200 {object} map[string]string "Artist verified"
// @Failure 404 {string} string "Artist not found"
// @Router /admin/artists/{id}/verify [put]
func (s *ArtistService) VerifyArtist(w http.ResponseWriter, r *http.Request) {
	artistID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		SendErrorResponse(w, "Invalid artist ID", http.StatusBadRequest, nil)
		return
	}

	result, err := s.db.ExecContext(r.Context(), `
		UPDATE artists SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`, artistID)
	if err != nil {
		log.Printf("[ADMIN] Failed to verify artist %d: %v", artistID, err)
		SendErrorResponse(w, "Failed to verify artist", http.StatusInternalServerError, nil)
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		SendErrorResponse(w, "Artist not found", http.StatusNotFound, nil)
		return
	}

	log.Printf("[ADMIN] Artist %d verified", artistID)
	SendJSON(w, http.StatusOK, map[string]string{"message": "Artist verified"})
}

// BlockArtist blocks an artist and takes all their services offline
// @Summary Block an artist
// @Description Admin blocks an artist; all their live services go offline and the advertised max charge drops to zero
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Artist ID"
// @Success 200 {object} map[string]string "Artist blocked"
// @Failure 404 {string} string "Artist not found"
// @Router /admin/artists/{id}/block [put]
func (s *ArtistService) BlockArtist(w http.ResponseWriter, r *http.Request) {
	artistID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		SendErrorResponse(w, "Invalid artist ID", http.StatusBadRequest, nil)
		return
	}

	tx, err := s.db.BeginTx(r.Context(), nil)
	if err != nil {
		log.Printf("[ADMIN] Failed to begin transaction: %v", err)
		SendErrorResponse(w, "Failed to block artist", http.StatusInternalServerError, nil)
		return
	}
	defer tx.Rollback()

	// Blocking is atomic with the offline cascade: a blocked artist must not
	// keep any service visible in the marketplace.
	result, err := tx.Exec(`
		UPDATE artists SET is_blocked = TRUE, max_charge_cents = 0, updated_at = NOW() WHERE id = $1`, artistID)
	if err != nil {
		log.Printf("[ADMIN] Failed to block artist %d: %v", artistID, err)
		SendErrorResponse(w, "Failed to block artist", http.StatusInternalServerError, nil)
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		SendErrorResponse(w, "Artist not found", http.StatusNotFound, nil)
		return
	}

	if _, err := tx.Exec(`
		UPDATE services SET is_live = FALSE, updated_at = NOW()
		WHERE artist_id = $1 AND is_live = TRUE`, artistID); err != nil {
		log.Printf("[ADMIN] Failed to offline services for artist %d: %v", artistID, err)
		SendErrorResponse(w, "Failed to block artist", http.StatusInternalServerError, nil)
		return
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[ADMIN] Failed to commit block for artist %d: %v", artistID, err)
		SendErrorResponse(w, "Failed to block artist", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[ADMIN] Artist %d blocked, services taken offline", artistID)
	SendJSON(w, http.StatusOK, map[string]string{"message": "Artist blocked"})
}

// UnblockArtist lifts a block
// @Summary Unblock an artist
// @Description Admin unblocks an artist; services stay offline until the artist toggles them back on
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Artist ID"
// @Success 200 {object} map[string]string "Artist unblocked"
// @Failure 404 {string} string "Artist not found"
// @Router /admin/artists/{id}/unblock [put]
func (s *ArtistService) UnblockArtist(w http.ResponseWriter, r *http.Request) {
	artistID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		SendErrorResponse(w, "Invalid artist ID", http.StatusBadRequest, nil)
		return
	}

	result, err := s.db.ExecContext(r.Context(), `
		UPDATE artists SET is_blocked = FALSE, updated_at = NOW() WHERE id = $1`, artistID)
	if err != nil {
		log.Printf("[ADMIN] Failed to unblock artist %d: %v", artistID, err)
		SendErrorResponse(w, "Failed to unblock artist", http.StatusInternalServerError, nil)
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		SendErrorResponse(w, "Artist not found", http.StatusNotFound, nil)
		return
	}

	log.Printf("[ADMIN] Artist %d unblocked", artistID)
	SendJSON(w, http.StatusOK, map[string]string{"message": "Artist unblocked"})
}
