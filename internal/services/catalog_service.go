package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shaadisync/backend/internal/config"
	"github.com/shaadisync/backend/internal/models"
)

// CatalogService manages service listings and the live/offline state
// machine. Flipping a listing live requires a verified artist with wallet
// balance at or above the activation threshold for its price; flipping it
// off is unconditional. Both directions recompute the artist's cached
// maxCharge.
type CatalogService struct {
	db        *sql.DB
	ledger    *LedgerService
	fees      *config.FeeConfig
	validator *ValidationHelper
}

// Categories offered on the marketplace.
var serviceCategories = []string{
	"Photography",
	"Videography",
	"Decoration",
	"Catering",
	"Mehendi",
	"Makeup",
	"Music & DJ",
	"Venue",
	"Invitations",
	"Choreography",
}

type ServiceRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=120"`
	Description string `json:"description" validate:"max=2000"`
	PriceCents  int64  `json:"priceCents" validate:"required,gt=0"`
}

func NewCatalogService(db *sql.DB, ledger *LedgerService, fees *config.FeeConfig) *CatalogService {
	return &CatalogService{
		db:        db,
		ledger:    ledger,
		fees:      fees,
		validator: NewValidationHelper(),
	}
}

// ToggleLive flips a listing between live and offline, enforcing the
// activation thresholds. Exported for tests; ToggleLiveHandler wraps it.
func (cs *CatalogService) ToggleLive(ctx context.Context, callerArtistID, serviceID int) (*models.Service, error) {
	tx, err := cs.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var svc models.Service
	err = tx.QueryRow(`
		SELECT id, artist_id, name, price_cents, is_live FROM services
		WHERE id = $1
		FOR UPDATE`, serviceID).Scan(&svc.ID, &svc.ArtistID, &svc.Name, &svc.PriceCents, &svc.IsLive)
	if err == sql.ErrNoRows {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}

	if svc.ArtistID != callerArtistID {
		return nil, ErrNotServiceOwner
	}

	if !svc.IsLive {
		artist, err := cs.ledger.LockArtist(tx, svc.ArtistID)
		if err != nil {
			return nil, err
		}
		if artist.IsBlocked {
			return nil, ErrArtistBlocked
		}
		if !artist.IsVerified {
			return nil, ErrArtistNotVerified
		}
		if artist.BalanceCents < config.BpsOf(svc.PriceCents, cs.fees.ActivationBps) {
			return nil, ErrInsufficientBalance
		}
	}

	svc.IsLive = !svc.IsLive
	if _, err := tx.Exec(`
		UPDATE services SET is_live = $1, updated_at = NOW()
		WHERE id = $2`, svc.IsLive, svc.ID); err != nil {
		return nil, err
	}

	if _, err := cs.ledger.RecomputeMaxChargeTx(tx, svc.ArtistID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("[CATALOG] Artist %d toggled service %d live=%t", callerArtistID, serviceID, svc.IsLive)
	return &svc, nil
}

// ToggleLiveHandler toggles a service's live status
// @Summary Toggle service live status
// @Description Flip a listing between live and offline; going live requires verification and wallet balance
// @Tags services
// @Produce json
// @Security BearerAuth
// @Param id path int true "Service ID"
// @Success 200 {object} models.Service
// @Failure 402 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /services/toggle/{id} [put]
func (cs *CatalogService) ToggleLiveHandler(w http.ResponseWriter, r *http.Request) {
	artistID, ok := callerArtistID(r)
	if !ok {
		SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return
	}
	serviceID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		SendErrorResponse(w, "Invalid service id", http.StatusBadRequest, nil)
		return
	}

	svc, err := cs.ToggleLive(r.Context(), artistID, serviceID)
	if err != nil {
		status := StatusForError(err)
		if status == http.StatusInternalServerError {
			log.Printf("[CATALOG] Toggle failed for service %d: %v", serviceID, err)
			SendErrorResponse(w, "Failed to toggle service", status, nil)
			return
		}
		SendErrorResponse(w, err.Error(), status, nil)
		return
	}

	SendJSON(w, http.StatusOK, svc)
}

// CreateService creates a new listing
// @Summary Create a service listing
// @Description Create a new (offline) service listing for the calling artist
// @Tags services
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param service body ServiceRequest true "Service data"
// @Success 201 {object} models.Service
// @Failure 400 {object} ErrorResponse
// @Router /services [post]
func (cs *CatalogService) CreateService(w http.ResponseWriter, r *http.Request) {
	artistID, ok := callerArtistID(r)
	if !ok {
		SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return
	}

	req, ok := cs.decodeServiceRequest(w, r)
	if !ok {
		return
	}

	svc := models.Service{
		ArtistID:    artistID,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
	}
	err := cs.db.QueryRow(`
		INSERT INTO services (artist_id, name, description, price_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_live, created_at, updated_at`,
		svc.ArtistID, svc.Name, svc.Description, svc.PriceCents).
		Scan(&svc.ID, &svc.IsLive, &svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		log.Printf("[CATALOG] Service creation failed for artist %d: %v", artistID, err)
		SendErrorResponse(w, "Failed to create service", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[CATALOG] Artist %d created service %d (%s)", artistID, svc.ID, svc.Name)
	SendJSON(w, http.StatusCreated, svc)
}

// UpdateService edits a listing. Price edits are rejected while the listing
// is live so the activation threshold cannot be bypassed after the fact.
// @Summary Update a service listing
// @Tags services
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Service ID"
// @Param service body ServiceRequest true "Service data"
// @Success 200 {object} models.Service
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /services/{id} [put]
func (cs *CatalogService) UpdateService(w http.ResponseWriter, r *http.Request) {
	artistID, ok := callerArtistID(r)
	if !ok {
		SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return
	}
	serviceID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		SendErrorResponse(w, "Invalid service id", http.StatusBadRequest, nil)
		return
	}

	req, ok := cs.decodeServiceRequest(w, r)
	if !ok {
		return
	}

	var svc models.Service
	err = cs.db.QueryRow(`
		SELECT id, artist_id, price_cents, is_live FROM services
		WHERE id = $1`, serviceID).Scan(&svc.ID, &svc.ArtistID, &svc.PriceCents, &svc.IsLive)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, ErrServiceNotFound.Error(), http.StatusNotFound, nil)
		return
	}
	if err != nil {
		SendErrorResponse(w, "Failed to update service", http.StatusInternalServerError, nil)
		return
	}
	if svc.ArtistID != artistID {
		SendErrorResponse(w, ErrNotServiceOwner.Error(), http.StatusForbidden, nil)
		return
	}
	if svc.IsLive && req.PriceCents != svc.PriceCents {
		SendErrorResponse(w, "cannot change price while service is live", http.StatusConflict, nil)
		return
	}

	err = cs.db.QueryRow(`
		UPDATE services SET name = $1, description = $2, price_cents = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING id, artist_id, name, description, price_cents, is_live, created_at, updated_at`,
		req.Name, req.Description, req.PriceCents, serviceID).
		Scan(&svc.ID, &svc.ArtistID, &svc.Name, &svc.Description, &svc.PriceCents, &svc.IsLive, &svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		SendErrorResponse(w, "Failed to update service", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, svc)
}

// DeleteService removes an offline listing
// @Summary Delete a service listing
// @Tags services
// @Security BearerAuth
// @Param id path int true "Service ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /services/{id} [delete]
func (cs *CatalogService) DeleteService(w http.ResponseWriter, r *http.Request) {
	artistID, ok := callerArtistID(r)
	if !ok {
		SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return
	}
	serviceID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		SendErrorResponse(w, "Invalid service id", http.StatusBadRequest, nil)
		return
	}

	var ownerID int
	var isLive bool
	err = cs.db.QueryRow(`
		SELECT artist_id, is_live FROM services WHERE id = $1`, serviceID).Scan(&ownerID, &isLive)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, ErrServiceNotFound.Error(), http.StatusNotFound, nil)
		return
	}
	if err != nil {
		SendErrorResponse(w, "Failed to delete service", http.StatusInternalServerError, nil)
		return
	}
	if ownerID != artistID {
		SendErrorResponse(w, ErrNotServiceOwner.Error(), http.StatusForbidden, nil)
		return
	}
	if isLive {
		SendErrorResponse(w, "take the service offline before deleting it", http.StatusConflict, nil)
		return
	}

	if _, err := cs.db.Exec(`DELETE FROM services WHERE id = $1`, serviceID); err != nil {
		SendErrorResponse(w, "Failed to delete service", http.StatusInternalServerError, nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListLiveServices lists live listings, optionally filtered by category
// @Summary List live services
// @Tags services
// @Produce json
// @Param category query string false "Filter by category"
// @Success 200 {object} object{services=[]models.ServiceSummary,count=int}
// @Router /services [get]
func (cs *CatalogService) ListLiveServices(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	query := `
		SELECT s.id, s.name, s.price_cents, s.artist_id, a.studio_name
		FROM services s
		JOIN artists a ON a.id = s.artist_id
		WHERE s.is_live = TRUE AND a.is_blocked = FALSE`
	args := []any{}
	if category != "" {
		query += ` AND a.category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY s.created_at DESC`

	rows, err := cs.db.Query(query, args...)
	if err != nil {
		SendErrorResponse(w, "Failed to fetch services", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	services := []models.ServiceSummary{}
	for rows.Next() {
		var svc models.ServiceSummary
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.PriceCents, &svc.ArtistID, &svc.StudioName); err != nil {
			SendErrorResponse(w, "Failed to fetch services", http.StatusInternalServerError, nil)
			return
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		SendErrorResponse(w, "Failed to fetch services", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"services": services,
		"count":    len(services),
	})
}

// GetService fetches one live listing
// @Summary Get a service
// @Tags services
// @Produce json
// @Param id path int true "Service ID"
// @Success 200 {object} models.Service
// @Failure 404 {object} ErrorResponse
// @Router /services/{id} [get]
func (cs *CatalogService) GetService(w http.ResponseWriter, r *http.Request) {
	serviceID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		SendErrorResponse(w, "Invalid service id", http.StatusBadRequest, nil)
		return
	}

	var svc models.Service
	err = cs.db.QueryRow(`
		SELECT id, artist_id, name, description, price_cents, is_live, created_at, updated_at
		FROM services
		WHERE id = $1 AND is_live = TRUE`, serviceID).
		Scan(&svc.ID, &svc.ArtistID, &svc.Name, &svc.Description, &svc.PriceCents, &svc.IsLive, &svc.CreatedAt, &svc.UpdatedAt)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, ErrServiceNotFound.Error(), http.StatusNotFound, nil)
		return
	}
	if err != nil {
		SendErrorResponse(w, "Failed to fetch service", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, svc)
}

// GetCategories lists the marketplace categories
// @Summary List service categories
// @Tags services
// @Produce json
// @Success 200 {object} object{categories=[]string}
// @Router /services/categories [get]
func (cs *CatalogService) GetCategories(w http.ResponseWriter, r *http.Request) {
	SendJSON(w, http.StatusOK, map[string]any{"categories": serviceCategories})
}

func (cs *CatalogService) decodeServiceRequest(w http.ResponseWriter, r *http.Request) (*ServiceRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req ServiceRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return nil, false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return nil, false
	}
	if err := cs.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return nil, false
	}
	return &req, true
}
