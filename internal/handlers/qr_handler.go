package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shaadisync/backend/internal/middleware"
	"github.com/shaadisync/backend/internal/services"
)

type QRHandler struct {
	service *services.QRService
}

func NewQRHandler(service *services.QRService) *QRHandler {
	return &QRHandler{service: service}
}

// ContactQR returns the contact card QR for an unlocked service
// @Summary Contact card QR
// @Description Render the unlocked artist's contact details as a scannable vCard QR
// @Tags QR
// @Produce json
// @Security BearerAuth
// @Param serviceId path int true "Service ID"
// @Success 200 {object} services.ContactQR
// @Failure 401 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse "Service not unlocked by caller"
// @Router /unlocks/contact-qr/{serviceId} [get]
func (h *QRHandler) ContactQR(w http.ResponseWriter, r *http.Request) {
	if role, _ := r.Context().Value(middleware.RoleKey).(string); role != middleware.RoleUser {
		services.SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return
	}
	rawID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok || rawID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	userID, err := strconv.Atoi(rawID)
	if err != nil {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	serviceID, err := strconv.Atoi(chi.URLParam(r, "serviceId"))
	if err != nil {
		services.SendErrorResponse(w, "Invalid service ID", http.StatusBadRequest, nil)
		return
	}

	result, err := h.service.GenerateContactQR(r.Context(), userID, serviceID)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}

	services.SendJSON(w, http.StatusOK, result)
}
