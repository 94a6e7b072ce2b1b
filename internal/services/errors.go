package services

import (
	"errors"
	"net/http"
)

// Typed failures surfaced by the unlock and catalog flows. Handlers map
// these onto HTTP statuses with StatusForError; anything unrecognized is a
// mutation-phase failure and becomes a 500 after rollback.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrArtistNotFound  = errors.New("artist not found")
	ErrServiceNotFound = errors.New("service not found")

	ErrAlreadyUnlocked = errors.New("service already unlocked")
	ErrNotUnlocked     = errors.New("service not unlocked")

	ErrInsufficientCoins   = errors.New("insufficient SyncCoins")
	ErrInsufficientBalance = errors.New("insufficient artist balance")

	ErrNotServiceOwner   = errors.New("caller does not own this service")
	ErrArtistNotVerified = errors.New("artist is not verified")
	ErrArtistBlocked     = errors.New("artist is blocked")
	ErrServiceLive       = errors.New("service is live")

	ErrOptimisticLock = errors.New("concurrent balance update, please retry")
)

// StatusForError maps a typed error to its HTTP status.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrArtistNotFound),
		errors.Is(err, ErrServiceNotFound),
		errors.Is(err, ErrNotUnlocked):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyUnlocked),
		errors.Is(err, ErrServiceLive),
		errors.Is(err, ErrOptimisticLock):
		return http.StatusConflict
	case errors.Is(err, ErrInsufficientCoins),
		errors.Is(err, ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrNotServiceOwner),
		errors.Is(err, ErrArtistBlocked):
		return http.StatusForbidden
	case errors.Is(err, ErrArtistNotVerified):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
