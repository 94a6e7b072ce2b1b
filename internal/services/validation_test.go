package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid service request", func(t *testing.T) {
		valid := ServiceRequest{
			Name:        "Bridal Photography",
			Description: "Full day coverage",
			PriceCents:  100000,
		}

		err := vh.ValidateStruct(&valid)
		assert.NoError(t, err)
	})

	t.Run("missing required fields", func(t *testing.T) {
		invalid := ServiceRequest{
			Name: "ab", // too short
			// PriceCents missing
		}

		err := vh.ValidateStruct(&invalid)
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 2) // Name, PriceCents
	})

	t.Run("non-positive price", func(t *testing.T) {
		invalid := ServiceRequest{
			Name:       "Bridal Photography",
			PriceCents: -100,
		}

		err := vh.ValidateStruct(&invalid)
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 1)
		assert.Equal(t, "PriceCents", validationErrors[0].Field())
		assert.Equal(t, "gt", validationErrors[0].Tag())
	})
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("error response without validation errors", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Something went wrong", http.StatusInternalServerError, nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Something went wrong", response.Error)
		assert.Nil(t, response.Details)
	})

	t.Run("error response with validation details", func(t *testing.T) {
		w := httptest.NewRecorder()

		vh := NewValidationHelper()
		validationErr := vh.ValidateStruct(&ServiceRequest{})

		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, validationErr)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Validation failed", response.Error)
		assert.Contains(t, response.Details, "Name")
		assert.Contains(t, response.Details, "PriceCents")
	})
}

func TestSendJSON(t *testing.T) {
	w := httptest.NewRecorder()

	SendJSON(w, http.StatusCreated, map[string]string{"status": "created"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"created"}`, w.Body.String())
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusForError(ErrUserNotFound))
	assert.Equal(t, http.StatusNotFound, StatusForError(ErrServiceNotFound))
	assert.Equal(t, http.StatusConflict, StatusForError(ErrAlreadyUnlocked))
	assert.Equal(t, http.StatusPaymentRequired, StatusForError(ErrInsufficientCoins))
	assert.Equal(t, http.StatusPaymentRequired, StatusForError(ErrInsufficientBalance))
	assert.Equal(t, http.StatusForbidden, StatusForError(ErrNotServiceOwner))
	assert.Equal(t, http.StatusInternalServerError, StatusForError(assert.AnError))
}
