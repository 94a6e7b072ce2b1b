package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/shaadisync/backend/internal/config"
	"github.com/shaadisync/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func newTestQRService(t *testing.T) (*QRService, sqlmock.Sqlmock, redismock.ClientMock, func()) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	redisClient, redisMock := redismock.NewClientMock()

	fees := testFees()
	cfg := &config.UnlockConfig{ContactQRTTL: 15 * time.Minute, MaxRetries: 1}
	unlocks := NewUnlockService(db, NewLedgerService(db, fees), fees, cfg)
	return NewQRService(unlocks, redisClient, cfg), dbMock, redisMock, func() { db.Close() }
}

func TestQRService_GenerateContactQR(t *testing.T) {
	t.Run("renders and caches the contact card", func(t *testing.T) {
		service, dbMock, redisMock, closeDB := newTestQRService(t)
		defer closeDB()

		redisMock.ExpectGet("contact_qr:1:10").RedisNil()

		dbMock.ExpectQuery("SELECT a.id, a.studio_name, a.email, a.phone_number").
			WithArgs(1, 10).
			WillReturnRows(sqlmock.NewRows([]string{"id", "studio_name", "email", "phone_number"}).
				AddRow(7, "Lens & Light Studios", "studio@example.com", "+919812345679"))

		// cache write carries the serialized result; match loosely
		redisMock.Regexp().ExpectSet("contact_qr:1:10", `.*`, 15*time.Minute).SetVal("OK")

		result, err := service.GenerateContactQR(context.Background(), 1, 10)
		assert.NoError(t, err)
		assert.Equal(t, 7, result.Contact.ArtistID)
		assert.Equal(t, "Lens & Light Studios", result.Contact.StudioName)
		assert.NotEmpty(t, result.QRImage)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("serves from cache without touching the database", func(t *testing.T) {
		service, dbMock, redisMock, closeDB := newTestQRService(t)
		defer closeDB()

		cached, _ := json.Marshal(ContactQR{
			Contact: &models.ArtistContact{ArtistID: 7, StudioName: "Lens & Light Studios"},
			QRImage: "cached-image",
		})
		redisMock.ExpectGet("contact_qr:1:10").SetVal(string(cached))

		result, err := service.GenerateContactQR(context.Background(), 1, 10)
		assert.NoError(t, err)
		assert.Equal(t, "cached-image", result.QRImage)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("locked service yields not unlocked", func(t *testing.T) {
		service, dbMock, redisMock, closeDB := newTestQRService(t)
		defer closeDB()

		redisMock.ExpectGet("contact_qr:1:11").RedisNil()

		dbMock.ExpectQuery("SELECT a.id, a.studio_name, a.email, a.phone_number").
			WithArgs(1, 11).
			WillReturnRows(sqlmock.NewRows([]string{"id", "studio_name", "email", "phone_number"}))

		_, err := service.GenerateContactQR(context.Background(), 1, 11)
		assert.ErrorIs(t, err, ErrNotUnlocked)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestVCard(t *testing.T) {
	card := vCard(&models.ArtistContact{
		StudioName:  "Lens & Light Studios",
		Email:       "studio@example.com",
		PhoneNumber: "+919812345679",
	})

	assert.Contains(t, card, "BEGIN:VCARD")
	assert.Contains(t, card, "FN:Lens & Light Studios")
	assert.Contains(t, card, "TEL:+919812345679")
	assert.Contains(t, card, "EMAIL:studio@example.com")
	assert.Contains(t, card, "END:VCARD")
}
