package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"

	"github.com/go-redis/redis/v8"
	"github.com/shaadisync/backend/internal/config"
	"github.com/shaadisync/backend/internal/models"
	"github.com/skip2/go-qrcode"
)

// QRService renders an unlocked artist contact as a scannable vCard so users
// can save the vendor straight to their phone.
type QRService struct {
	unlocks *UnlockService
	redis   *redis.Client
	cfg     *config.UnlockConfig
}

func NewQRService(unlocks *UnlockService, redisClient *redis.Client, cfg *config.UnlockConfig) *QRService {
	return &QRService{
		unlocks: unlocks,
		redis:   redisClient,
		cfg:     cfg,
	}
}

// ContactQR holds a rendered contact card.
type ContactQR struct {
	Contact *models.ArtistContact `json:"contact"`
	QRImage string                `json:"qrImage"` // base64 PNG
}

// GenerateContactQR builds the contact QR for an unlocked service. The caller
// must already hold an unlock; otherwise ErrNotUnlocked is returned.
func (s *QRService) GenerateContactQR(ctx context.Context, userID, serviceID int) (*ContactQR, error) {
	if s.redis != nil {
		key := fmt.Sprintf("contact_qr:%d:%d", userID, serviceID)
		if data, err := s.redis.Get(ctx, key).Bytes(); err == nil {
			var cached ContactQR
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	contact, err := s.unlocks.FetchContact(ctx, userID, serviceID)
	if err != nil {
		return nil, err
	}

	qr, err := qrcode.New(vCard(contact), qrcode.Medium)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return nil, err
	}

	result := &ContactQR{
		Contact: contact,
		QRImage: base64.StdEncoding.EncodeToString(buf.Bytes()),
	}

	if s.redis != nil {
		key := fmt.Sprintf("contact_qr:%d:%d", userID, serviceID)
		if data, err := json.Marshal(result); err == nil {
			s.redis.Set(ctx, key, data, s.cfg.ContactQRTTL)
		}
	}

	return result, nil
}

func vCard(c *models.ArtistContact) string {
	return fmt.Sprintf(
		"BEGIN:VCARD\r\nVERSION:3.0\r\nFN:%s\r\nORG:%s\r\nTEL:%s\r\nEMAIL:%s\r\nEND:VCARD\r\n",
		c.StudioName, c.StudioName, c.PhoneNumber, c.Email)
}
