package models

import "time"

// Service is a bookable listing owned by exactly one artist. IsLive gates
// visibility to end users: flipping it on requires a verified artist with
// enough wallet balance, and the reconciler flips it off when the balance
// drops below the deactivation threshold for its price.
type Service struct {
	ID          int       `json:"id" db:"id"`
	ArtistID    int       `json:"artistId" db:"artist_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	PriceCents  int64     `json:"priceCents" db:"price_cents"`
	IsLive      bool      `json:"isLive" db:"is_live"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// ServiceSummary is the trimmed shape joined onto unlock listings.
type ServiceSummary struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	ArtistID   int    `json:"artistId"`
	StudioName string `json:"studioName"`
}
