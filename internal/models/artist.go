package models

import "time"

// Artist is the vendor side of the marketplace. BalanceCents is a
// materialized counter over artist_transactions; MaxChargeCents caches the
// highest price among the artist's currently live services and is recomputed
// whenever the live set changes.
type Artist struct {
	ID             int       `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	StudioName     string    `json:"studioName" db:"studio_name"`
	PhoneNumber    string    `json:"phoneNumber,omitempty" db:"phone_number"`
	Category       string    `json:"category" db:"category"`
	BalanceCents   int64     `json:"balanceCents" db:"balance_cents"`
	MaxChargeCents int64     `json:"maxChargeCents" db:"max_charge_cents"`
	IsVerified     bool      `json:"isVerified" db:"is_verified"`
	IsBlocked      bool      `json:"isBlocked" db:"is_blocked"`
	Version        int       `json:"-" db:"version"` // optimistic locking
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// ArtistProfile is the public view of an artist. Contact fields are only
// revealed through the unlock flow.
type ArtistProfile struct {
	ID         int    `json:"id"`
	StudioName string `json:"studioName"`
	Category   string `json:"category"`
	IsVerified bool   `json:"isVerified"`
}

// ArtistContact is the payload an unlock pays for.
type ArtistContact struct {
	ArtistID    int    `json:"artistId"`
	StudioName  string `json:"studioName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}
