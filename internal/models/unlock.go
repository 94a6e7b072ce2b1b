package models

import "time"

// Unlock records that a user has permanently paid for access to the contact
// details behind a service. At most one row may ever exist per
// (user, service) pair; the unlocks table enforces it with a unique
// constraint.
type Unlock struct {
	ID        string    `json:"id" db:"id"`
	UserID    int       `json:"userId" db:"user_id"`
	ServiceID int       `json:"serviceId" db:"service_id"`
	ArtistID  int       `json:"artistId" db:"artist_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// UnlockedService is an unlock joined with its service summary, returned by
// the per-user unlock listing.
type UnlockedService struct {
	Unlock  Unlock         `json:"unlock"`
	Service ServiceSummary `json:"service"`
}
