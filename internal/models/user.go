package models

import "time"

type User struct {
	ID          int       `json:"id" example:"1"`                      // User ID
	Email       string    `json:"email" example:"user@example.com"`    // User email
	FirstName   string    `json:"firstName" example:"Priya"`           // User first name
	LastName    string    `json:"lastName" example:"Sharma"`           // User last name
	PhoneNumber string    `json:"phoneNumber" example:"+919812345678"` // User phone number
	Role        string    `json:"role" example:"user"`                 // user, artist or admin
	SyncCoins   int       `json:"syncCoins" example:"5"`               // Unlock credit balance
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
