// Package models contains data structures for the application's domain models.
package models

import "time"

// User mirrors an identity issued by the external identity provider.
// Only the fields needed for authorship and admin checks are stored.
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username  string    `gorm:"size:150;not null" json:"username"`
	IsAdmin   bool      `gorm:"not null" json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Capabilities are resolved once per request and passed explicitly to
// services that make visibility or permission decisions.
type Capabilities struct {
	IsAdmin bool
}
