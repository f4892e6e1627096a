package model

import "time"

// User represents an authenticated user in the system.
type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"size:150;not null;uniqueIndex"`
	Email        string     `json:"email" gorm:"size:254;not null;uniqueIndex"` // stored lower-cased
	PasswordHash string     `json:"-" gorm:"size:255;not null"`                 // Never expose in JSON
	FirstName    string     `json:"first_name" gorm:"size:150;not null;default:''"`
	LastName     string     `json:"last_name" gorm:"size:150;not null;default:''"`
	IsActive     bool       `json:"-" gorm:"not null;default:true"`
	DateJoined   time.Time  `json:"date_joined" gorm:"not null"`
	LastLogin    *time.Time `json:"last_login"`
	UpdatedAt    time.Time  `json:"-"`
}
