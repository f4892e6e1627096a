package model

import "time"

// RefreshToken tracks an issued refresh token. A token whose RevokedAt is set
// has been rotated or blacklisted and can never be used again.
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey"`
	JTI       string     `gorm:"column:jti;size:36;not null;uniqueIndex"`
	UserID    uint       `gorm:"not null;index"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	RevokedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
}

// RevokedAccessToken marks an access token as unusable until it expires.
type RevokedAccessToken struct {
	JTI       string    `gorm:"column:jti;primaryKey;size:36"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

// All lists every model for migrations, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Category{},
		&Product{},
		&User{},
		&RefreshToken{},
		&RevokedAccessToken{},
	}
}
