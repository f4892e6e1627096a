package model

import "time"

// Category groups products. Name is unique.
type Category struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:100;not null;uniqueIndex:category_name_idx"`
	Description string    `json:"description" gorm:"type:text;not null;default:''"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`

	// ProductCount is filled by queries that select it; it is never persisted.
	ProductCount int64 `json:"product_count" gorm:"->;-:migration"`
}
