package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock status labels.
const (
	StockStatusOut = "Out of Stock"
	StockStatusLow = "Low Stock"
	StockStatusIn  = "In Stock"

	// LowStockThreshold is the highest stock level still reported as low.
	LowStockThreshold = 5
)

// Product is a catalog item that always belongs to exactly one Category.
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"size:200;not null;index:product_name_price_idx,priority:1"`
	Description string          `json:"description" gorm:"type:text;not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null;index:product_name_price_idx,priority:2"`
	Stock       int             `json:"stock" gorm:"not null;default:0"`
	CategoryID  uint            `json:"category_id" gorm:"not null;index:product_category_idx"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Category Category `json:"category" gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// StockStatus derives the availability label from the stock level.
func StockStatus(stock int) string {
	switch {
	case stock <= 0:
		return StockStatusOut
	case stock <= LowStockThreshold:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

// StockStatus returns the availability label of p.
func (p *Product) StockStatus() string {
	return StockStatus(p.Stock)
}
