package model

import "github.com/shopspring/decimal"

// Stock level labels shown next to each product.
const (
	LowStockThreshold = 5
	StockLevelLow     = "Low Stock"
	StockLevelOK      = "Available"
)

// Product is a catalog item. Quantity is the only stock figure and never goes below zero.
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Category    string          `gorm:"type:varchar(100);not null;index" json:"category"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity    int             `gorm:"not null;default:0;check:chk_products_quantity,quantity >= 0" json:"quantity"`
	Audit
}

// StockLevel reports whether the product is running low.
func (p *Product) StockLevel() string {
	if p.Quantity < LowStockThreshold {
		return StockLevelLow
	}
	return StockLevelOK
}
