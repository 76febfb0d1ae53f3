package model

import "time"

type StockAction string

const (
	ActionAdd    StockAction = "add"
	ActionDeduct StockAction = "deduct"
)

// Valid reports whether a is a known action.
func (a StockAction) Valid() bool {
	return a == ActionAdd || a == ActionDeduct
}

// StockTransaction is one immutable ledger entry. ProductID is a weak reference:
// there is no foreign key, so entries outlive the product they describe.
type StockTransaction struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	ProductID       uint        `gorm:"not null;index" json:"product_id"`
	ProductName     string      `gorm:"type:varchar(255);not null" json:"product_name"` // Snapshot at the time of the change
	QuantityChanged int         `gorm:"not null;check:chk_stock_transactions_quantity_changed,quantity_changed > 0" json:"quantity_changed"`
	Action          StockAction `gorm:"type:varchar(10);not null" json:"action"`
	StockBefore     int         `gorm:"not null" json:"stock_before"`
	StockAfter      int         `gorm:"not null" json:"stock_after"`
	CreatedBy       string      `gorm:"type:varchar(255)" json:"created_by"`
	Timestamp       time.Time   `gorm:"not null;index" json:"timestamp"`
}

// NewStockTransaction derives the ledger entry for a quantity change from before to after.
// It returns nil when the quantity did not change.
func NewStockTransaction(p *Product, before, after int, actor string, at time.Time) *StockTransaction {
	if before == after {
		return nil
	}

	entry := &StockTransaction{
		ProductID:   p.ID,
		ProductName: p.Name,
		Action:      ActionAdd,
		StockBefore: before,
		StockAfter:  after,
		CreatedBy:   actor,
		Timestamp:   at,
	}
	if after > before {
		entry.QuantityChanged = after - before
	} else {
		entry.Action = ActionDeduct
		entry.QuantityChanged = before - after
	}
	return entry
}
