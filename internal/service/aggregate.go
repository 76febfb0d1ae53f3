package service

import (
	"sort"
	"time"

	"cafe-inventory/internal/model"

	"github.com/shopspring/decimal"
)

// RestockTarget is the nominal stock level the sold estimate is measured against.
const RestockTarget = 20

// ProductSummary is one dashboard row.
type ProductSummary struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	StockLevel   string          `json:"stock_level"`
	SoldEstimate int             `json:"sold_estimate"`
	Sold         bool            `json:"sold"`
	UnitsSold    int             `json:"units_sold"`
}

type Dashboard struct {
	TotalStockValue     decimal.Decimal          `json:"total_stock_value"`
	TotalAvailableUnits int                      `json:"total_available_units"`
	TotalProducts       int                      `json:"total_products"`
	LowStockCount       int                      `json:"low_stock_count"`
	Products            []ProductSummary         `json:"products"`
	Transactions        []model.StockTransaction `json:"transactions"`
	GeneratedAt         time.Time                `json:"generated_at"`
}

// StockMovementData is one day of the stock movement chart
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// TotalStockValue sums price * quantity over all products, rounded to cents.
func TotalStockValue(products []model.Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}
	return total.Round(2)
}

func TotalAvailableUnits(products []model.Product) int {
	total := 0
	for _, p := range products {
		total += p.Quantity
	}
	return total
}

func StockLevel(p model.Product) string {
	return p.StockLevel()
}

// SoldEstimate approximates units sold as the shortfall from RestockTarget.
// UnitsSold is the ledger-backed figure.
func SoldEstimate(p model.Product) int {
	if p.Quantity >= RestockTarget {
		return 0
	}
	return RestockTarget - p.Quantity
}

// UnitsSold totals deducted units per product id.
func UnitsSold(transactions []model.StockTransaction) map[uint]int {
	sold := make(map[uint]int)
	for _, t := range transactions {
		if t.Action == model.ActionDeduct {
			sold[t.ProductID] += t.QuantityChanged
		}
	}
	return sold
}

func LowStockProducts(products []model.Product) []model.Product {
	var low []model.Product
	for _, p := range products {
		if p.Quantity < model.LowStockThreshold {
			low = append(low, p)
		}
	}
	return low
}

func LowStockCount(products []model.Product) int {
	return len(LowStockProducts(products))
}

// StockMovement buckets ledger entries at or after since into UTC days, oldest first.
func StockMovement(transactions []model.StockTransaction, since time.Time) []StockMovementData {
	byDate := make(map[string]*StockMovementData)
	for _, t := range transactions {
		if t.Timestamp.Before(since) {
			continue
		}

		date := t.Timestamp.UTC().Format(time.DateOnly)
		day, ok := byDate[date]
		if !ok {
			day = &StockMovementData{Date: date}
			byDate[date] = day
		}

		switch t.Action {
		case model.ActionAdd:
			day.Inbound += t.QuantityChanged
		case model.ActionDeduct:
			day.Outbound += t.QuantityChanged
		}
	}

	results := make([]StockMovementData, 0, len(byDate))
	for _, day := range byDate {
		results = append(results, *day)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Date < results[j].Date })
	return results
}

// BuildDashboard folds a catalog snapshot and the ledger into dashboard figures.
func BuildDashboard(products []model.Product, transactions []model.StockTransaction, now time.Time) *Dashboard {
	sold := UnitsSold(transactions)

	rows := make([]ProductSummary, len(products))
	for i, p := range products {
		estimate := SoldEstimate(p)
		rows[i] = ProductSummary{
			ID:           p.ID,
			Name:         p.Name,
			Category:     p.Category,
			Quantity:     p.Quantity,
			Price:        p.Price,
			StockLevel:   StockLevel(p),
			SoldEstimate: estimate,
			Sold:         estimate > 0,
			UnitsSold:    sold[p.ID],
		}
	}

	if transactions == nil {
		transactions = []model.StockTransaction{}
	}

	return &Dashboard{
		TotalStockValue:     TotalStockValue(products),
		TotalAvailableUnits: TotalAvailableUnits(products),
		TotalProducts:       len(products),
		LowStockCount:       LowStockCount(products),
		Products:            rows,
		Transactions:        transactions,
		GeneratedAt:         now,
	}
}
