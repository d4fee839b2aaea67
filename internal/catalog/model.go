package catalog

import "time"

// Product is a catalog entry. StockQuantity and AvgImportPrice belong to the
// stock ledger: nothing outside internal/stock may write them.
type Product struct {
	ID             int64     `json:"id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Unit           string    `json:"unit"`
	CurrentPrice   float64   `json:"current_price"`
	AvgImportPrice float64   `json:"avg_import_price"`
	StockQuantity  int64     `json:"stock_quantity"`
	MinStock       int64     `json:"min_stock"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
