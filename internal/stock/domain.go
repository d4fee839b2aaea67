package stock

import (
	"time"

	"github.com/stampdesk/stampdesk/internal/shared"
)

// MovementType enumerates ledger movement kinds.
type MovementType string

const (
	// MovementImport is an inbound movement. Stock returns reuse this
	// type with a fixed reason.
	MovementImport MovementType = "import"
	// MovementExport is an outbound movement driven by an order.
	MovementExport MovementType = "export"
	// MovementAdjustment is a manual correction, signed either way.
	MovementAdjustment MovementType = "adjustment"
)

// ReturnReason marks compensating imports caused by order cancellation or
// quantity reduction. Kept as a convention instead of a fourth movement type.
const ReturnReason = "return due to cancellation"

// Movement is an immutable ledger entry. Product code and name are frozen at
// write time so the trail survives later product renames. Rows are appended
// once and never mutated or deleted.
type Movement struct {
	ID          int64        `json:"id"`
	Ref         string       `json:"ref"`
	ProductID   int64        `json:"product_id"`
	ProductCode string       `json:"product_code"`
	ProductName string       `json:"product_name"`
	Type        MovementType `json:"type"`
	Quantity    int64        `json:"quantity"`
	UnitPrice   float64      `json:"unit_price"`
	TotalValue  float64      `json:"total_value"`
	StockBefore int64        `json:"stock_before"`
	StockAfter  int64        `json:"stock_after"`
	OrderID     *int64       `json:"order_id,omitempty"`
	Reason      string       `json:"reason,omitempty"`
	ActorID     int64        `json:"actor_id"`
	ActorName   string       `json:"actor_name"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ImportInput receives goods against a product code.
type ImportInput struct {
	ProductCode string
	Quantity    int64
	UnitPrice   float64
	Reason      string
	Actor       shared.Actor
}

// ExportInput issues stock for an order line. When UnitPrice is nil the
// movement is valued at the product's current average import price.
type ExportInput struct {
	ProductID int64
	Quantity  int64
	OrderID   int64
	UnitPrice *float64
	Actor     shared.Actor
}

// ReturnInput puts order stock back after cancellation or a quantity cut.
type ReturnInput struct {
	ProductID int64
	Quantity  int64
	OrderID   int64
	Actor     shared.Actor
}

// AdjustInput applies a signed manual correction against a product code.
type AdjustInput struct {
	ProductCode string
	Quantity    int64
	Reason      string
	Actor       shared.Actor
}

// ReportFilter narrows ledger reports. Text matches product code, product
// name, reason and actor name.
type ReportFilter struct {
	Type      MovementType
	ProductID int64
	From      time.Time
	To        time.Time
	Text      string
	Page      int
	PerPage   int
}

// Summary aggregates the current inventory position.
type Summary struct {
	LowStockCount   int     `json:"low_stock_count"`
	TotalStockValue float64 `json:"total_stock_value"`
}
