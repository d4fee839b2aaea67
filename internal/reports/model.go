package reports

import "time"

// Overview summarises active orders in a period. Cancelled orders never
// count.
type Overview struct {
	OrderCount       int64   `json:"order_count"`
	Revenue          float64 `json:"revenue"`
	Debt             float64 `json:"debt"`
	CompletedRevenue float64 `json:"completed_revenue"`
	EstimatedProfit  float64 `json:"estimated_profit"`
}

// PeriodComparison holds the current window, the previous window and the
// percentage changes between them.
type PeriodComparison struct {
	CurrentFrom   time.Time `json:"current_from"`
	CurrentTo     time.Time `json:"current_to"`
	PreviousFrom  time.Time `json:"previous_from"`
	PreviousTo    time.Time `json:"previous_to"`
	Current       Overview  `json:"current"`
	Previous      Overview  `json:"previous"`
	OrderChange   float64   `json:"order_change_pct"`
	RevenueChange float64   `json:"revenue_change_pct"`
}

// TopEntry is one ranked row. ID is the grouped entity; Quantity is only
// populated for product rankings.
type TopEntry struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Revenue  float64 `json:"revenue"`
	Orders   int64   `json:"orders"`
	Quantity int64   `json:"quantity,omitempty"`
}
