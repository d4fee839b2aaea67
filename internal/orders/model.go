package orders

import "time"

// Status is the order lifecycle state. Cancellation is a flag, not a
// deletion; there is no way back from cancelled.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus tracks settlement. "debt" means delivered but unpaid,
// distinct from "pending" (not yet due).
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentDebt      PaymentStatus = "debt"
)

// OrderItem is a write-time snapshot of a product line. Name and price are
// frozen at order creation so later product edits never alter history.
type OrderItem struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"order_id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

// Order is a customer order. Customer/agent/creator names are denormalized
// display snapshots.
type Order struct {
	ID            int64         `json:"id"`
	OrderNumber   string        `json:"order_number"`
	CustomerID    int64         `json:"customer_id"`
	CustomerName  string        `json:"customer_name"`
	AgentID       *int64        `json:"agent_id,omitempty"`
	AgentName     string        `json:"agent_name,omitempty"`
	Items         []OrderItem   `json:"items"`
	Subtotal      float64       `json:"subtotal"`
	VATRate       float64       `json:"vat_rate"`
	VATAmount     float64       `json:"vat_amount"`
	ShippingFee   float64       `json:"shipping_fee"`
	TotalAmount   float64       `json:"total_amount"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Status        Status        `json:"status"`
	Notes         string        `json:"notes,omitempty"`
	CreatedBy     int64         `json:"created_by"`
	CreatedByName string        `json:"created_by_name"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
