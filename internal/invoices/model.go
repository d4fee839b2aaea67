package invoices

import "time"

// VATRate is the fixed invoice VAT percentage, recomputed independently of
// whatever rate the order was sold with.
const VATRate = 10.0

// Item is one invoiced line, copied from the order at generation time.
type Item struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

// Invoice is a derived document, one per order.
type Invoice struct {
	ID            int64      `json:"id"`
	InvoiceNumber string     `json:"invoice_number"`
	OrderID       int64      `json:"order_id"`
	OrderNumber   string     `json:"order_number"`
	CustomerName  string     `json:"customer_name"`
	AgentName     string     `json:"agent_name,omitempty"`
	Items         []Item     `json:"items"`
	Subtotal      float64    `json:"subtotal"`
	VATAmount     float64    `json:"vat_amount"`
	ShippingFee   float64    `json:"shipping_fee"`
	TotalAmount   float64    `json:"total_amount"`
	IsPrinted     bool       `json:"is_printed"`
	PrintedAt     *time.Time `json:"printed_at,omitempty"`
	PrintedBy     string     `json:"printed_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
