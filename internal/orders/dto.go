package orders

import "time"

// ItemRequest is one requested order line. A nil UnitPrice sells at the
// product's current price.
type ItemRequest struct {
	ProductID int64    `json:"product_id" validate:"required,gt=0"`
	Quantity  int64    `json:"quantity" validate:"required,gt=0"`
	UnitPrice *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
}

// CreateOrderRequest creates an order. CustomerID wins over CustomerName;
// with neither, the walk-in default customer is used.
type CreateOrderRequest struct {
	CustomerID    *int64        `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	CustomerName  string        `json:"customer_name,omitempty" validate:"max=200"`
	AgentID       *int64        `json:"agent_id,omitempty" validate:"omitempty,gt=0"`
	Items         []ItemRequest `json:"items" validate:"required,min=1,dive"`
	VATRate       float64       `json:"vat_rate" validate:"gte=0,lte=100"`
	ShippingFee   float64       `json:"shipping_fee" validate:"gte=0"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty" validate:"omitempty,oneof=pending completed debt"`
	Notes         string        `json:"notes,omitempty" validate:"max=1000"`
}

// UpdateOrderRequest changes an active order. Nil fields fall back to the
// stored values; a nil Items slice leaves the lines untouched.
type UpdateOrderRequest struct {
	Items         *[]ItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
	VATRate       *float64       `json:"vat_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	ShippingFee   *float64       `json:"shipping_fee,omitempty" validate:"omitempty,gte=0"`
	PaymentStatus *PaymentStatus `json:"payment_status,omitempty" validate:"omitempty,oneof=pending completed debt"`
	Notes         *string        `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ListFilter narrows order listings.
type ListFilter struct {
	Status        Status
	PaymentStatus PaymentStatus
	CustomerID    int64
	From          time.Time
	To            time.Time
	Search        string
	Page          int
	PerPage       int
}
