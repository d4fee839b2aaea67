package catalog

// CreateProductRequest creates a catalog entry. Stock starts at zero and is
// only moved through the stock ledger.
type CreateProductRequest struct {
	Code         string  `json:"code" validate:"required,max=50"`
	Name         string  `json:"name" validate:"required,max=200"`
	Category     string  `json:"category" validate:"max=100"`
	Unit         string  `json:"unit" validate:"max=20"`
	CurrentPrice float64 `json:"current_price" validate:"gte=0"`
	MinStock     int64   `json:"min_stock" validate:"gte=0"`
}

// UpdateProductRequest updates commercial fields. Nil fields are left as is.
type UpdateProductRequest struct {
	Name         *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Category     *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	Unit         *string  `json:"unit,omitempty" validate:"omitempty,max=20"`
	CurrentPrice *float64 `json:"current_price,omitempty" validate:"omitempty,gte=0"`
	MinStock     *int64   `json:"min_stock,omitempty" validate:"omitempty,gte=0"`
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Search   string
	Category string
	IsActive *bool
	Page     int
	PerPage  int
}
