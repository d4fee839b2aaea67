package catalog

import (
	"context"
	"fmt"

	"github.com/stampdesk/stampdesk/internal/shared"
)

// Service coordinates catalog operations.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new product. The code must be unique; the comparison is
// case-sensitive (codes are human-assigned SKUs, "c20" and "C20" differ).
func (s *Service) Create(ctx context.Context, req CreateProductRequest) (Product, error) {
	product := Product{
		Code:         req.Code,
		Name:         req.Name,
		Category:     req.Category,
		Unit:         req.Unit,
		CurrentPrice: req.CurrentPrice,
		MinStock:     req.MinStock,
	}
	return s.repo.Create(ctx, product)
}

// Update changes commercial fields of an active product.
func (s *Service) Update(ctx context.Context, id int64, req UpdateProductRequest) (Product, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if !product.IsActive {
		return Product{}, fmt.Errorf("%w: product %s is inactive", shared.ErrInvalidState, product.Code)
	}
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.CurrentPrice != nil {
		product.CurrentPrice = *req.CurrentPrice
	}
	if req.MinStock != nil {
		product.MinStock = *req.MinStock
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return Product{}, err
	}
	return s.repo.Get(ctx, id)
}

// Remove soft-deletes a product. Historical movements and orders keep
// referencing it, so rows are never physically removed.
func (s *Service) Remove(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}

// Get loads a product by id.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

// GetByCode loads a product by its SKU code.
func (s *Service) GetByCode(ctx context.Context, code string) (Product, error) {
	return s.repo.GetByCode(ctx, code)
}

// List returns a filtered, paginated catalog slice.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, shared.Pagination, error) {
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return products, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// LowStock returns active products at or below their reorder threshold.
func (s *Service) LowStock(ctx context.Context) ([]Product, error) {
	return s.repo.LowStock(ctx)
}
