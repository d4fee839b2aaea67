package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stampdesk/stampdesk/internal/catalog"
	"github.com/stampdesk/stampdesk/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	// InTx runs fn inside a transaction; nested calls join the ambient one.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	// GetProductForUpdate locks the product row for the transaction.
	GetProductForUpdate(ctx context.Context, id int64) (catalog.Product, error)
	// GetProductByCodeForUpdate locks the product row addressed by SKU code.
	GetProductByCodeForUpdate(ctx context.Context, code string) (catalog.Product, error)
	// UpdateProductStock writes the new quantity and average import price.
	UpdateProductStock(ctx context.Context, productID, quantity int64, avgImportPrice float64) error
	// InsertMovement appends a ledger row.
	InsertMovement(ctx context.Context, movement Movement) (Movement, error)

	Report(ctx context.Context, filter ReportFilter) ([]Movement, int, error)
	History(ctx context.Context, productID int64) ([]Movement, error)
	Summary(ctx context.Context) (Summary, error)
}

// Service owns every mutation of product stock. Each movement locks the
// product row, re-checks sufficiency against the locked value, then writes
// the product update and the ledger row in one transaction, so concurrent
// exports cannot drive stock negative and callers never observe a partial
// movement.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Import receives goods and recomputes the weighted-average import price:
// (S0*A0 + Q*P) / (S0+Q), or exactly P when the prior stock is zero.
func (s *Service) Import(ctx context.Context, input ImportInput) (Movement, error) {
	if input.Quantity <= 0 {
		return Movement{}, fmt.Errorf("%w: import quantity must be positive", shared.ErrValidation)
	}
	if input.UnitPrice < 0 {
		return Movement{}, fmt.Errorf("%w: unit price must be >= 0", shared.ErrValidation)
	}
	return s.apply(ctx, movementParams{
		productCode:   input.ProductCode,
		movementType:  MovementImport,
		quantity:      input.Quantity,
		unitPrice:     input.UnitPrice,
		recomputeAvg:  true,
		requireActive: true,
		reason:        input.Reason,
		actor:         input.Actor,
	})
}

// Export issues stock for an order line. Used exclusively by the order
// lifecycle; fails when stock is insufficient.
func (s *Service) Export(ctx context.Context, input ExportInput) (Movement, error) {
	if input.Quantity <= 0 {
		return Movement{}, fmt.Errorf("%w: export quantity must be positive", shared.ErrValidation)
	}
	return s.apply(ctx, movementParams{
		productID:     input.ProductID,
		movementType:  MovementExport,
		quantity:      -input.Quantity,
		unitPriceOpt:  input.UnitPrice,
		requireActive: true,
		orderID:       input.OrderID,
		actor:         input.Actor,
	})
}

// Return puts order stock back. Recorded as an import with a fixed reason;
// the average import price is left untouched and the movement is valued at
// the current average cost.
func (s *Service) Return(ctx context.Context, input ReturnInput) (Movement, error) {
	if input.Quantity <= 0 {
		return Movement{}, fmt.Errorf("%w: return quantity must be positive", shared.ErrValidation)
	}
	return s.apply(ctx, movementParams{
		productID:    input.ProductID,
		movementType: MovementImport,
		quantity:     input.Quantity,
		reason:       ReturnReason,
		orderID:      input.OrderID,
		actor:        input.Actor,
	})
}

// Adjust applies a signed manual correction. A decrease that would drive
// stock negative is rejected.
func (s *Service) Adjust(ctx context.Context, input AdjustInput) (Movement, error) {
	if input.Quantity == 0 {
		return Movement{}, fmt.Errorf("%w: adjustment quantity must be non-zero", shared.ErrValidation)
	}
	if input.Reason == "" {
		return Movement{}, fmt.Errorf("%w: adjustment reason required", shared.ErrValidation)
	}
	return s.apply(ctx, movementParams{
		productCode:   input.ProductCode,
		movementType:  MovementAdjustment,
		quantity:      input.Quantity,
		requireActive: true,
		reason:        input.Reason,
		actor:         input.Actor,
	})
}

// Report lists ledger rows matching the filter, newest first.
func (s *Service) Report(ctx context.Context, filter ReportFilter) ([]Movement, shared.Pagination, error) {
	movements, total, err := s.repo.Report(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return movements, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// History lists every movement of one product, oldest first.
func (s *Service) History(ctx context.Context, productID int64) ([]Movement, error) {
	return s.repo.History(ctx, productID)
}

// Summary reports the low-stock count and the total inventory value
// (Σ stockQuantity × avgImportPrice over active products).
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	return s.repo.Summary(ctx)
}

type movementParams struct {
	productID     int64
	productCode   string
	movementType  MovementType
	quantity      int64 // signed
	unitPrice     float64
	unitPriceOpt  *float64
	recomputeAvg  bool
	requireActive bool
	orderID       int64
	reason        string
	actor         shared.Actor
}

func (s *Service) apply(ctx context.Context, params movementParams) (Movement, error) {
	var movement Movement
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		var product catalog.Product
		var err error
		if params.productCode != "" {
			product, err = s.repo.GetProductByCodeForUpdate(ctx, params.productCode)
		} else {
			product, err = s.repo.GetProductForUpdate(ctx, params.productID)
		}
		if err != nil {
			return err
		}
		if params.requireActive && !product.IsActive {
			return fmt.Errorf("%w: product %s is inactive", shared.ErrNotFound, product.Code)
		}

		stockBefore := product.StockQuantity
		stockAfter := stockBefore + params.quantity
		if stockAfter < 0 {
			return fmt.Errorf("%w: product %s has %d, requested %d",
				shared.ErrInsufficientStock, product.Code, stockBefore, -params.quantity)
		}

		unitPrice := params.unitPrice
		if params.unitPriceOpt != nil {
			unitPrice = *params.unitPriceOpt
		} else if !params.recomputeAvg && params.unitPrice == 0 {
			// Exports without an explicit price and returns are valued at
			// the current average cost basis.
			unitPrice = product.AvgImportPrice
		}

		avgPrice := product.AvgImportPrice
		if params.recomputeAvg {
			if stockBefore == 0 {
				avgPrice = unitPrice
			} else {
				avgPrice = (float64(stockBefore)*product.AvgImportPrice + float64(params.quantity)*unitPrice) / float64(stockAfter)
			}
		}

		if err := s.repo.UpdateProductStock(ctx, product.ID, stockAfter, avgPrice); err != nil {
			return err
		}

		record := Movement{
			Ref:         uuid.NewString(),
			ProductID:   product.ID,
			ProductCode: product.Code,
			ProductName: product.Name,
			Type:        params.movementType,
			Quantity:    params.quantity,
			UnitPrice:   unitPrice,
			TotalValue:  float64(abs(params.quantity)) * unitPrice,
			StockBefore: stockBefore,
			StockAfter:  stockAfter,
			Reason:      params.reason,
			ActorID:     params.actor.ID,
			ActorName:   params.actor.Name,
		}
		if params.orderID != 0 {
			record.OrderID = &params.orderID
		}
		movement, err = s.repo.InsertMovement(ctx, record)
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	return movement, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
