package orders

import (
	"context"
	"fmt"

	"github.com/stampdesk/stampdesk/internal/catalog"
	"github.com/stampdesk/stampdesk/internal/partners"
	"github.com/stampdesk/stampdesk/internal/shared"
	"github.com/stampdesk/stampdesk/internal/stock"
)

// orderNumberCounter names the counters-table row for order numbers.
const orderNumberCounter = "order_number"

// CatalogPort is the read surface the lifecycle needs from the catalog.
type CatalogPort interface {
	Get(ctx context.Context, id int64) (catalog.Product, error)
}

// StockPort drives ledger movements. Calls made inside RepositoryPort.InTx
// join that transaction, so an order and all its movements commit together.
type StockPort interface {
	Export(ctx context.Context, input stock.ExportInput) (stock.Movement, error)
	Return(ctx context.Context, input stock.ReturnInput) (stock.Movement, error)
}

// PartnerPort resolves the ordering customer.
type PartnerPort interface {
	ResolveCustomer(ctx context.Context, input partners.ResolveInput) (partners.Customer, error)
}

// SequencePort reserves document numbers.
type SequencePort interface {
	Next(ctx context.Context, name string) (int64, error)
}

// ReportsPort invalidates cached statistics after a mutation. Optional; a
// nil port means no cache is in play.
type ReportsPort interface {
	Invalidate(ctx context.Context) error
}

// RepositoryPort abstracts order persistence.
type RepositoryPort interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, order Order) (Order, error)
	Get(ctx context.Context, id int64) (Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, int, error)
	UpdateHeader(ctx context.Context, order Order) error
	ReplaceItems(ctx context.Context, orderID int64, items []OrderItem) error
	MarkCancelled(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// Service drives the order lifecycle. It is the only caller of stock exports
// and returns; totals follow subtotal + VAT + shipping with VAT = subtotal ×
// rate / 100, never rounded per line.
type Service struct {
	repo     RepositoryPort
	catalog  CatalogPort
	stock    StockPort
	partners PartnerPort
	seq      SequencePort
	reports  ReportsPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, catalogPort CatalogPort, stockPort StockPort, partnerPort PartnerPort, seq SequencePort, reportsPort ReportsPort) *Service {
	return &Service{repo: repo, catalog: catalogPort, stock: stockPort, partners: partnerPort, seq: seq, reports: reportsPort}
}

// invalidateReports bumps the statistics cache after a committed mutation.
// Stale entries also age out with the cache TTL, so a failed bump does not
// fail the mutation.
func (s *Service) invalidateReports(ctx context.Context) {
	if s.reports == nil {
		return
	}
	_ = s.reports.Invalidate(ctx)
}

// Create resolves the customer, snapshots the requested lines, reserves an
// order number and persists the order plus one stock export per line in a
// single transaction. A failed export rolls the whole order back, so a
// successful response always means order, product stock and ledger agree.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest, actor shared.Actor) (Order, error) {
	customer, err := s.partners.ResolveCustomer(ctx, partners.ResolveInput{
		CustomerID:   req.CustomerID,
		CustomerName: req.CustomerName,
		AgentID:      req.AgentID,
	})
	if err != nil {
		return Order{}, fmt.Errorf("resolve customer: %w", err)
	}

	var created Order
	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		items, err := s.buildItems(ctx, req.Items, nil)
		if err != nil {
			return err
		}

		seq, err := s.seq.Next(ctx, orderNumberCounter)
		if err != nil {
			return err
		}

		order := Order{
			OrderNumber:   fmt.Sprintf("DH%06d", seq),
			CustomerID:    customer.ID,
			CustomerName:  customer.Name,
			AgentID:       customer.AgentID,
			AgentName:     customer.AgentName,
			Items:         items,
			VATRate:       req.VATRate,
			ShippingFee:   req.ShippingFee,
			PaymentStatus: req.PaymentStatus,
			Status:        StatusActive,
			Notes:         req.Notes,
			CreatedBy:     actor.ID,
			CreatedByName: actor.Name,
		}
		if order.PaymentStatus == "" {
			order.PaymentStatus = PaymentPending
		}
		order.Subtotal, order.VATAmount, order.TotalAmount = computeTotals(items, order.VATRate, order.ShippingFee)

		created, err = s.repo.Create(ctx, order)
		if err != nil {
			return err
		}

		for _, item := range created.Items {
			price := item.UnitPrice
			if _, err := s.stock.Export(ctx, stock.ExportInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				OrderID:   created.ID,
				UnitPrice: &price,
				Actor:     actor,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	s.invalidateReports(ctx)
	return s.repo.Get(ctx, created.ID)
}

// Update edits an active order. Line changes are reconciled against the
// ledger per product: reduced quantities come back as returns, increases go
// out as exports valued at the new line's unit price, both attributed to the
// synthetic system actor. Totals are recomputed with fallback to the stored
// VAT rate and shipping fee.
func (s *Service) Update(ctx context.Context, id int64, req UpdateOrderRequest) (Order, error) {
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if existing.Status == StatusCancelled {
			return fmt.Errorf("%w: order %s is cancelled", shared.ErrInvalidState, existing.OrderNumber)
		}
		order := existing

		if req.Items != nil {
			// Quantities already exported for this order still count as
			// available to it: only the positive delta must be on the shelf.
			committed := make(map[int64]int64, len(order.Items))
			for _, item := range order.Items {
				committed[item.ProductID] += item.Quantity
			}
			newItems, err := s.buildItems(ctx, *req.Items, committed)
			if err != nil {
				return err
			}
			if err := s.reconcileStock(ctx, order.ID, order.Items, newItems); err != nil {
				return err
			}
			if err := s.repo.ReplaceItems(ctx, order.ID, newItems); err != nil {
				return err
			}
			order.Items = newItems
		}
		if req.VATRate != nil {
			order.VATRate = *req.VATRate
		}
		if req.ShippingFee != nil {
			order.ShippingFee = *req.ShippingFee
		}
		if req.PaymentStatus != nil {
			order.PaymentStatus = *req.PaymentStatus
		}
		if req.Notes != nil {
			order.Notes = *req.Notes
		}
		order.Subtotal, order.VATAmount, order.TotalAmount = computeTotals(order.Items, order.VATRate, order.ShippingFee)

		return s.repo.UpdateHeader(ctx, order)
	})
	if err != nil {
		return Order{}, err
	}
	s.invalidateReports(ctx)
	return s.repo.Get(ctx, id)
}

// Cancel returns every line's full quantity to stock and flags the order
// cancelled. Cancelled orders are immutable; a second cancel fails. The
// status flip is a conditional update claimed inside the transaction, so two
// concurrent cancels cannot both return stock.
func (s *Service) Cancel(ctx context.Context, id int64, actor shared.Actor) (Order, error) {
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.MarkCancelled(ctx, id); err != nil {
			return err
		}
		existing, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		for _, item := range existing.Items {
			if _, err := s.stock.Return(ctx, stock.ReturnInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				OrderID:   existing.ID,
				Actor:     actor,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	s.invalidateReports(ctx)
	return s.repo.Get(ctx, id)
}

// Delete permanently removes an order. An active order first returns its
// stock; a cancelled one already did at cancel time, so stock is untouched.
func (s *Service) Delete(ctx context.Context, id int64, actor shared.Actor) error {
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if existing.Status == StatusActive {
			for _, item := range existing.Items {
				if _, err := s.stock.Return(ctx, stock.ReturnInput{
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
					OrderID:   existing.ID,
					Actor:     actor,
				}); err != nil {
					return err
				}
			}
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.invalidateReports(ctx)
	return nil
}

// Get loads one order with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered, paginated order listing.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, shared.Pagination, error) {
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return orders, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// buildItems snapshots requested lines against active products. Stock
// sufficiency is checked here for a precise error message; the stock service
// re-checks under the row lock before committing. committed carries the
// quantities this order has already exported, so on an update only the
// amount beyond it must still be on the shelf.
func (s *Service) buildItems(ctx context.Context, reqs []ItemRequest, committed map[int64]int64) ([]OrderItem, error) {
	items := make([]OrderItem, 0, len(reqs))
	seen := make(map[int64]bool, len(reqs))
	for _, req := range reqs {
		if seen[req.ProductID] {
			return nil, fmt.Errorf("%w: product %d listed twice", shared.ErrValidation, req.ProductID)
		}
		seen[req.ProductID] = true
		product, err := s.catalog.Get(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, fmt.Errorf("%w: product %s is inactive", shared.ErrNotFound, product.Code)
		}
		if needed := req.Quantity - committed[req.ProductID]; needed > 0 && product.StockQuantity < needed {
			return nil, fmt.Errorf("%w: product %s has %d, requested %d",
				shared.ErrInsufficientStock, product.Code, product.StockQuantity, needed)
		}
		unitPrice := product.CurrentPrice
		if req.UnitPrice != nil {
			unitPrice = *req.UnitPrice
		}
		items = append(items, OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    req.Quantity,
			UnitPrice:   unitPrice,
			TotalPrice:  float64(req.Quantity) * unitPrice,
		})
	}
	return items, nil
}

// reconcileStock diffs old vs new quantities per product. A product missing
// from the new set counts as fully returned; a new product is a fresh export.
func (s *Service) reconcileStock(ctx context.Context, orderID int64, oldItems, newItems []OrderItem) error {
	oldQty := make(map[int64]int64, len(oldItems))
	for _, item := range oldItems {
		oldQty[item.ProductID] += item.Quantity
	}

	seen := make(map[int64]bool, len(newItems))
	for _, item := range newItems {
		seen[item.ProductID] = true
		delta := item.Quantity - oldQty[item.ProductID]
		switch {
		case delta > 0:
			price := item.UnitPrice
			if _, err := s.stock.Export(ctx, stock.ExportInput{
				ProductID: item.ProductID,
				Quantity:  delta,
				OrderID:   orderID,
				UnitPrice: &price,
				Actor:     shared.SystemActor,
			}); err != nil {
				return err
			}
		case delta < 0:
			if _, err := s.stock.Return(ctx, stock.ReturnInput{
				ProductID: item.ProductID,
				Quantity:  -delta,
				OrderID:   orderID,
				Actor:     shared.SystemActor,
			}); err != nil {
				return err
			}
		}
	}

	for productID, qty := range oldQty {
		if seen[productID] {
			continue
		}
		if _, err := s.stock.Return(ctx, stock.ReturnInput{
			ProductID: productID,
			Quantity:  qty,
			OrderID:   orderID,
			Actor:     shared.SystemActor,
		}); err != nil {
			return err
		}
	}
	return nil
}

func computeTotals(items []OrderItem, vatRate, shippingFee float64) (subtotal, vatAmount, total float64) {
	for _, item := range items {
		subtotal += item.TotalPrice
	}
	vatAmount = subtotal * vatRate / 100
	total = subtotal + vatAmount + shippingFee
	return subtotal, vatAmount, total
}
