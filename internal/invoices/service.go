package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/stampdesk/stampdesk/internal/orders"
	"github.com/stampdesk/stampdesk/internal/shared"
)

// invoiceNumberCounter names the counters-table row for invoice numbers.
const invoiceNumberCounter = "invoice_number"

// ListFilter narrows invoice listings.
type ListFilter struct {
	IsPrinted *bool
	Search    string
	Page      int
	PerPage   int
}

// OrderPort is the read surface needed from the order lifecycle.
type OrderPort interface {
	Get(ctx context.Context, id int64) (orders.Order, error)
}

// SequencePort reserves document numbers.
type SequencePort interface {
	Next(ctx context.Context, name string) (int64, error)
}

// RepositoryPort abstracts invoice persistence.
type RepositoryPort interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, inv Invoice) (Invoice, error)
	Get(ctx context.Context, id int64) (Invoice, error)
	GetByOrder(ctx context.Context, orderID int64) (Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]Invoice, int, error)
	MarkPrinted(ctx context.Context, id int64, printedBy string, printedAt time.Time) error
}

// Service generates invoices from active orders. An invoice freezes the
// order snapshot and recomputes VAT at the fixed rate regardless of the
// order's own rate.
type Service struct {
	repo   RepositoryPort
	orders OrderPort
	seq    SequencePort
	now    func() time.Time
}

// NewService constructs Service.
func NewService(repo RepositoryPort, orderPort OrderPort, seq SequencePort) *Service {
	return &Service{repo: repo, orders: orderPort, seq: seq, now: time.Now}
}

// Generate creates the invoice for an active order. A cancelled order cannot
// be invoiced; a second generation for the same order conflicts.
func (s *Service) Generate(ctx context.Context, orderID int64) (Invoice, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return Invoice{}, err
	}
	if order.Status != orders.StatusActive {
		return Invoice{}, fmt.Errorf("%w: order %s is cancelled", shared.ErrInvalidState, order.OrderNumber)
	}

	var created Invoice
	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		seq, err := s.seq.Next(ctx, invoiceNumberCounter)
		if err != nil {
			return err
		}

		items := make([]Item, 0, len(order.Items))
		subtotal := 0.0
		for _, line := range order.Items {
			items = append(items, Item{
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				TotalPrice:  line.TotalPrice,
			})
			subtotal += line.TotalPrice
		}
		vatAmount := subtotal * VATRate / 100

		created, err = s.repo.Create(ctx, Invoice{
			InvoiceNumber: fmt.Sprintf("HD%06d", seq),
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			CustomerName:  order.CustomerName,
			AgentName:     order.AgentName,
			Items:         items,
			Subtotal:      subtotal,
			VATAmount:     vatAmount,
			ShippingFee:   order.ShippingFee,
			TotalAmount:   subtotal + vatAmount + order.ShippingFee,
		})
		return err
	})
	if err != nil {
		return Invoice{}, err
	}
	return created, nil
}

// MarkPrinted stamps the first print with the acting user. Later calls are
// no-ops so the original print record survives reprints.
func (s *Service) MarkPrinted(ctx context.Context, id int64, actor shared.Actor) (Invoice, error) {
	if err := s.repo.MarkPrinted(ctx, id, actor.Name, s.now().UTC()); err != nil {
		return Invoice{}, err
	}
	return s.repo.Get(ctx, id)
}

// Get returns one invoice.
func (s *Service) Get(ctx context.Context, id int64) (Invoice, error) {
	return s.repo.Get(ctx, id)
}

// GetByOrder returns the invoice for an order.
func (s *Service) GetByOrder(ctx context.Context, orderID int64) (Invoice, error) {
	return s.repo.GetByOrder(ctx, orderID)
}

// List returns a filtered, paginated listing.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Invoice, shared.Pagination, error) {
	out, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// RenderAmounts returns display strings for the money fields, formatted for
// the printed layout.
type RenderAmounts struct {
	Subtotal    string `json:"subtotal"`
	VATAmount   string `json:"vat_amount"`
	ShippingFee string `json:"shipping_fee"`
	TotalAmount string `json:"total_amount"`
}

// Render formats an invoice's money fields as VND display strings.
func Render(inv Invoice) RenderAmounts {
	return RenderAmounts{
		Subtotal:    FormatVND(inv.Subtotal),
		VATAmount:   FormatVND(inv.VATAmount),
		ShippingFee: FormatVND(inv.ShippingFee),
		TotalAmount: FormatVND(inv.TotalAmount),
	}
}
