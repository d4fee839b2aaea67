package invoices

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stampdesk/stampdesk/internal/orders"
	"github.com/stampdesk/stampdesk/internal/shared"
)

type memoryRepo struct {
	nextID  int64
	byID    map[int64]Invoice
	byOrder map[int64]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[int64]Invoice), byOrder: make(map[int64]int64)}
}

func (m *memoryRepo) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *memoryRepo) Create(_ context.Context, inv Invoice) (Invoice, error) {
	if _, ok := m.byOrder[inv.OrderID]; ok {
		return Invoice{}, fmt.Errorf("%w: order %d already has an invoice", shared.ErrConflict, inv.OrderID)
	}
	m.nextID++
	inv.ID = m.nextID
	inv.CreatedAt = time.Now()
	m.byID[inv.ID] = inv
	m.byOrder[inv.OrderID] = inv.ID
	return inv, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Invoice, error) {
	inv, ok := m.byID[id]
	if !ok {
		return Invoice{}, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
	}
	return inv, nil
}

func (m *memoryRepo) GetByOrder(_ context.Context, orderID int64) (Invoice, error) {
	id, ok := m.byOrder[orderID]
	if !ok {
		return Invoice{}, fmt.Errorf("%w: no invoice for order %d", shared.ErrNotFound, orderID)
	}
	return m.byID[id], nil
}

func (m *memoryRepo) List(_ context.Context, _ ListFilter) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range m.byID {
		out = append(out, inv)
	}
	return out, len(out), nil
}

func (m *memoryRepo) MarkPrinted(_ context.Context, id int64, printedBy string, printedAt time.Time) error {
	inv, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
	}
	if inv.IsPrinted {
		return nil
	}
	inv.IsPrinted = true
	inv.PrintedAt = &printedAt
	inv.PrintedBy = printedBy
	m.byID[id] = inv
	return nil
}

type memoryOrders struct {
	orders map[int64]orders.Order
}

func (m *memoryOrders) Get(_ context.Context, id int64) (orders.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return orders.Order{}, fmt.Errorf("%w: order %d", shared.ErrNotFound, id)
	}
	return o, nil
}

type memorySequence struct {
	value int64
}

func (m *memorySequence) Next(_ context.Context, _ string) (int64, error) {
	m.value++
	return m.value, nil
}

func sampleOrder() orders.Order {
	return orders.Order{
		ID:           10,
		OrderNumber:  "DH000010",
		CustomerName: "Khách lẻ",
		Status:       orders.StatusActive,
		VATRate:      0,
		ShippingFee:  500,
		Items: []orders.OrderItem{
			{ProductID: 1, ProductName: "Con dấu tròn 20mm", Quantity: 3, UnitPrice: 2000, TotalPrice: 6000},
		},
	}
}

func TestGenerateRecomputesFixedVAT(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, &memoryOrders{orders: map[int64]orders.Order{10: sampleOrder()}}, &memorySequence{})

	inv, err := service.Generate(context.Background(), 10)
	require.NoError(t, err)

	require.Equal(t, "HD000001", inv.InvoiceNumber)
	require.Equal(t, "DH000010", inv.OrderNumber)
	require.InDelta(t, 6000.0, inv.Subtotal, 1e-9)
	// 10% always, even though the order was sold VAT-free.
	require.InDelta(t, 600.0, inv.VATAmount, 1e-9)
	require.InDelta(t, 7100.0, inv.TotalAmount, 1e-9)
	require.False(t, inv.IsPrinted)
	require.Len(t, inv.Items, 1)
}

func TestGenerateTwiceConflicts(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, &memoryOrders{orders: map[int64]orders.Order{10: sampleOrder()}}, &memorySequence{})

	_, err := service.Generate(context.Background(), 10)
	require.NoError(t, err)
	_, err = service.Generate(context.Background(), 10)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestGenerateCancelledOrderRejected(t *testing.T) {
	order := sampleOrder()
	order.Status = orders.StatusCancelled
	service := NewService(newMemoryRepo(), &memoryOrders{orders: map[int64]orders.Order{10: order}}, &memorySequence{})

	_, err := service.Generate(context.Background(), 10)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestMarkPrintedKeepsFirstStamp(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, &memoryOrders{orders: map[int64]orders.Order{10: sampleOrder()}}, &memorySequence{})
	stamp := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return stamp }

	inv, err := service.Generate(context.Background(), 10)
	require.NoError(t, err)

	printed, err := service.MarkPrinted(context.Background(), inv.ID, shared.Actor{ID: 7, Name: "lan"})
	require.NoError(t, err)
	require.True(t, printed.IsPrinted)
	require.Equal(t, "lan", printed.PrintedBy)
	require.Equal(t, stamp, *printed.PrintedAt)

	service.now = func() time.Time { return stamp.Add(48 * time.Hour) }
	again, err := service.MarkPrinted(context.Background(), inv.ID, shared.Actor{ID: 1, Name: "someone else"})
	require.NoError(t, err)
	require.Equal(t, "lan", again.PrintedBy)
	require.Equal(t, stamp, *again.PrintedAt)
}

func TestFormatVND(t *testing.T) {
	require.Equal(t, "1.234.568 ₫", FormatVND(1234567.89))
	require.Equal(t, "0 ₫", FormatVND(0))
}
