package stock

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stampdesk/stampdesk/internal/catalog"
	"github.com/stampdesk/stampdesk/internal/shared"
)

type memoryRepo struct {
	products  map[int64]catalog.Product
	movements []Movement
	nextID    int64
	inTx      bool
	pending   func()
}

func newMemoryRepo(products ...catalog.Product) *memoryRepo {
	repo := &memoryRepo{products: make(map[int64]catalog.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (r *memoryRepo) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.inTx {
		return fn(ctx)
	}
	r.inTx = true
	defer func() { r.inTx = false }()

	// Snapshot so a failing movement leaves no side effects.
	before := make(map[int64]catalog.Product, len(r.products))
	for id, p := range r.products {
		before[id] = p
	}
	moves := len(r.movements)
	if err := fn(ctx); err != nil {
		r.products = before
		r.movements = r.movements[:moves]
		return err
	}
	return nil
}

func (r *memoryRepo) GetProductForUpdate(ctx context.Context, id int64) (catalog.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return catalog.Product{}, fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return p, nil
}

func (r *memoryRepo) GetProductByCodeForUpdate(ctx context.Context, code string) (catalog.Product, error) {
	for _, p := range r.products {
		if p.Code == code {
			return p, nil
		}
	}
	return catalog.Product{}, fmt.Errorf("%w: product %s", shared.ErrNotFound, code)
}

func (r *memoryRepo) UpdateProductStock(ctx context.Context, productID, quantity int64, avgImportPrice float64) error {
	p, ok := r.products[productID]
	if !ok {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, productID)
	}
	p.StockQuantity = quantity
	p.AvgImportPrice = avgImportPrice
	r.products[productID] = p
	return nil
}

func (r *memoryRepo) InsertMovement(ctx context.Context, movement Movement) (Movement, error) {
	r.nextID++
	movement.ID = r.nextID
	r.movements = append(r.movements, movement)
	return movement, nil
}

func (r *memoryRepo) Report(ctx context.Context, filter ReportFilter) ([]Movement, int, error) {
	return append([]Movement(nil), r.movements...), len(r.movements), nil
}

func (r *memoryRepo) History(ctx context.Context, productID int64) ([]Movement, error) {
	var out []Movement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryRepo) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	for _, p := range r.products {
		if !p.IsActive {
			continue
		}
		if p.StockQuantity <= p.MinStock {
			s.LowStockCount++
		}
		s.TotalStockValue += float64(p.StockQuantity) * p.AvgImportPrice
	}
	return s, nil
}

var tester = shared.Actor{ID: 7, Name: "tester", Role: shared.RoleEmployee}

func activeProduct(id int64, code string) catalog.Product {
	return catalog.Product{ID: id, Code: code, Name: "Con dấu " + code, IsActive: true}
}

func TestImportWeightedAverage(t *testing.T) {
	repo := newMemoryRepo(activeProduct(1, "C20"))
	svc := NewService(repo)
	ctx := context.Background()

	m, err := svc.Import(ctx, ImportInput{ProductCode: "C20", Quantity: 10, UnitPrice: 1000, Actor: tester})
	require.NoError(t, err)
	require.Equal(t, int64(0), m.StockBefore)
	require.Equal(t, int64(10), m.StockAfter)
	// First import into zero stock takes the incoming price exactly.
	require.Equal(t, 1000.0, repo.products[1].AvgImportPrice)

	m, err = svc.Import(ctx, ImportInput{ProductCode: "C20", Quantity: 5, UnitPrice: 1300, Actor: tester})
	require.NoError(t, err)
	require.Equal(t, int64(15), m.StockAfter)
	require.InDelta(t, 1100.0, repo.products[1].AvgImportPrice, 1e-9)
	require.Equal(t, 6500.0, m.TotalValue)
}

func TestExportInsufficientStockLeavesStateUntouched(t *testing.T) {
	repo := newMemoryRepo(activeProduct(1, "C20"))
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Import(ctx, ImportInput{ProductCode: "C20", Quantity: 3, UnitPrice: 500, Actor: tester})
	require.NoError(t, err)

	_, err = svc.Export(ctx, ExportInput{ProductID: 1, Quantity: 5, OrderID: 42, Actor: tester})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.Equal(t, int64(3), repo.products[1].StockQuantity)
	require.Len(t, repo.movements, 1)
}

func TestExportRecordsNegativeQuantity(t *testing.T) {
	repo := newMemoryRepo(activeProduct(1, "C20"))
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Import(ctx, ImportInput{ProductCode: "C20", Quantity: 10, UnitPrice: 1000, Actor: tester})
	require.NoError(t, err)

	price := 2000.0
	m, err := svc.Export(ctx, ExportInput{ProductID: 1, Quantity: 4, OrderID: 42, UnitPrice: &price, Actor: tester})
	require.NoError(t, err)
	require.Equal(t, int64(-4), m.Quantity)
	require.Equal(t, 8000.0, m.TotalValue)
	require.Equal(t, MovementExport, m.Type)
	require.NotNil(t, m.OrderID)
	require.Equal(t, int64(42), *m.OrderID)
	require.Equal(t, int64(6), repo.products[1].StockQuantity)
}

func TestExportDefaultsToAverageCost(t *testing.T) {
	repo := newMemoryRepo(activeProduct(1, "C20"))
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Import(ctx, ImportInput{ProductCode: "C20", Quantity: 10, UnitPrice: 1200, Actor: tester})
	require.NoError(t, err)

	m, err := svc.Export(ctx, ExportInput{ProductID: 1, Quantity: 2, OrderID: 1, Actor: tester})
	require.NoError(t, err)
	require.Equal(t, 1200.0, m.UnitPrice)
}

func TestReturnReusesImportTypeWithoutTouchingAverage(t *testing.T) {
	repo := newMemoryRepo(activeProduct(1, "C20"))
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Import(ctx, ImportInput{ProductCode: "C20", Quantity: 10, UnitPrice: 1000, Actor: tester})
	require.NoError(t, err)
	_, err = svc.Export(ctx, ExportInput{ProductID: 1, Quantity: 4, OrderID: 9, Actor: tester})
	require.NoError(t, err)

	m, err := svc.Return(ctx, ReturnInput{ProductID: 1, Quantity: 4, OrderID: 9, Actor: shared.SystemActor})
	require.NoError(t, err)
	require.Equal(t, MovementImport, m.Type)
	require.Equal(t, ReturnReason, m.Reason)
	require.Equal(t, "system", m.ActorName)
	require.Equal(t, int64(10), repo.products[1].StockQuantity)
	require.Equal(t, 1000.0, repo.products[1].AvgImportPrice)
}

func TestAdjustGuardsNegativeStock(t *testing.T) {
	repo := newMemoryRepo(activeProduct(1, "C20"))
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Adjust(ctx, AdjustInput{ProductCode: "C20", Quantity: -1, Reason: "count", Actor: tester})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	_, err = svc.Adjust(ctx, AdjustInput{ProductCode: "C20", Quantity: 5, Reason: "count", Actor: tester})
	require.NoError(t, err)
	_, err = svc.Adjust(ctx, AdjustInput{ProductCode: "C20", Quantity: -3, Reason: "breakage", Actor: tester})
	require.NoError(t, err)
	require.Equal(t, int64(2), repo.products[1].StockQuantity)
}

func TestLedgerConservation(t *testing.T) {
	repo := newMemoryRepo(activeProduct(1, "C20"))
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Import(ctx, ImportInput{ProductCode: "C20", Quantity: 10, UnitPrice: 100, Actor: tester})
	require.NoError(t, err)
	_, err = svc.Export(ctx, ExportInput{ProductID: 1, Quantity: 6, OrderID: 1, Actor: tester})
	require.NoError(t, err)
	_, err = svc.Return(ctx, ReturnInput{ProductID: 1, Quantity: 2, OrderID: 1, Actor: shared.SystemActor})
	require.NoError(t, err)
	_, err = svc.Adjust(ctx, AdjustInput{ProductCode: "C20", Quantity: -1, Reason: "damage", Actor: tester})
	require.NoError(t, err)

	var sum int64
	history, err := svc.History(ctx, 1)
	require.NoError(t, err)
	for _, m := range history {
		sum += m.Quantity
		require.Equal(t, m.StockBefore+m.Quantity, m.StockAfter)
	}
	// Signed movement quantities add up to current stock minus initial (zero).
	require.Equal(t, repo.products[1].StockQuantity, sum)
}

func TestMovementsAgainstInactiveProduct(t *testing.T) {
	inactive := activeProduct(1, "C20")
	inactive.IsActive = false
	inactive.StockQuantity = 5
	repo := newMemoryRepo(inactive)
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Import(ctx, ImportInput{ProductCode: "C20", Quantity: 1, UnitPrice: 10, Actor: tester})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Export(ctx, ExportInput{ProductID: 1, Quantity: 1, OrderID: 3, Actor: tester})
	require.ErrorIs(t, err, shared.ErrNotFound)

	// Returns still land: cancelling an old order must restore stock even
	// after the product was retired.
	_, err = svc.Return(ctx, ReturnInput{ProductID: 1, Quantity: 2, OrderID: 3, Actor: shared.SystemActor})
	require.NoError(t, err)
	require.Equal(t, int64(7), repo.products[1].StockQuantity)
}

func TestSummary(t *testing.T) {
	low := activeProduct(1, "C20")
	low.StockQuantity = 1
	low.MinStock = 5
	low.AvgImportPrice = 1000
	ok := activeProduct(2, "B10")
	ok.StockQuantity = 10
	ok.MinStock = 2
	ok.AvgImportPrice = 500
	repo := newMemoryRepo(low, ok)
	svc := NewService(repo)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.LowStockCount)
	require.Equal(t, 6000.0, summary.TotalStockValue)
}
