package stock

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stampdesk/stampdesk/internal/catalog"
	"github.com/stampdesk/stampdesk/internal/platform/db"
	"github.com/stampdesk/stampdesk/internal/shared"
)

// Repository persists the stock ledger in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InTx runs fn in a repeatable-read transaction, joining an ambient one.
func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.RunInTx(ctx, r.pool, fn)
}

const productColumns = `id, code, name, category, unit, current_price, avg_import_price, stock_quantity, min_stock, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Category, &p.Unit, &p.CurrentPrice,
		&p.AvgImportPrice, &p.StockQuantity, &p.MinStock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetProductForUpdate locks the product row until the transaction ends.
func (r *Repository) GetProductForUpdate(ctx context.Context, id int64) (catalog.Product, error) {
	q := db.FromContext(ctx, r.pool)
	p, err := scanProduct(q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return p, err
}

// GetProductByCodeForUpdate locks the product row addressed by SKU code.
func (r *Repository) GetProductByCodeForUpdate(ctx context.Context, code string) (catalog.Product, error) {
	q := db.FromContext(ctx, r.pool)
	p, err := scanProduct(q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE code = $1 FOR UPDATE`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, fmt.Errorf("%w: product %s", shared.ErrNotFound, code)
	}
	return p, err
}

// UpdateProductStock is the single write path for stock_quantity and
// avg_import_price. The check constraint on stock_quantity backs up the
// service-level guard.
func (r *Repository) UpdateProductStock(ctx context.Context, productID, quantity int64, avgImportPrice float64) error {
	q := db.FromContext(ctx, r.pool)
	tag, err := q.Exec(ctx, `UPDATE products SET stock_quantity = $1, avg_import_price = $2, updated_at = NOW() WHERE id = $3`,
		quantity, avgImportPrice, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, productID)
	}
	return nil
}

const movementColumns = `id, ref, product_id, product_code, product_name, movement_type, quantity, unit_price, total_value, stock_before, stock_after, order_id, reason, actor_id, actor_name, created_at`

func scanMovement(row pgx.Row) (Movement, error) {
	var m Movement
	err := row.Scan(&m.ID, &m.Ref, &m.ProductID, &m.ProductCode, &m.ProductName, &m.Type,
		&m.Quantity, &m.UnitPrice, &m.TotalValue, &m.StockBefore, &m.StockAfter,
		&m.OrderID, &m.Reason, &m.ActorID, &m.ActorName, &m.CreatedAt)
	return m, err
}

// InsertMovement appends a ledger row. There is no update or delete path.
func (r *Repository) InsertMovement(ctx context.Context, movement Movement) (Movement, error) {
	q := db.FromContext(ctx, r.pool)
	row := q.QueryRow(ctx, `INSERT INTO stock_movements
(ref, product_id, product_code, product_name, movement_type, quantity, unit_price, total_value, stock_before, stock_after, order_id, reason, actor_id, actor_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,NOW())
RETURNING `+movementColumns,
		movement.Ref, movement.ProductID, movement.ProductCode, movement.ProductName, string(movement.Type),
		movement.Quantity, movement.UnitPrice, movement.TotalValue, movement.StockBefore, movement.StockAfter,
		movement.OrderID, movement.Reason, movement.ActorID, movement.ActorName)
	return scanMovement(row)
}

// Report lists movements matching the filter, newest first.
func (r *Repository) Report(ctx context.Context, filter ReportFilter) ([]Movement, int, error) {
	q := db.FromContext(ctx, r.pool)

	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.Type != "" {
		argCount++
		where += ` AND movement_type = $` + strconv.Itoa(argCount)
		args = append(args, string(filter.Type))
	}
	if filter.ProductID != 0 {
		argCount++
		where += ` AND product_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.ProductID)
	}
	if !filter.From.IsZero() {
		argCount++
		where += ` AND created_at >= $` + strconv.Itoa(argCount)
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		argCount++
		where += ` AND created_at < $` + strconv.Itoa(argCount)
		args = append(args, filter.To)
	}
	if filter.Text != "" {
		argCount++
		ph := strconv.Itoa(argCount)
		where += ` AND (product_code ILIKE $` + ph + ` OR product_name ILIKE $` + ph + ` OR reason ILIKE $` + ph + ` OR actor_name ILIKE $` + ph + `)`
		args = append(args, "%"+filter.Text+"%")
	}

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movements` + where + ` ORDER BY created_at DESC, id DESC`
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, perPage)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, (page-1)*perPage)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, 0, err
		}
		movements = append(movements, m)
	}
	return movements, total, rows.Err()
}

// History lists every movement of one product, oldest first.
func (r *Repository) History(ctx context.Context, productID int64) ([]Movement, error) {
	q := db.FromContext(ctx, r.pool)
	rows, err := q.Query(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE product_id = $1 ORDER BY created_at ASC, id ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// Summary aggregates the current stock position over active products.
func (r *Repository) Summary(ctx context.Context) (Summary, error) {
	q := db.FromContext(ctx, r.pool)
	var s Summary
	err := q.QueryRow(ctx, `SELECT
COUNT(*) FILTER (WHERE stock_quantity <= min_stock),
COALESCE(SUM(stock_quantity * avg_import_price), 0)
FROM products WHERE is_active`).Scan(&s.LowStockCount, &s.TotalStockValue)
	return s, err
}
