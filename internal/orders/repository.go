package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stampdesk/stampdesk/internal/platform/db"
	"github.com/stampdesk/stampdesk/internal/shared"
)

// Repository persists orders in PostgreSQL.
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

const orderColumns = `id, order_number, customer_id, customer_name, agent_id, agent_name, subtotal, vat_rate, vat_amount, shipping_fee, total_amount, payment_status, status, notes, created_by, created_by_name, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.CustomerName, &o.AgentID, &o.AgentName,
		&o.Subtotal, &o.VATRate, &o.VATAmount, &o.ShippingFee, &o.TotalAmount,
		&o.PaymentStatus, &o.Status, &o.Notes, &o.CreatedBy, &o.CreatedByName, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// Create inserts the order header and its item snapshots.
func (r *Repository) Create(ctx context.Context, order Order) (Order, error) {
	q := db.FromContext(ctx, r.pool)
	created, err := scanOrder(q.QueryRow(ctx, `INSERT INTO orders
(order_number, customer_id, customer_name, agent_id, agent_name, subtotal, vat_rate, vat_amount, shipping_fee, total_amount, payment_status, status, notes, created_by, created_by_name, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NOW(),NOW())
RETURNING `+orderColumns,
		order.OrderNumber, order.CustomerID, order.CustomerName, order.AgentID, order.AgentName,
		order.Subtotal, order.VATRate, order.VATAmount, order.ShippingFee, order.TotalAmount,
		string(order.PaymentStatus), string(order.Status), order.Notes, order.CreatedBy, order.CreatedByName))
	if err != nil {
		return Order{}, err
	}
	created.Items, err = r.insertItems(ctx, created.ID, order.Items)
	if err != nil {
		return Order{}, err
	}
	return created, nil
}

func (r *Repository) insertItems(ctx context.Context, orderID int64, items []OrderItem) ([]OrderItem, error) {
	q := db.FromContext(ctx, r.pool)
	inserted := make([]OrderItem, 0, len(items))
	for _, item := range items {
		var out OrderItem
		err := q.QueryRow(ctx, `INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, total_price)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id, order_id, product_id, product_name, quantity, unit_price, total_price`,
			orderID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.TotalPrice).
			Scan(&out.ID, &out.OrderID, &out.ProductID, &out.ProductName, &out.Quantity, &out.UnitPrice, &out.TotalPrice)
		if err != nil {
			return nil, err
		}
		inserted = append(inserted, out)
	}
	return inserted, nil
}

// Get loads an order with its items.
func (r *Repository) Get(ctx context.Context, id int64) (Order, error) {
	q := db.FromContext(ctx, r.pool)
	order, err := scanOrder(q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("%w: order %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return Order{}, err
	}
	order.Items, err = r.itemsFor(ctx, id)
	return order, err
}

func (r *Repository) itemsFor(ctx context.Context, orderID int64) ([]OrderItem, error) {
	q := db.FromContext(ctx, r.pool)
	rows, err := q.Query(ctx, `SELECT id, order_id, product_id, product_name, quantity, unit_price, total_price
FROM order_items WHERE order_id = $1 ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// List returns filtered orders, newest first, without item lines.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	q := db.FromContext(ctx, r.pool)

	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.Status != "" {
		argCount++
		where += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, string(filter.Status))
	}
	if filter.PaymentStatus != "" {
		argCount++
		where += ` AND payment_status = $` + strconv.Itoa(argCount)
		args = append(args, string(filter.PaymentStatus))
	}
	if filter.CustomerID != 0 {
		argCount++
		where += ` AND customer_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.CustomerID)
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
	if filter.Search != "" {
		argCount++
		ph := strconv.Itoa(argCount)
		where += ` AND (order_number ILIKE $` + ph + ` OR customer_name ILIKE $` + ph + `)`
		args = append(args, "%"+filter.Search+"%")
	}

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	argCount++
	limitPh := strconv.Itoa(argCount)
	argCount++
	offsetPh := strconv.Itoa(argCount)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := q.Query(ctx, `SELECT `+orderColumns+` FROM orders`+where+
		` ORDER BY created_at DESC, id DESC LIMIT $`+limitPh+` OFFSET $`+offsetPh, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// UpdateHeader rewrites mutable header fields.
func (r *Repository) UpdateHeader(ctx context.Context, order Order) error {
	q := db.FromContext(ctx, r.pool)
	tag, err := q.Exec(ctx, `UPDATE orders SET subtotal = $1, vat_rate = $2, vat_amount = $3, shipping_fee = $4, total_amount = $5, payment_status = $6, notes = $7, updated_at = NOW() WHERE id = $8`,
		order.Subtotal, order.VATRate, order.VATAmount, order.ShippingFee, order.TotalAmount,
		string(order.PaymentStatus), order.Notes, order.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %d", shared.ErrNotFound, order.ID)
	}
	return nil
}

// ReplaceItems swaps the line snapshot wholesale.
func (r *Repository) ReplaceItems(ctx context.Context, orderID int64, items []OrderItem) error {
	q := db.FromContext(ctx, r.pool)
	if _, err := q.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return err
	}
	_, err := r.insertItems(ctx, orderID, items)
	return err
}

// MarkCancelled flips an active order to cancelled. The condition makes the
// flip a claim: of two concurrent cancels only one sees a row change, the
// other gets ErrInvalidState.
func (r *Repository) MarkCancelled(ctx context.Context, id int64) error {
	q := db.FromContext(ctx, r.pool)
	tag, err := q.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		string(StatusCancelled), id, string(StatusActive))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: order %d", shared.ErrNotFound, id)
		}
		return fmt.Errorf("%w: order %d is already cancelled", shared.ErrInvalidState, id)
	}
	return nil
}

// Delete permanently removes the order and its items.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	q := db.FromContext(ctx, r.pool)
	if _, err := q.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %d", shared.ErrNotFound, id)
	}
	return nil
}
