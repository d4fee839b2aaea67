package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository aggregates order data. Read-only; every query filters to
// active orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Overview aggregates active orders in [from, to).
func (r *Repository) Overview(ctx context.Context, from, to time.Time) (Overview, error) {
	var o Overview
	err := r.pool.QueryRow(ctx, `SELECT
COUNT(*),
COALESCE(SUM(total_amount), 0),
COALESCE(SUM(total_amount) FILTER (WHERE payment_status = 'debt'), 0),
COALESCE(SUM(total_amount) FILTER (WHERE payment_status = 'completed'), 0)
FROM orders
WHERE status = 'active' AND created_at >= $1 AND created_at < $2`, from, to).
		Scan(&o.OrderCount, &o.Revenue, &o.Debt, &o.CompletedRevenue)
	return o, err
}

// TopCustomers ranks customers of active orders by revenue.
func (r *Repository) TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]TopEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT customer_id, customer_name, SUM(total_amount), COUNT(*)
FROM orders
WHERE status = 'active' AND created_at >= $1 AND created_at < $2
GROUP BY customer_id, customer_name
ORDER BY SUM(total_amount) DESC
LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopEntry
	for rows.Next() {
		var e TopEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Revenue, &e.Orders); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// TopAgents ranks agents of active orders by revenue. Orders without an
// agent are left out.
func (r *Repository) TopAgents(ctx context.Context, from, to time.Time, limit int) ([]TopEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT agent_id, agent_name, SUM(total_amount), COUNT(*)
FROM orders
WHERE status = 'active' AND agent_id IS NOT NULL AND created_at >= $1 AND created_at < $2
GROUP BY agent_id, agent_name
ORDER BY SUM(total_amount) DESC
LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopEntry
	for rows.Next() {
		var e TopEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Revenue, &e.Orders); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// TopProducts ranks order lines of active orders by revenue, quantity
// included.
func (r *Repository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT oi.product_id, oi.product_name, SUM(oi.total_price), COUNT(DISTINCT o.id), SUM(oi.quantity)
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE o.status = 'active' AND o.created_at >= $1 AND o.created_at < $2
GROUP BY oi.product_id, oi.product_name
ORDER BY SUM(oi.total_price) DESC
LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopEntry
	for rows.Next() {
		var e TopEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Revenue, &e.Orders, &e.Quantity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
