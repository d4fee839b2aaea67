package invoices

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stampdesk/stampdesk/internal/platform/db"
	"github.com/stampdesk/stampdesk/internal/shared"
)

// Repository persists invoices in PostgreSQL. Item lines live in a jsonb
// column because invoices are immutable once generated.
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

const invoiceColumns = `id, invoice_number, order_id, order_number, customer_name, agent_name, items, subtotal, vat_amount, shipping_fee, total_amount, is_printed, printed_at, printed_by, created_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.OrderID, &inv.OrderNumber,
		&inv.CustomerName, &inv.AgentName, &inv.Items,
		&inv.Subtotal, &inv.VATAmount, &inv.ShippingFee, &inv.TotalAmount,
		&inv.IsPrinted, &inv.PrintedAt, &inv.PrintedBy, &inv.CreatedAt)
	return inv, err
}

// Create inserts an invoice. The unique order_id index maps a second invoice
// for the same order to conflict.
func (r *Repository) Create(ctx context.Context, inv Invoice) (Invoice, error) {
	q := db.FromContext(ctx, r.pool)
	created, err := scanInvoice(q.QueryRow(ctx, `INSERT INTO invoices
(invoice_number, order_id, order_number, customer_name, agent_name, items, subtotal, vat_amount, shipping_fee, total_amount, is_printed, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,false,NOW())
RETURNING `+invoiceColumns,
		inv.InvoiceNumber, inv.OrderID, inv.OrderNumber, inv.CustomerName, inv.AgentName,
		inv.Items, inv.Subtotal, inv.VATAmount, inv.ShippingFee, inv.TotalAmount))
	if db.IsUniqueViolation(err) {
		return Invoice{}, fmt.Errorf("%w: order %d already has an invoice", shared.ErrConflict, inv.OrderID)
	}
	return created, err
}

// Get fetches one invoice by id.
func (r *Repository) Get(ctx context.Context, id int64) (Invoice, error) {
	q := db.FromContext(ctx, r.pool)
	inv, err := scanInvoice(q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
	}
	return inv, err
}

// GetByOrder fetches the invoice generated for an order.
func (r *Repository) GetByOrder(ctx context.Context, orderID int64) (Invoice, error) {
	q := db.FromContext(ctx, r.pool)
	inv, err := scanInvoice(q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE order_id = $1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, fmt.Errorf("%w: no invoice for order %d", shared.ErrNotFound, orderID)
	}
	return inv, err
}

// List returns invoices, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Invoice, int, error) {
	q := db.FromContext(ctx, r.pool)

	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.IsPrinted != nil {
		argCount++
		where += ` AND is_printed = $` + strconv.Itoa(argCount)
		args = append(args, *filter.IsPrinted)
	}
	if filter.Search != "" {
		argCount++
		ph := strconv.Itoa(argCount)
		where += ` AND (invoice_number ILIKE $` + ph + ` OR order_number ILIKE $` + ph + ` OR customer_name ILIKE $` + ph + `)`
		args = append(args, "%"+filter.Search+"%")
	}

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`+where, args...).Scan(&total); err != nil {
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

	rows, err := q.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices`+where+
		` ORDER BY created_at DESC, id DESC LIMIT $`+limitPh+` OFFSET $`+offsetPh, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

// MarkPrinted records the first print. Reprints keep the original stamp.
func (r *Repository) MarkPrinted(ctx context.Context, id int64, printedBy string, printedAt time.Time) error {
	q := db.FromContext(ctx, r.pool)
	tag, err := q.Exec(ctx, `UPDATE invoices SET is_printed = true, printed_at = $1, printed_by = $2
WHERE id = $3 AND NOT is_printed`, printedAt, printedBy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
		}
	}
	return nil
}
