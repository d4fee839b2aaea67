package catalog

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

// Repository persists products in PostgreSQL.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	GetByCode(ctx context.Context, code string) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, product Product) error
	SoftDelete(ctx context.Context, id int64) error
	LowStock(ctx context.Context) ([]Product, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `id, code, name, category, unit, current_price, avg_import_price, stock_quantity, min_stock, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Category, &p.Unit, &p.CurrentPrice,
		&p.AvgImportPrice, &p.StockQuantity, &p.MinStock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	q := db.FromContext(ctx, r.pool)

	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.Search != "" {
		argCount++
		where += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Category != "" {
		argCount++
		where += ` AND category = $` + strconv.Itoa(argCount)
		args = append(args, filter.Category)
	}
	if filter.IsActive != nil {
		argCount++
		where += ` AND is_active = $` + strconv.Itoa(argCount)
		args = append(args, *filter.IsActive)
	}

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY code ASC`
	if filter.PerPage > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filter.PerPage)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, (page-1)*filter.PerPage)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	q := db.FromContext(ctx, r.pool)
	p, err := scanProduct(q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return p, err
}

func (r *repository) GetByCode(ctx context.Context, code string) (Product, error) {
	q := db.FromContext(ctx, r.pool)
	p, err := scanProduct(q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: product %s", shared.ErrNotFound, code)
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	q := db.FromContext(ctx, r.pool)
	err := q.QueryRow(ctx, `INSERT INTO products (code, name, category, unit, current_price, avg_import_price, stock_quantity, min_stock, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 0, 0, $6, TRUE, NOW(), NOW())
RETURNING `+productColumns,
		product.Code, product.Name, product.Category, product.Unit, product.CurrentPrice, product.MinStock).
		Scan(&product.ID, &product.Code, &product.Name, &product.Category, &product.Unit, &product.CurrentPrice,
			&product.AvgImportPrice, &product.StockQuantity, &product.MinStock, &product.IsActive, &product.CreatedAt, &product.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return Product{}, fmt.Errorf("%w: product code %s", shared.ErrConflict, product.Code)
	}
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

// Update writes commercial fields only; stock_quantity and avg_import_price
// stay untouched so the ledger remains their single writer.
func (r *repository) Update(ctx context.Context, product Product) error {
	q := db.FromContext(ctx, r.pool)
	tag, err := q.Exec(ctx, `UPDATE products SET name = $1, category = $2, unit = $3, current_price = $4, min_stock = $5, updated_at = NOW() WHERE id = $6`,
		product.Name, product.Category, product.Unit, product.CurrentPrice, product.MinStock, product.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, product.ID)
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id int64) error {
	q := db.FromContext(ctx, r.pool)
	tag, err := q.Exec(ctx, `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) LowStock(ctx context.Context) ([]Product, error) {
	q := db.FromContext(ctx, r.pool)
	rows, err := q.Query(ctx, `SELECT `+productColumns+` FROM products WHERE is_active AND stock_quantity <= min_stock ORDER BY stock_quantity ASC, code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
