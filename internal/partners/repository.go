package partners

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

// Repository persists agents and customers in PostgreSQL.
type Repository interface {
	CreateAgent(ctx context.Context, agent Agent) (Agent, error)
	GetAgent(ctx context.Context, id int64) (Agent, error)
	ListAgents(ctx context.Context, search string, page, perPage int) ([]Agent, int, error)
	UpdateAgent(ctx context.Context, agent Agent) error
	EnsureDefaultAgent(ctx context.Context) (Agent, error)

	CreateCustomer(ctx context.Context, customer Customer) (Customer, error)
	GetCustomer(ctx context.Context, id int64) (Customer, error)
	ListCustomers(ctx context.Context, search string, page, perPage int) ([]Customer, int, error)
	UpdateCustomer(ctx context.Context, customer Customer) error
	EnsureDefaultCustomer(ctx context.Context, agent Agent) (Customer, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const agentColumns = `id, name, phone, email, address, is_default, created_at, updated_at`

func scanAgent(row pgx.Row) (Agent, error) {
	var a Agent
	err := row.Scan(&a.ID, &a.Name, &a.Phone, &a.Email, &a.Address, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) CreateAgent(ctx context.Context, agent Agent) (Agent, error) {
	q := db.FromContext(ctx, r.pool)
	a, err := scanAgent(q.QueryRow(ctx, `INSERT INTO agents (name, phone, email, address, is_default, created_at, updated_at)
VALUES ($1, $2, $3, $4, FALSE, NOW(), NOW()) RETURNING `+agentColumns,
		agent.Name, agent.Phone, agent.Email, agent.Address))
	if err != nil {
		return Agent{}, err
	}
	return a, nil
}

func (r *repository) GetAgent(ctx context.Context, id int64) (Agent, error) {
	q := db.FromContext(ctx, r.pool)
	a, err := scanAgent(q.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Agent{}, fmt.Errorf("%w: agent %d", shared.ErrNotFound, id)
	}
	return a, err
}

func (r *repository) ListAgents(ctx context.Context, search string, page, perPage int) ([]Agent, int, error) {
	q := db.FromContext(ctx, r.pool)
	where, args := searchClause(search)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM agents`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limitOffset(page, perPage)...)
	n := len(args)
	rows, err := q.Query(ctx, `SELECT `+agentColumns+` FROM agents`+where+
		` ORDER BY name ASC LIMIT $`+strconv.Itoa(n-1)+` OFFSET $`+strconv.Itoa(n), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, 0, err
		}
		agents = append(agents, a)
	}
	return agents, total, rows.Err()
}

func (r *repository) UpdateAgent(ctx context.Context, agent Agent) error {
	q := db.FromContext(ctx, r.pool)
	tag, err := q.Exec(ctx, `UPDATE agents SET name = $1, phone = $2, email = $3, address = $4, updated_at = NOW() WHERE id = $5`,
		agent.Name, agent.Phone, agent.Email, agent.Address, agent.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: agent %d", shared.ErrNotFound, agent.ID)
	}
	return nil
}

// EnsureDefaultAgent find-or-creates the singleton retail agent. The partial
// unique index on is_default makes concurrent first-time calls converge on a
// single row instead of racing into duplicates.
func (r *repository) EnsureDefaultAgent(ctx context.Context) (Agent, error) {
	q := db.FromContext(ctx, r.pool)
	return scanAgent(q.QueryRow(ctx, `INSERT INTO agents (name, phone, email, address, is_default, created_at, updated_at)
VALUES ($1, '', '', '', TRUE, NOW(), NOW())
ON CONFLICT (is_default) WHERE is_default DO UPDATE SET updated_at = agents.updated_at
RETURNING `+agentColumns, DefaultAgentName))
}

const customerColumns = `id, name, phone, email, address, agent_id, agent_name, is_default, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.AgentID, &c.AgentName, &c.IsDefault, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) CreateCustomer(ctx context.Context, customer Customer) (Customer, error) {
	q := db.FromContext(ctx, r.pool)
	c, err := scanCustomer(q.QueryRow(ctx, `INSERT INTO customers (name, phone, email, address, agent_id, agent_name, is_default, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW(), NOW()) RETURNING `+customerColumns,
		customer.Name, customer.Phone, customer.Email, customer.Address, customer.AgentID, customer.AgentName))
	if err != nil {
		return Customer{}, err
	}
	return c, nil
}

func (r *repository) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	q := db.FromContext(ctx, r.pool)
	c, err := scanCustomer(q.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
	}
	return c, err
}

func (r *repository) ListCustomers(ctx context.Context, search string, page, perPage int) ([]Customer, int, error) {
	q := db.FromContext(ctx, r.pool)
	where, args := searchClause(search)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limitOffset(page, perPage)...)
	n := len(args)
	rows, err := q.Query(ctx, `SELECT `+customerColumns+` FROM customers`+where+
		` ORDER BY name ASC LIMIT $`+strconv.Itoa(n-1)+` OFFSET $`+strconv.Itoa(n), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}

func (r *repository) UpdateCustomer(ctx context.Context, customer Customer) error {
	q := db.FromContext(ctx, r.pool)
	tag, err := q.Exec(ctx, `UPDATE customers SET name = $1, phone = $2, email = $3, address = $4, agent_id = $5, agent_name = $6, updated_at = NOW() WHERE id = $7`,
		customer.Name, customer.Phone, customer.Email, customer.Address, customer.AgentID, customer.AgentName, customer.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: customer %d", shared.ErrNotFound, customer.ID)
	}
	return nil
}

// EnsureDefaultCustomer find-or-creates the singleton walk-in customer,
// attached to the default retail agent.
func (r *repository) EnsureDefaultCustomer(ctx context.Context, agent Agent) (Customer, error) {
	q := db.FromContext(ctx, r.pool)
	return scanCustomer(q.QueryRow(ctx, `INSERT INTO customers (name, phone, email, address, agent_id, agent_name, is_default, created_at, updated_at)
VALUES ($1, '', '', '', $2, $3, TRUE, NOW(), NOW())
ON CONFLICT (is_default) WHERE is_default DO UPDATE SET updated_at = customers.updated_at
RETURNING `+customerColumns, DefaultCustomerName, agent.ID, agent.Name))
}

func searchClause(search string) (string, []any) {
	if search == "" {
		return ` WHERE 1=1`, []any{}
	}
	return ` WHERE (name ILIKE $1 OR phone ILIKE $1)`, []any{"%" + search + "%"}
}

func limitOffset(page, perPage int) []any {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	return []any{perPage, (page - 1) * perPage}
}
