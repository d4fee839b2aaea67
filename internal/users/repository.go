package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stampdesk/stampdesk/internal/platform/db"
	"github.com/stampdesk/stampdesk/internal/shared"
)

// Repository persists user accounts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, username, password_hash, full_name, role, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// List returns all accounts, admins first then by username.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	q := db.FromContext(ctx, r.pool)
	rows, err := q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY role ASC, username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Get fetches one account by id.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	q := db.FromContext(ctx, r.pool)
	u, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	return u, err
}

// GetByUsername fetches one account by its login name.
func (r *Repository) GetByUsername(ctx context.Context, username string) (User, error) {
	q := db.FromContext(ctx, r.pool)
	u, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user %s", shared.ErrNotFound, username)
	}
	return u, err
}

// Create inserts an account. A duplicate username maps to conflict.
func (r *Repository) Create(ctx context.Context, user User) (User, error) {
	q := db.FromContext(ctx, r.pool)
	created, err := scanUser(q.QueryRow(ctx, `INSERT INTO users (username, password_hash, full_name, role, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
RETURNING `+userColumns,
		user.Username, user.PasswordHash, user.FullName, user.Role, user.IsActive))
	if db.IsUniqueViolation(err) {
		return User{}, fmt.Errorf("%w: username %s already exists", shared.ErrConflict, user.Username)
	}
	return created, err
}

// Update rewrites the mutable account fields, password hash included.
func (r *Repository) Update(ctx context.Context, user User) (User, error) {
	q := db.FromContext(ctx, r.pool)
	updated, err := scanUser(q.QueryRow(ctx, `UPDATE users SET full_name = $1, role = $2, is_active = $3, password_hash = $4, updated_at = NOW()
WHERE id = $5
RETURNING `+userColumns,
		user.FullName, user.Role, user.IsActive, user.PasswordHash, user.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user %d", shared.ErrNotFound, user.ID)
	}
	return updated, err
}

// Delete removes an account.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	q := db.FromContext(ctx, r.pool)
	tag, err := q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	return nil
}

// CountAdmins counts active admin accounts.
func (r *Repository) CountAdmins(ctx context.Context) (int, error) {
	q := db.FromContext(ctx, r.pool)
	var n int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = 'admin' AND is_active`).Scan(&n)
	return n, err
}
