package shared

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stampdesk/stampdesk/internal/platform/db"
)

// Sequence hands out gap-free document numbers from the counters table.
// Increment-and-fetch happens in a single statement, so concurrent callers
// never observe the same value; when called inside an ambient transaction
// the reservation rolls back with it.
type Sequence struct {
	pool *pgxpool.Pool
}

// NewSequence returns a Sequence backed by the counters table.
func NewSequence(pool *pgxpool.Pool) *Sequence {
	return &Sequence{pool: pool}
}

// Next reserves and returns the next value for the named counter.
func (s *Sequence) Next(ctx context.Context, name string) (int64, error) {
	q := db.FromContext(ctx, s.pool)
	var value int64
	err := q.QueryRow(ctx, `INSERT INTO counters (name, value) VALUES ($1, 1)
ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
RETURNING value`, name).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("sequence %s: %w", name, err)
	}
	return value, nil
}
