package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stampdesk/stampdesk/internal/shared"
)

// profitMargin is the flat estimated-profit percentage applied to completed
// revenue. A deliberate heuristic, not a cost-basis figure.
const profitMargin = 0.30

// RepositoryPort abstracts the aggregation queries.
type RepositoryPort interface {
	Overview(ctx context.Context, from, to time.Time) (Overview, error)
	TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]TopEntry, error)
	TopAgents(ctx context.Context, from, to time.Time, limit int) ([]TopEntry, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopEntry, error)
}

// Service computes read-side statistics over active orders.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	now   func() time.Time
}

// NewService constructs Service. cache may be nil.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// Overview aggregates the window [from, to) and applies the profit
// heuristic. Results are cached under the current cache version.
func (s *Service) Overview(ctx context.Context, from, to time.Time) (Overview, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "overview",
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return Overview{}, err
	}

	var out Overview
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		o, err := s.repo.Overview(ctx, from, to)
		if err != nil {
			return nil, err
		}
		o.EstimatedProfit = o.CompletedRevenue * profitMargin
		return o, nil
	})
	return out, err
}

// ComparePeriods compares a window against the immediately preceding window
// of the same length. Zero from/to default to the current Vietnam calendar
// month against the previous one. The two windows are queried concurrently.
func (s *Service) ComparePeriods(ctx context.Context, from, to time.Time) (PeriodComparison, error) {
	var prevFrom, prevTo time.Time
	if from.IsZero() || to.IsZero() {
		from, to = shared.VietnamMonthBounds(s.now())
		prevFrom, prevTo = shared.VietnamMonthBounds(from.Add(-time.Hour))
	} else {
		if !to.After(from) {
			return PeriodComparison{}, fmt.Errorf("%w: empty period", shared.ErrValidation)
		}
		span := to.Sub(from)
		prevFrom, prevTo = from.Add(-span), from
	}

	var current, previous Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.Overview(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = s.Overview(gctx, prevFrom, prevTo)
		return err
	})
	if err := g.Wait(); err != nil {
		return PeriodComparison{}, err
	}

	return PeriodComparison{
		CurrentFrom:   from,
		CurrentTo:     to,
		PreviousFrom:  prevFrom,
		PreviousTo:    prevTo,
		Current:       current,
		Previous:      previous,
		OrderChange:   pctChange(float64(previous.OrderCount), float64(current.OrderCount)),
		RevenueChange: pctChange(previous.Revenue, current.Revenue),
	}, nil
}

// TopCustomers ranks customers by revenue in the window.
func (s *Service) TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]TopEntry, error) {
	return s.repo.TopCustomers(ctx, from, to, clampLimit(limit))
}

// TopAgents ranks agents by revenue in the window.
func (s *Service) TopAgents(ctx context.Context, from, to time.Time, limit int) ([]TopEntry, error) {
	return s.repo.TopAgents(ctx, from, to, clampLimit(limit))
}

// TopProducts ranks products by line revenue in the window.
func (s *Service) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopEntry, error) {
	return s.repo.TopProducts(ctx, from, to, clampLimit(limit))
}

// Invalidate bumps the cache version after order mutations.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// pctChange is (cur-prev)/prev*100, pinned to 100 when growing from zero
// and 0 when both are zero.
func pctChange(prev, cur float64) float64 {
	if prev == 0 {
		if cur > 0 {
			return 100
		}
		return 0
	}
	return (cur - prev) / prev * 100
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 5
	}
	if limit > 100 {
		return 100
	}
	return limit
}
