package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type windowKey struct {
	from, to time.Time
}

type memoryRepo struct {
	overviews    map[windowKey]Overview
	overviewHits int
	customers    []TopEntry
	products     []TopEntry
}

func (m *memoryRepo) Overview(_ context.Context, from, to time.Time) (Overview, error) {
	m.overviewHits++
	return m.overviews[windowKey{from, to}], nil
}

func (m *memoryRepo) TopCustomers(_ context.Context, _, _ time.Time, limit int) ([]TopEntry, error) {
	if limit < len(m.customers) {
		return m.customers[:limit], nil
	}
	return m.customers, nil
}

func (m *memoryRepo) TopAgents(_ context.Context, _, _ time.Time, _ int) ([]TopEntry, error) {
	return nil, nil
}

func (m *memoryRepo) TopProducts(_ context.Context, _, _ time.Time, limit int) ([]TopEntry, error) {
	if limit < len(m.products) {
		return m.products[:limit], nil
	}
	return m.products, nil
}

func testCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestOverviewAppliesProfitHeuristic(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	repo := &memoryRepo{overviews: map[windowKey]Overview{
		{from, to}: {OrderCount: 4, Revenue: 10_000_000, Debt: 2_000_000, CompletedRevenue: 6_000_000},
	}}
	service := NewService(repo, testCache(t))

	out, err := service.Overview(context.Background(), from, to)
	require.NoError(t, err)
	require.InDelta(t, 1_800_000.0, out.EstimatedProfit, 1e-6)
	require.EqualValues(t, 4, out.OrderCount)
}

func TestOverviewCachesResult(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	repo := &memoryRepo{overviews: map[windowKey]Overview{
		{from, to}: {OrderCount: 1, Revenue: 500},
	}}
	service := NewService(repo, testCache(t))

	for i := 0; i < 3; i++ {
		_, err := service.Overview(context.Background(), from, to)
		require.NoError(t, err)
	}
	require.Equal(t, 1, repo.overviewHits)

	require.NoError(t, service.Invalidate(context.Background()))
	_, err := service.Overview(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 2, repo.overviewHits)
}

func TestComparePeriodsExplicitRange(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	prevFrom := time.Date(2025, 2, 19, 0, 0, 0, 0, time.UTC)
	repo := &memoryRepo{overviews: map[windowKey]Overview{
		{from, to}:       {OrderCount: 6, Revenue: 3000},
		{prevFrom, from}: {OrderCount: 4, Revenue: 2000},
	}}
	service := NewService(repo, testCache(t))

	out, err := service.ComparePeriods(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, prevFrom, out.PreviousFrom)
	require.Equal(t, from, out.PreviousTo)
	require.InDelta(t, 50.0, out.OrderChange, 1e-9)
	require.InDelta(t, 50.0, out.RevenueChange, 1e-9)
}

func TestComparePeriodsDefaultsToVietnamMonths(t *testing.T) {
	// 2025-03-05 10:00 UTC is 17:00 in Vietnam, inside March.
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	marFrom := time.Date(2025, 2, 28, 17, 0, 0, 0, time.UTC)
	marTo := time.Date(2025, 3, 31, 17, 0, 0, 0, time.UTC)
	febFrom := time.Date(2025, 1, 31, 17, 0, 0, 0, time.UTC)
	repo := &memoryRepo{overviews: map[windowKey]Overview{
		{marFrom, marTo}:   {OrderCount: 2, Revenue: 900},
		{febFrom, marFrom}: {OrderCount: 0, Revenue: 0},
	}}
	service := NewService(repo, testCache(t))
	service.now = func() time.Time { return now }

	out, err := service.ComparePeriods(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, marFrom, out.CurrentFrom)
	require.Equal(t, marTo, out.CurrentTo)
	require.Equal(t, febFrom, out.PreviousFrom)
	require.Equal(t, marFrom, out.PreviousTo)
	// Growth from a zero base pins to 100%.
	require.InDelta(t, 100.0, out.OrderChange, 1e-9)
	require.InDelta(t, 100.0, out.RevenueChange, 1e-9)
}

func TestPctChange(t *testing.T) {
	require.InDelta(t, 0.0, pctChange(0, 0), 1e-9)
	require.InDelta(t, 100.0, pctChange(0, 5), 1e-9)
	require.InDelta(t, -50.0, pctChange(200, 100), 1e-9)
}

func TestTopRankingsRespectLimit(t *testing.T) {
	repo := &memoryRepo{
		customers: []TopEntry{{ID: 1, Revenue: 900}, {ID: 2, Revenue: 500}, {ID: 3, Revenue: 100}},
		products:  []TopEntry{{ID: 1, Quantity: 20}, {ID: 2, Quantity: 3}},
	}
	service := NewService(repo, testCache(t))
	from := time.Now().Add(-24 * time.Hour)
	to := time.Now()

	top, err := service.TopCustomers(context.Background(), from, to, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.EqualValues(t, 1, top[0].ID)

	all, err := service.TopProducts(context.Background(), from, to, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
