package partners

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stampdesk/stampdesk/internal/shared"
)

type memoryRepo struct {
	nextAgentID    int64
	nextCustomerID int64
	agents         map[int64]*Agent
	customers      map[int64]*Customer
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		nextAgentID:    1,
		nextCustomerID: 1,
		agents:         map[int64]*Agent{},
		customers:      map[int64]*Customer{},
	}
}

func (m *memoryRepo) CreateAgent(_ context.Context, agent Agent) (Agent, error) {
	agent.ID = m.nextAgentID
	agent.CreatedAt = time.Now()
	agent.UpdatedAt = agent.CreatedAt
	m.nextAgentID++
	m.agents[agent.ID] = &agent
	return agent, nil
}

func (m *memoryRepo) GetAgent(_ context.Context, id int64) (Agent, error) {
	a, ok := m.agents[id]
	if !ok {
		return Agent{}, shared.ErrNotFound
	}
	return *a, nil
}

func (m *memoryRepo) ListAgents(_ context.Context, search string, _, _ int) ([]Agent, int, error) {
	var out []Agent
	for _, a := range m.agents {
		if search == "" || strings.Contains(a.Name, search) {
			out = append(out, *a)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) UpdateAgent(_ context.Context, agent Agent) error {
	existing, ok := m.agents[agent.ID]
	if !ok {
		return shared.ErrNotFound
	}
	existing.Name = agent.Name
	existing.Phone = agent.Phone
	existing.Email = agent.Email
	existing.Address = agent.Address
	return nil
}

func (m *memoryRepo) EnsureDefaultAgent(_ context.Context) (Agent, error) {
	for _, a := range m.agents {
		if a.IsDefault {
			return *a, nil
		}
	}
	return m.CreateAgent(context.Background(), Agent{Name: DefaultAgentName, IsDefault: true})
}

func (m *memoryRepo) CreateCustomer(_ context.Context, customer Customer) (Customer, error) {
	customer.ID = m.nextCustomerID
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt
	m.nextCustomerID++
	m.customers[customer.ID] = &customer
	return customer, nil
}

func (m *memoryRepo) GetCustomer(_ context.Context, id int64) (Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return Customer{}, shared.ErrNotFound
	}
	return *c, nil
}

func (m *memoryRepo) ListCustomers(_ context.Context, search string, _, _ int) ([]Customer, int, error) {
	var out []Customer
	for _, c := range m.customers {
		if search == "" || strings.Contains(c.Name, search) {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) UpdateCustomer(_ context.Context, customer Customer) error {
	existing, ok := m.customers[customer.ID]
	if !ok {
		return shared.ErrNotFound
	}
	*existing = customer
	return nil
}

func (m *memoryRepo) EnsureDefaultCustomer(_ context.Context, agent Agent) (Customer, error) {
	for _, c := range m.customers {
		if c.IsDefault {
			return *c, nil
		}
	}
	return m.CreateCustomer(context.Background(), Customer{
		Name:      DefaultCustomerName,
		AgentID:   &agent.ID,
		AgentName: agent.Name,
		IsDefault: true,
	})
}

func TestResolveCustomerExplicitIDWins(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.CreateCustomer(ctx, Customer{Name: "Công ty ABC"})
	require.NoError(t, err)

	got, err := svc.ResolveCustomer(ctx, ResolveInput{CustomerID: &created.ID, CustomerName: "bị bỏ qua"})
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "Công ty ABC", got.Name)
}

func TestResolveCustomerUnknownID(t *testing.T) {
	svc := NewService(newMemoryRepo())

	missing := int64(42)
	_, err := svc.ResolveCustomer(context.Background(), ResolveInput{CustomerID: &missing})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResolveCustomerByNameCreatesUnderDefaultAgent(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	got, err := svc.ResolveCustomer(context.Background(), ResolveInput{CustomerName: "Chị Hoa"})
	require.NoError(t, err)
	require.Equal(t, "Chị Hoa", got.Name)
	require.Equal(t, DefaultAgentName, got.AgentName)
	require.False(t, got.IsDefault)
}

func TestResolveCustomerByNameUsesGivenAgent(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	agent, err := svc.CreateAgent(ctx, Agent{Name: "Đại lý Quận 1"})
	require.NoError(t, err)

	got, err := svc.ResolveCustomer(ctx, ResolveInput{CustomerName: "Anh Minh", AgentID: &agent.ID})
	require.NoError(t, err)
	require.Equal(t, "Đại lý Quận 1", got.AgentName)
	require.Equal(t, agent.ID, *got.AgentID)
}

func TestResolveCustomerDefaultsToWalkIn(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.ResolveCustomer(ctx, ResolveInput{})
	require.NoError(t, err)
	require.Equal(t, DefaultCustomerName, first.Name)
	require.True(t, first.IsDefault)

	second, err := svc.ResolveCustomer(ctx, ResolveInput{})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "walk-in customer is a singleton")
}

func TestEnsureDefaultsIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaults(ctx))
	require.NoError(t, svc.EnsureDefaults(ctx))
	require.Len(t, repo.agents, 1)
	require.Len(t, repo.customers, 1)
}

func TestDefaultAgentCannotBeRenamed(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaults(ctx))
	agent, err := repo.EnsureDefaultAgent(ctx)
	require.NoError(t, err)

	_, err = svc.UpdateAgent(ctx, Agent{ID: agent.ID, Name: "Tên mới"})
	require.ErrorIs(t, err, shared.ErrInvalidState)

	updated, err := svc.UpdateAgent(ctx, Agent{ID: agent.ID, Name: agent.Name, Phone: "0901234567"})
	require.NoError(t, err)
	require.Equal(t, "0901234567", updated.Phone)
}

func TestCreateCustomerSnapshotsAgentName(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	agent, err := svc.CreateAgent(ctx, Agent{Name: "Đại lý Thủ Đức"})
	require.NoError(t, err)

	customer, err := svc.CreateCustomer(ctx, Customer{Name: "Cô Lan", AgentID: &agent.ID})
	require.NoError(t, err)
	require.Equal(t, "Đại lý Thủ Đức", customer.AgentName)

	require.NoError(t, repo.UpdateAgent(ctx, Agent{ID: agent.ID, Name: "Đổi tên"}))
	got, err := svc.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	require.Equal(t, "Đại lý Thủ Đức", got.AgentName, "snapshot survives agent rename")
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateAgent(ctx, Agent{})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateCustomer(ctx, Customer{})
	require.ErrorIs(t, err, shared.ErrValidation)
}
