package partners

import (
	"context"
	"fmt"

	"github.com/stampdesk/stampdesk/internal/shared"
)

// Service coordinates agent and customer operations, including resolution of
// the order party.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ResolveInput identifies the wanted customer on order creation. At most one
// of CustomerID / CustomerName is honoured, in that order; with neither set
// the walk-in default is used.
type ResolveInput struct {
	CustomerID   *int64
	CustomerName string
	AgentID      *int64
}

// ResolveCustomer applies the order-creation rules: an explicit id wins; a
// free-text name creates a fresh customer under the supplied or default
// agent; otherwise the singleton walk-in customer is returned.
func (s *Service) ResolveCustomer(ctx context.Context, input ResolveInput) (Customer, error) {
	if input.CustomerID != nil {
		return s.repo.GetCustomer(ctx, *input.CustomerID)
	}

	if input.CustomerName != "" {
		agent, err := s.resolveAgent(ctx, input.AgentID)
		if err != nil {
			return Customer{}, err
		}
		return s.repo.CreateCustomer(ctx, Customer{
			Name:      input.CustomerName,
			AgentID:   &agent.ID,
			AgentName: agent.Name,
		})
	}

	agent, err := s.repo.EnsureDefaultAgent(ctx)
	if err != nil {
		return Customer{}, err
	}
	return s.repo.EnsureDefaultCustomer(ctx, agent)
}

// EnsureDefaults seeds the singleton walk-in agent and customer. Safe to
// call on every startup.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	agent, err := s.repo.EnsureDefaultAgent(ctx)
	if err != nil {
		return fmt.Errorf("default agent: %w", err)
	}
	if _, err := s.repo.EnsureDefaultCustomer(ctx, agent); err != nil {
		return fmt.Errorf("default customer: %w", err)
	}
	return nil
}

func (s *Service) resolveAgent(ctx context.Context, agentID *int64) (Agent, error) {
	if agentID != nil {
		return s.repo.GetAgent(ctx, *agentID)
	}
	return s.repo.EnsureDefaultAgent(ctx)
}

// CreateAgent registers a resale partner.
func (s *Service) CreateAgent(ctx context.Context, agent Agent) (Agent, error) {
	if agent.Name == "" {
		return Agent{}, fmt.Errorf("%w: agent name required", shared.ErrValidation)
	}
	return s.repo.CreateAgent(ctx, agent)
}

// GetAgent loads an agent by id.
func (s *Service) GetAgent(ctx context.Context, id int64) (Agent, error) {
	return s.repo.GetAgent(ctx, id)
}

// ListAgents returns a paginated agent listing.
func (s *Service) ListAgents(ctx context.Context, search string, page, perPage int) ([]Agent, shared.Pagination, error) {
	agents, total, err := s.repo.ListAgents(ctx, search, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return agents, shared.NewPagination(page, perPage, total), nil
}

// UpdateAgent updates agent contact fields.
func (s *Service) UpdateAgent(ctx context.Context, agent Agent) (Agent, error) {
	existing, err := s.repo.GetAgent(ctx, agent.ID)
	if err != nil {
		return Agent{}, err
	}
	if existing.IsDefault && agent.Name != existing.Name {
		return Agent{}, fmt.Errorf("%w: the default retail agent cannot be renamed", shared.ErrInvalidState)
	}
	if err := s.repo.UpdateAgent(ctx, agent); err != nil {
		return Agent{}, err
	}
	return s.repo.GetAgent(ctx, agent.ID)
}

// CreateCustomer registers a customer, snapshotting the agent display name.
func (s *Service) CreateCustomer(ctx context.Context, customer Customer) (Customer, error) {
	if customer.Name == "" {
		return Customer{}, fmt.Errorf("%w: customer name required", shared.ErrValidation)
	}
	if customer.AgentID != nil {
		agent, err := s.repo.GetAgent(ctx, *customer.AgentID)
		if err != nil {
			return Customer{}, err
		}
		customer.AgentName = agent.Name
	}
	return s.repo.CreateCustomer(ctx, customer)
}

// GetCustomer loads a customer by id.
func (s *Service) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

// ListCustomers returns a paginated customer listing.
func (s *Service) ListCustomers(ctx context.Context, search string, page, perPage int) ([]Customer, shared.Pagination, error) {
	customers, total, err := s.repo.ListCustomers(ctx, search, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return customers, shared.NewPagination(page, perPage, total), nil
}

// UpdateCustomer updates customer contact fields, refreshing the agent
// snapshot when the agent link changes.
func (s *Service) UpdateCustomer(ctx context.Context, customer Customer) (Customer, error) {
	existing, err := s.repo.GetCustomer(ctx, customer.ID)
	if err != nil {
		return Customer{}, err
	}
	if existing.IsDefault && customer.Name != existing.Name {
		return Customer{}, fmt.Errorf("%w: the walk-in customer cannot be renamed", shared.ErrInvalidState)
	}
	if customer.AgentID != nil {
		agent, err := s.repo.GetAgent(ctx, *customer.AgentID)
		if err != nil {
			return Customer{}, err
		}
		customer.AgentName = agent.Name
	} else {
		customer.AgentName = ""
	}
	if err := s.repo.UpdateCustomer(ctx, customer); err != nil {
		return Customer{}, err
	}
	return s.repo.GetCustomer(ctx, customer.ID)
}
