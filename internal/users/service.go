package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/stampdesk/stampdesk/internal/shared"
)

// RepositoryPort abstracts user persistence.
type RepositoryPort interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, user User) (User, error)
	Delete(ctx context.Context, id int64) error
	CountAdmins(ctx context.Context) (int, error)
}

// Service manages staff accounts and credential checks.
type Service struct {
	repo RepositoryPort
}

// NewService constructs Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateInput creates an account.
type CreateInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	FullName string `json:"full_name" validate:"required,max=200"`
	Role     string `json:"role" validate:"required,oneof=admin employee"`
}

// UpdateInput changes an account. Nil fields keep the stored values.
type UpdateInput struct {
	Password *string `json:"password,omitempty" validate:"omitempty,min=6,max=72"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=200"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=admin employee"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Authenticate checks username/password. Inactive accounts and bad
// credentials are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return User{}, fmt.Errorf("%w: invalid credentials", shared.ErrUnauthorized)
	}
	if !user.IsActive {
		return User{}, fmt.Errorf("%w: invalid credentials", shared.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, fmt.Errorf("%w: invalid credentials", shared.ErrUnauthorized)
	}
	return user, nil
}

// Create hashes the password and stores the account active.
func (s *Service) Create(ctx context.Context, input CreateInput) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.Create(ctx, User{
		Username:     input.Username,
		PasswordHash: string(hash),
		FullName:     input.FullName,
		Role:         input.Role,
		IsActive:     true,
	})
}

// Update applies partial changes. Demoting or deactivating the only active
// admin is forbidden so the system always keeps one.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}

	losesAdmin := user.Role == shared.RoleAdmin && user.IsActive &&
		((input.Role != nil && *input.Role != shared.RoleAdmin) ||
			(input.IsActive != nil && !*input.IsActive))
	if losesAdmin {
		admins, err := s.repo.CountAdmins(ctx)
		if err != nil {
			return User{}, err
		}
		if admins <= 1 {
			return User{}, fmt.Errorf("%w: cannot remove the last admin", shared.ErrForbidden)
		}
	}

	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	return s.repo.Update(ctx, user)
}

// Delete removes an account, refusing to delete the last active admin.
func (s *Service) Delete(ctx context.Context, id int64) error {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == shared.RoleAdmin && user.IsActive {
		admins, err := s.repo.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return fmt.Errorf("%w: cannot delete the last admin", shared.ErrForbidden)
		}
	}
	return s.repo.Delete(ctx, id)
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}
