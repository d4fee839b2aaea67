package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stampdesk/stampdesk/internal/shared"
)

type memoryRepo struct {
	nextID int64
	users  map[int64]User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]User)}
}

func (m *memoryRepo) List(_ context.Context) ([]User, error) {
	var out []User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	return u, nil
}

func (m *memoryRepo) GetByUsername(_ context.Context, username string) (User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("%w: user %s", shared.ErrNotFound, username)
}

func (m *memoryRepo) Create(_ context.Context, user User) (User, error) {
	for _, u := range m.users {
		if u.Username == user.Username {
			return User{}, fmt.Errorf("%w: username %s already exists", shared.ErrConflict, user.Username)
		}
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryRepo) Update(_ context.Context, user User) (User, error) {
	if _, ok := m.users[user.ID]; !ok {
		return User{}, fmt.Errorf("%w: user %d", shared.ErrNotFound, user.ID)
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	delete(m.users, id)
	return nil
}

func (m *memoryRepo) CountAdmins(_ context.Context) (int, error) {
	n := 0
	for _, u := range m.users {
		if u.Role == shared.RoleAdmin && u.IsActive {
			n++
		}
	}
	return n, nil
}

func TestAuthenticate(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo)
	ctx := context.Background()

	created, err := service.Create(ctx, CreateInput{
		Username: "admin", Password: "s3cret-1", FullName: "Nguyễn Văn A", Role: shared.RoleAdmin,
	})
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-1", created.PasswordHash)

	user, err := service.Authenticate(ctx, "admin", "s3cret-1")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)

	_, err = service.Authenticate(ctx, "admin", "wrong")
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = service.Authenticate(ctx, "nobody", "s3cret-1")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo)
	ctx := context.Background()

	created, err := service.Create(ctx, CreateInput{
		Username: "lan", Password: "s3cret-1", FullName: "lan", Role: shared.RoleEmployee,
	})
	require.NoError(t, err)
	inactive := false
	// A second admin exists so deactivation rules do not interfere.
	_, err = service.Create(ctx, CreateInput{
		Username: "admin", Password: "s3cret-1", FullName: "admin", Role: shared.RoleAdmin,
	})
	require.NoError(t, err)
	_, err = service.Update(ctx, created.ID, UpdateInput{IsActive: &inactive})
	require.NoError(t, err)

	_, err = service.Authenticate(ctx, "lan", "s3cret-1")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestDuplicateUsernameConflicts(t *testing.T) {
	service := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := service.Create(ctx, CreateInput{Username: "lan", Password: "s3cret-1", FullName: "a", Role: shared.RoleEmployee})
	require.NoError(t, err)
	_, err = service.Create(ctx, CreateInput{Username: "lan", Password: "other-pw", FullName: "b", Role: shared.RoleEmployee})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestLastAdminProtection(t *testing.T) {
	service := NewService(newMemoryRepo())
	ctx := context.Background()

	admin, err := service.Create(ctx, CreateInput{Username: "admin", Password: "s3cret-1", FullName: "admin", Role: shared.RoleAdmin})
	require.NoError(t, err)

	err = service.Delete(ctx, admin.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)

	employeeRole := shared.RoleEmployee
	_, err = service.Update(ctx, admin.ID, UpdateInput{Role: &employeeRole})
	require.ErrorIs(t, err, shared.ErrForbidden)

	inactive := false
	_, err = service.Update(ctx, admin.ID, UpdateInput{IsActive: &inactive})
	require.ErrorIs(t, err, shared.ErrForbidden)

	second, err := service.Create(ctx, CreateInput{Username: "admin2", Password: "s3cret-1", FullName: "admin2", Role: shared.RoleAdmin})
	require.NoError(t, err)
	require.NoError(t, service.Delete(ctx, admin.ID))

	// Back down to one admin; the survivor is protected again.
	err = service.Delete(ctx, second.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdatePasswordChangesHash(t *testing.T) {
	service := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := service.Create(ctx, CreateInput{Username: "lan", Password: "first-pw", FullName: "lan", Role: shared.RoleEmployee})
	require.NoError(t, err)

	next := "second-pw"
	_, err = service.Update(ctx, created.ID, UpdateInput{Password: &next})
	require.NoError(t, err)

	_, err = service.Authenticate(ctx, "lan", "first-pw")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
	_, err = service.Authenticate(ctx, "lan", "second-pw")
	require.NoError(t, err)
}
