package repositories

import (
	"context"
	"fmt"
	"strings"

	"depo-backend/internal/models"
	"depo-backend/internal/store"
)

type UserRepository struct {
	Store store.UserStore
	Clock Clock
}

func NewUserRepository(s store.UserStore) *UserRepository {
	return &UserRepository{Store: s}
}

// Create stores a user whose password is already hashed. Role defaults to user.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	u.Username = strings.TrimSpace(u.Username)
	u.Name = strings.TrimSpace(u.Name)
	if u.Username == "" || u.Name == "" || u.PasswordHash == "" {
		return fmt.Errorf("username, name and password are required: %w", store.ErrInvalid)
	}
	if u.Role == "" {
		u.Role = models.RoleUser // Default role
	}
	if u.Role != models.RoleUser && u.Role != models.RoleAdmin {
		return fmt.Errorf("role %q: %w", u.Role, store.ErrInvalid)
	}
	u.IsActive = true
	u.CreatedAt = r.Clock.now()
	return r.Store.InsertUser(ctx, u)
}

func (r *UserRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	return r.Store.GetUserByID(ctx, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.Store.GetUserByUsername(ctx, strings.TrimSpace(username))
}

// List returns all users, newest first
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	return r.Store.ListUsers(ctx)
}

// Update writes name, role, department and active flag. An empty
// PasswordHash keeps the current password.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("name is required: %w", store.ErrInvalid)
	}
	return r.Store.UpdateUser(ctx, u)
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.Store.DeleteUser(ctx, id)
}

type DepartmentRepository struct {
	Store store.UserStore
	Clock Clock
}

func NewDepartmentRepository(s store.UserStore) *DepartmentRepository {
	return &DepartmentRepository{Store: s}
}

func (r *DepartmentRepository) List(ctx context.Context) ([]*models.Department, error) {
	return r.Store.ListDepartments(ctx)
}

func (r *DepartmentRepository) Get(ctx context.Context, id int64) (*models.Department, error) {
	return r.Store.GetDepartment(ctx, id)
}

func (r *DepartmentRepository) Create(ctx context.Context, name string) (*models.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("department name is required: %w", store.ErrInvalid)
	}
	d := &models.Department{Name: name, CreatedAt: r.Clock.now()}
	if err := r.Store.InsertDepartment(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}
