package postgres

import (
	"context"

	"depo-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const userSelect = `SELECT u.id, u.username, u.name, u.password_hash, u.role, u.department_id,
	COALESCE(d.name, ''), u.is_active, u.created_at
	FROM users u LEFT JOIN departments d ON d.id = u.department_id`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash, &u.Role,
		&u.DepartmentID, &u.DepartmentName, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (b *Backend) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := b.DB.Query(ctx, userSelect+` ORDER BY u.created_at DESC`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (b *Backend) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(b.DB.QueryRow(ctx, userSelect+` WHERE u.id = $1`, id))
}

func (b *Backend) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(b.DB.QueryRow(ctx, userSelect+` WHERE u.username = $1`, username))
}

func (b *Backend) InsertUser(ctx context.Context, u *models.User) error {
	err := b.DB.QueryRow(ctx,
		`INSERT INTO users (username, name, password_hash, role, department_id, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		u.Username, u.Name, u.PasswordHash, u.Role, u.DepartmentID, u.IsActive, u.CreatedAt,
	).Scan(&u.ID)
	return mapErr(err)
}

// UpdateUser keeps the stored password hash when u.PasswordHash is empty.
func (b *Backend) UpdateUser(ctx context.Context, u *models.User) error {
	return expectRow(b.DB.Exec(ctx,
		`UPDATE users SET name = $1, role = $2, department_id = $3, is_active = $4,
			password_hash = COALESCE(NULLIF($5, ''), password_hash)
		 WHERE id = $6`,
		u.Name, u.Role, u.DepartmentID, u.IsActive, u.PasswordHash, u.ID))
}

func (b *Backend) DeleteUser(ctx context.Context, id int64) error {
	return expectRow(b.DB.Exec(ctx, `DELETE FROM users WHERE id = $1`, id))
}

func (b *Backend) ListDepartments(ctx context.Context) ([]*models.Department, error) {
	rows, err := b.DB.Query(ctx, `SELECT id, name, created_at FROM departments ORDER BY name`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var depts []*models.Department
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		depts = append(depts, &d)
	}
	return depts, rows.Err()
}

func (b *Backend) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	var d models.Department
	err := b.DB.QueryRow(ctx, `SELECT id, name, created_at FROM departments WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

func (b *Backend) InsertDepartment(ctx context.Context, d *models.Department) error {
	return mapErr(b.DB.QueryRow(ctx,
		`INSERT INTO departments (name) VALUES ($1) RETURNING id, created_at`, d.Name,
	).Scan(&d.ID, &d.CreatedAt))
}
