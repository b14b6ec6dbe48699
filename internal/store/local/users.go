package local

import (
	"context"
	"errors"
	"sort"

	"depo-backend/internal/models"
	"depo-backend/internal/store"
)

// withDepartment fills the denormalised department name the remote gets from a join.
func (b *Backend) withDepartment(users ...*models.User) error {
	depts, err := load[models.Department](b, keyDepartments)
	if err != nil {
		return err
	}
	names := make(map[int64]string, len(depts))
	for _, d := range depts {
		names[d.ID] = d.Name
	}
	for _, u := range users {
		if u.DepartmentID != nil {
			u.DepartmentName = names[*u.DepartmentID]
		}
	}
	return nil
}

// userRecord is the stored form of a user. models.User keeps the password
// hash out of JSON, so it is carried in its own field here.
type userRecord struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

func newUserRecord(u *models.User) userRecord {
	rec := userRecord{User: *u, PasswordHash: u.PasswordHash}
	rec.User.DepartmentName = ""
	return rec
}

func (r *userRecord) user() *models.User {
	u := r.User
	u.PasswordHash = r.PasswordHash
	return &u
}

func (b *Backend) ListUsers(ctx context.Context) ([]*models.User, error) {
	items, err := load[userRecord](b, keyUsers)
	if err != nil {
		return nil, err
	}
	out := make([]*models.User, 0, len(items))
	for i := range items {
		out = append(out, items[i].user())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, b.withDepartment(out...)
}

func (b *Backend) findUser(match func(*models.User) bool) (*models.User, error) {
	items, err := load[userRecord](b, keyUsers)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if u := items[i].user(); match(u) {
			return u, b.withDepartment(u)
		}
	}
	return nil, store.ErrNotFound
}

func (b *Backend) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return b.findUser(func(u *models.User) bool { return u.ID == id })
}

func (b *Backend) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return b.findUser(func(u *models.User) bool { return u.Username == username })
}

func (b *Backend) InsertUser(ctx context.Context, u *models.User) error {
	return mutate(b, keyUsers, func(items []userRecord) ([]userRecord, error) {
		var maxID int64
		for _, it := range items {
			if it.Username == u.Username {
				return nil, store.ErrConflict
			}
			if it.ID > maxID {
				maxID = it.ID
			}
		}
		u.ID = maxID + 1
		return append(items, newUserRecord(u)), nil
	})
}

func (b *Backend) UpdateUser(ctx context.Context, u *models.User) error {
	return mutate(b, keyUsers, func(items []userRecord) ([]userRecord, error) {
		for i := range items {
			if items[i].ID == u.ID {
				items[i].Name = u.Name
				items[i].Role = u.Role
				items[i].DepartmentID = u.DepartmentID
				items[i].IsActive = u.IsActive
				if u.PasswordHash != "" {
					items[i].PasswordHash = u.PasswordHash
				}
				return items, nil
			}
		}
		return nil, store.ErrNotFound
	})
}

func (b *Backend) DeleteUser(ctx context.Context, id int64) error {
	return mutate(b, keyUsers, func(items []userRecord) ([]userRecord, error) {
		for i := range items {
			if items[i].ID == id {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, store.ErrNotFound
	})
}

func sameUser(a, b userRecord) bool {
	sameDept := (a.DepartmentID == nil && b.DepartmentID == nil) ||
		(a.DepartmentID != nil && b.DepartmentID != nil && *a.DepartmentID == *b.DepartmentID)
	return sameDept && a.ID == b.ID && a.Username == b.Username && a.Name == b.Name &&
		a.PasswordHash == b.PasswordHash && a.Role == b.Role &&
		a.IsActive == b.IsActive && a.CreatedAt.Equal(b.CreatedAt)
}

// PutUser stores a copy of a remote user under the remote's ID, replacing any
// row with the same ID or username. An identical copy is left untouched so
// the per-request token check does not rewrite the collection.
func (b *Backend) PutUser(ctx context.Context, u *models.User) error {
	rec := newUserRecord(u)
	items, err := load[userRecord](b, keyUsers)
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.ID == rec.ID && sameUser(it, rec) {
			return nil
		}
	}
	return mutate(b, keyUsers, func(items []userRecord) ([]userRecord, error) {
		kept := items[:0]
		for _, it := range items {
			if it.ID != rec.ID && it.Username != rec.Username {
				kept = append(kept, it)
			}
		}
		return append(kept, rec), nil
	})
}

// DropUser removes the local copy of a user; a missing row is not an error.
func (b *Backend) DropUser(ctx context.Context, id int64) error {
	if err := b.DeleteUser(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

func (b *Backend) ListDepartments(ctx context.Context) ([]*models.Department, error) {
	items, err := load[models.Department](b, keyDepartments)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Department, 0, len(items))
	for i := range items {
		out = append(out, &items[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (b *Backend) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	items, err := load[models.Department](b, keyDepartments)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (b *Backend) InsertDepartment(ctx context.Context, d *models.Department) error {
	return mutate(b, keyDepartments, func(items []models.Department) ([]models.Department, error) {
		var maxID int64
		for _, it := range items {
			if it.Name == d.Name {
				return nil, store.ErrConflict
			}
			if it.ID > maxID {
				maxID = it.ID
			}
		}
		d.ID = maxID + 1
		return append(items, *d), nil
	})
}

// PutDepartment stores a copy of a remote department under the remote's ID.
func (b *Backend) PutDepartment(ctx context.Context, d *models.Department) error {
	items, err := load[models.Department](b, keyDepartments)
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.ID == d.ID && it.Name == d.Name && it.CreatedAt.Equal(d.CreatedAt) {
			return nil
		}
	}
	return mutate(b, keyDepartments, func(items []models.Department) ([]models.Department, error) {
		for i := range items {
			if items[i].ID == d.ID {
				items[i] = *d
				return items, nil
			}
		}
		kept := items[:0]
		for _, it := range items {
			if it.Name != d.Name {
				kept = append(kept, it)
			}
		}
		return append(kept, *d), nil
	})
}
