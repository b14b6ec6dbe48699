package repositories

import (
	"context"

	"depo-backend/internal/models"
	"depo-backend/internal/store"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

// LoginLogRepository serves the admin audit views. Writes go through the
// activity tracker.
type LoginLogRepository struct {
	Store store.ActivityStore
}

func NewLoginLogRepository(s store.ActivityStore) *LoginLogRepository {
	return &LoginLogRepository{Store: s}
}

// List returns logs newest first, capped at maxLogLimit rows.
func (r *LoginLogRepository) List(ctx context.Context, f models.LoginLogFilter) ([]*models.LoginLog, error) {
	switch {
	case f.Limit <= 0:
		f.Limit = defaultLogLimit
	case f.Limit > maxLogLimit:
		f.Limit = maxLogLimit
	}
	logs, err := r.Store.ListLoginLogs(ctx, f)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []*models.LoginLog{}
	}
	return logs, nil
}

// ListForUser returns the recent history of one username.
func (r *LoginLogRepository) ListForUser(ctx context.Context, username string, limit int) ([]*models.LoginLog, error) {
	return r.List(ctx, models.LoginLogFilter{Username: username, Limit: limit})
}
