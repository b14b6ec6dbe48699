package local

import (
	"context"
	"sort"
	"time"

	"depo-backend/internal/models"
	"depo-backend/internal/store"
)

func (b *Backend) InsertLoginLog(ctx context.Context, l *models.LoginLog) error {
	return mutate(b, keyLoginLogs, func(items []models.LoginLog) ([]models.LoginLog, error) {
		var maxID int64
		for _, it := range items {
			if it.ID > maxID {
				maxID = it.ID
			}
		}
		l.ID = maxID + 1
		return append(items, *l), nil
	})
}

func (b *Backend) ListLoginLogs(ctx context.Context, f models.LoginLogFilter) ([]*models.LoginLog, error) {
	items, err := load[models.LoginLog](b, keyLoginLogs)
	if err != nil {
		return nil, err
	}
	out := make([]*models.LoginLog, 0, len(items))
	for i := range items {
		l := &items[i]
		if f.Action != "" && l.Action != f.Action {
			continue
		}
		if f.Username != "" && l.Username != f.Username {
			continue
		}
		if !f.Since.IsZero() && l.CreatedAt.Before(f.Since) {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (b *Backend) LoginStatsSince(ctx context.Context, since time.Time) (*models.LoginStats, error) {
	items, err := load[models.LoginLog](b, keyLoginLogs)
	if err != nil {
		return nil, err
	}
	stats := &models.LoginStats{}
	users := make(map[string]struct{})
	for _, l := range items {
		if l.CreatedAt.Before(since) {
			continue
		}
		switch l.Action {
		case models.ActionLogin:
			stats.TotalLogins24h++
			users[l.Username] = struct{}{}
		case models.ActionFailedLogin:
			stats.FailedLogins24h++
		}
	}
	stats.UniqueUsers24h = len(users)
	return stats, nil
}

func (b *Backend) DeleteLoginLogsBefore(ctx context.Context, before time.Time) (int64, error) {
	var removed int64
	err := mutate(b, keyLoginLogs, func(items []models.LoginLog) ([]models.LoginLog, error) {
		kept := items[:0]
		for _, l := range items {
			if l.CreatedAt.Before(before) {
				removed++
				continue
			}
			kept = append(kept, l)
		}
		return kept, nil
	})
	return removed, err
}

func (b *Backend) UpsertSession(ctx context.Context, s *models.ActiveSession) error {
	return mutate(b, keySessions, func(items []models.ActiveSession) ([]models.ActiveSession, error) {
		for i := range items {
			if items[i].UserID == s.UserID {
				s.CreatedAt = items[i].CreatedAt
				items[i] = *s
				return items, nil
			}
		}
		return append(items, *s), nil
	})
}

func (b *Backend) TouchSession(ctx context.Context, userID int64, at time.Time, page, action *string) error {
	return mutate(b, keySessions, func(items []models.ActiveSession) ([]models.ActiveSession, error) {
		for i := range items {
			if items[i].UserID == userID {
				items[i].LastActivity = at
				if page != nil {
					items[i].CurrentPage = page
				}
				if action != nil {
					items[i].CurrentAction = action
				}
				return items, nil
			}
		}
		return nil, store.ErrNotFound
	})
}

func (b *Backend) DeleteSession(ctx context.Context, userID int64) error {
	return mutate(b, keySessions, func(items []models.ActiveSession) ([]models.ActiveSession, error) {
		for i := range items {
			if items[i].UserID == userID {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return items, nil
	})
}

func (b *Backend) ListSessionsSince(ctx context.Context, since time.Time) ([]*models.ActiveSession, error) {
	items, err := load[models.ActiveSession](b, keySessions)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ActiveSession, 0, len(items))
	for i := range items {
		if !items[i].LastActivity.Before(since) {
			out = append(out, &items[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out, nil
}

func (b *Backend) DeleteSessionsBefore(ctx context.Context, before time.Time) (int64, error) {
	var removed int64
	err := mutate(b, keySessions, func(items []models.ActiveSession) ([]models.ActiveSession, error) {
		kept := items[:0]
		for _, s := range items {
			if s.LastActivity.Before(before) {
				removed++
				continue
			}
			kept = append(kept, s)
		}
		return kept, nil
	})
	return removed, err
}
