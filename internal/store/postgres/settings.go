package postgres

import (
	"context"
	"errors"

	"depo-backend/internal/models"
	"depo-backend/internal/store"
)

// missingAsDefault lets a getter answer with the zero record before the row
// has ever been saved.
func missingAsDefault(err error) (bool, error) {
	err = mapErr(err)
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	return false, err
}

func (b *Backend) GetAnnouncement(ctx context.Context) (*models.Announcement, error) {
	a := models.Announcement{ID: models.SingletonID, Type: "info"}
	err := b.DB.QueryRow(ctx,
		`SELECT message, type, is_active, updated_at, updated_by FROM announcements WHERE id = $1`,
		models.SingletonID,
	).Scan(&a.Message, &a.Type, &a.IsActive, &a.UpdatedAt, &a.UpdatedBy)
	if missing, err := missingAsDefault(err); err != nil || missing {
		return &models.Announcement{ID: models.SingletonID, Type: "info"}, err
	}
	return &a, nil
}

func (b *Backend) SaveAnnouncement(ctx context.Context, a *models.Announcement) error {
	a.ID = models.SingletonID
	_, err := b.DB.Exec(ctx,
		`INSERT INTO announcements (id, message, type, is_active, updated_at, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET message = EXCLUDED.message, type = EXCLUDED.type,
			is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by`,
		a.ID, a.Message, a.Type, a.IsActive, a.UpdatedAt, a.UpdatedBy)
	return mapErr(err)
}

func (b *Backend) GetPopup(ctx context.Context) (*models.PopupAnnouncement, error) {
	p := models.PopupAnnouncement{ID: models.SingletonID}
	err := b.DB.QueryRow(ctx,
		`SELECT title, message, image_url, is_active, updated_at, updated_by
		 FROM popup_announcements WHERE id = $1`, models.SingletonID,
	).Scan(&p.Title, &p.Message, &p.ImageURL, &p.IsActive, &p.UpdatedAt, &p.UpdatedBy)
	if missing, err := missingAsDefault(err); err != nil || missing {
		return &models.PopupAnnouncement{ID: models.SingletonID}, err
	}
	return &p, nil
}

func (b *Backend) SavePopup(ctx context.Context, p *models.PopupAnnouncement) error {
	p.ID = models.SingletonID
	_, err := b.DB.Exec(ctx,
		`INSERT INTO popup_announcements (id, title, message, image_url, is_active, updated_at, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, message = EXCLUDED.message,
			image_url = EXCLUDED.image_url, is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by`,
		p.ID, p.Title, p.Message, p.ImageURL, p.IsActive, p.UpdatedAt, p.UpdatedBy)
	return mapErr(err)
}

func (b *Backend) GetBanSettings(ctx context.Context) (*models.BanSettings, error) {
	s := models.BanSettings{ID: models.SingletonID}
	err := b.DB.QueryRow(ctx,
		`SELECT is_active, title, message, banned_usernames, updated_at, updated_by
		 FROM ban_settings WHERE id = $1`, models.SingletonID,
	).Scan(&s.IsActive, &s.Title, &s.Message, &s.BannedUsernames, &s.UpdatedAt, &s.UpdatedBy)
	if missing, err := missingAsDefault(err); err != nil || missing {
		return &models.BanSettings{ID: models.SingletonID, BannedUsernames: []string{}}, err
	}
	return &s, nil
}

func (b *Backend) SaveBanSettings(ctx context.Context, s *models.BanSettings) error {
	s.ID = models.SingletonID
	names := s.BannedUsernames
	if names == nil {
		names = []string{}
	}
	_, err := b.DB.Exec(ctx,
		`INSERT INTO ban_settings (id, is_active, title, message, banned_usernames, updated_at, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET is_active = EXCLUDED.is_active, title = EXCLUDED.title,
			message = EXCLUDED.message, banned_usernames = EXCLUDED.banned_usernames,
			updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by`,
		s.ID, s.IsActive, s.Title, s.Message, names, s.UpdatedAt, s.UpdatedBy)
	return mapErr(err)
}

func (b *Backend) GetSiteLockdown(ctx context.Context) (*models.SiteLockdown, error) {
	l := models.SiteLockdown{ID: models.SingletonID}
	err := b.DB.QueryRow(ctx,
		`SELECT is_locked, message, updated_at, updated_by FROM site_lockdown WHERE id = $1`,
		models.SingletonID,
	).Scan(&l.IsLocked, &l.Message, &l.UpdatedAt, &l.UpdatedBy)
	if missing, err := missingAsDefault(err); err != nil || missing {
		return &models.SiteLockdown{ID: models.SingletonID}, err
	}
	return &l, nil
}

func (b *Backend) SaveSiteLockdown(ctx context.Context, l *models.SiteLockdown) error {
	l.ID = models.SingletonID
	_, err := b.DB.Exec(ctx,
		`INSERT INTO site_lockdown (id, is_locked, message, updated_at, updated_by)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET is_locked = EXCLUDED.is_locked, message = EXCLUDED.message,
			updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by`,
		l.ID, l.IsLocked, l.Message, l.UpdatedAt, l.UpdatedBy)
	return mapErr(err)
}
