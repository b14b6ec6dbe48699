package local

import (
	"context"

	"depo-backend/internal/models"
)

func getSingleton[T any](b *Backend, key string, def *T) (*T, error) {
	var v T
	found, err := getJSON(b, key, &v)
	if err != nil {
		return nil, err
	}
	if !found {
		return def, nil
	}
	return &v, nil
}

func (b *Backend) saveSingleton(key string, v any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return putJSON(b, key, v)
}

func (b *Backend) GetAnnouncement(ctx context.Context) (*models.Announcement, error) {
	return getSingleton(b, keyAnnouncement, &models.Announcement{ID: models.SingletonID, Type: "info"})
}

func (b *Backend) SaveAnnouncement(ctx context.Context, a *models.Announcement) error {
	a.ID = models.SingletonID
	return b.saveSingleton(keyAnnouncement, a)
}

func (b *Backend) GetPopup(ctx context.Context) (*models.PopupAnnouncement, error) {
	return getSingleton(b, keyPopup, &models.PopupAnnouncement{ID: models.SingletonID})
}

func (b *Backend) SavePopup(ctx context.Context, p *models.PopupAnnouncement) error {
	p.ID = models.SingletonID
	return b.saveSingleton(keyPopup, p)
}

func (b *Backend) GetBanSettings(ctx context.Context) (*models.BanSettings, error) {
	return getSingleton(b, keyBan, &models.BanSettings{ID: models.SingletonID, BannedUsernames: []string{}})
}

func (b *Backend) SaveBanSettings(ctx context.Context, s *models.BanSettings) error {
	s.ID = models.SingletonID
	return b.saveSingleton(keyBan, s)
}

func (b *Backend) GetSiteLockdown(ctx context.Context) (*models.SiteLockdown, error) {
	return getSingleton(b, keyLockdown, &models.SiteLockdown{ID: models.SingletonID})
}

func (b *Backend) SaveSiteLockdown(ctx context.Context, l *models.SiteLockdown) error {
	l.ID = models.SingletonID
	return b.saveSingleton(keyLockdown, l)
}
