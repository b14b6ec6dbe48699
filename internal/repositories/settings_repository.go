package repositories

import (
	"context"
	"fmt"
	"strings"

	"depo-backend/internal/models"
	"depo-backend/internal/store"
)

// SettingsRepository reads and writes the singleton rows. Reads are public;
// writes are admin only and stamp updated_at and updated_by.
type SettingsRepository struct {
	Store store.SettingsStore
	Clock Clock
}

func NewSettingsRepository(s store.SettingsStore) *SettingsRepository {
	return &SettingsRepository{Store: s}
}

func requireAdmin(actor models.Actor) error {
	if !actor.IsAdmin() {
		return store.ErrForbidden
	}
	return nil
}

func (r *SettingsRepository) Announcement(ctx context.Context) (*models.Announcement, error) {
	return r.Store.GetAnnouncement(ctx)
}

func (r *SettingsRepository) UpdateAnnouncement(ctx context.Context, actor models.Actor, a *models.Announcement) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if a.Type == "" {
		a.Type = "info"
	}
	if a.IsActive && strings.TrimSpace(a.Message) == "" {
		return fmt.Errorf("active announcement needs a message: %w", store.ErrInvalid)
	}
	a.UpdatedAt, a.UpdatedBy = r.Clock.now(), actor.Username
	return r.Store.SaveAnnouncement(ctx, a)
}

func (r *SettingsRepository) Popup(ctx context.Context) (*models.PopupAnnouncement, error) {
	return r.Store.GetPopup(ctx)
}

func (r *SettingsRepository) UpdatePopup(ctx context.Context, actor models.Actor, p *models.PopupAnnouncement) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	p.UpdatedAt, p.UpdatedBy = r.Clock.now(), actor.Username
	return r.Store.SavePopup(ctx, p)
}

func (r *SettingsRepository) BanSettings(ctx context.Context) (*models.BanSettings, error) {
	return r.Store.GetBanSettings(ctx)
}

// UpdateBanSettings trims and de-duplicates the username list. An admin
// cannot ban themselves out of the console.
func (r *SettingsRepository) UpdateBanSettings(ctx context.Context, actor models.Actor, s *models.BanSettings) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	seen := make(map[string]bool, len(s.BannedUsernames))
	names := make([]string, 0, len(s.BannedUsernames))
	for _, n := range s.BannedUsernames {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		if n == actor.Username {
			return fmt.Errorf("cannot ban yourself: %w", store.ErrInvalid)
		}
		seen[n] = true
		names = append(names, n)
	}
	s.BannedUsernames = names
	s.UpdatedAt, s.UpdatedBy = r.Clock.now(), actor.Username
	return r.Store.SaveBanSettings(ctx, s)
}

func (r *SettingsRepository) SiteLockdown(ctx context.Context) (*models.SiteLockdown, error) {
	return r.Store.GetSiteLockdown(ctx)
}

func (r *SettingsRepository) UpdateSiteLockdown(ctx context.Context, actor models.Actor, l *models.SiteLockdown) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	l.UpdatedAt, l.UpdatedBy = r.Clock.now(), actor.Username
	return r.Store.SaveSiteLockdown(ctx, l)
}
