// Package storetest provides backends for exercising store.Fallback.
package storetest

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"depo-backend/internal/models"
	"depo-backend/internal/store"
)

// ErrDown is what a Flaky backend returns while it is switched off. It is not
// authoritative, so a Fallback treats it as an outage.
var ErrDown = errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")

// Flaky forwards to a working backend until SetDown(true), after which every
// call fails with ErrDown until SetDown(false).
type Flaky struct {
	store.Backend
	down atomic.Bool
}

func NewFlaky(b store.Backend) *Flaky {
	return &Flaky{Backend: b}
}

func (f *Flaky) SetDown(down bool) { f.down.Store(down) }

func (f *Flaky) err() error {
	if f.down.Load() {
		return ErrDown
	}
	return nil
}

func (f *Flaky) Name() string { return "flaky" }

func (f *Flaky) Ping(ctx context.Context) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.Ping(ctx)
}

func (f *Flaky) ListBoxes(ctx context.Context, flt models.BoxFilter) ([]*models.Box, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.ListBoxes(ctx, flt)
}

func (f *Flaky) GetBox(ctx context.Context, code string) (*models.Box, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.GetBox(ctx, code)
}

func (f *Flaky) InsertBox(ctx context.Context, b *models.Box) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.InsertBox(ctx, b)
}

func (f *Flaky) UpdateBox(ctx context.Context, b *models.Box) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.UpdateBox(ctx, b)
}

func (f *Flaky) DeleteBox(ctx context.Context, code string) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.DeleteBox(ctx, code)
}

func (f *Flaky) SetBoxPallet(ctx context.Context, code string, palletID *int64) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.SetBoxPallet(ctx, code, palletID)
}

func (f *Flaky) SetBoxShipment(ctx context.Context, code string, direct bool, shipmentID *int64) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.SetBoxShipment(ctx, code, direct, shipmentID)
}

func (f *Flaky) ListPallets(ctx context.Context, flt models.PalletFilter) ([]*models.Pallet, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.ListPallets(ctx, flt)
}

func (f *Flaky) GetPallet(ctx context.Context, code string) (*models.Pallet, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.GetPallet(ctx, code)
}

func (f *Flaky) GetPalletByID(ctx context.Context, id int64) (*models.Pallet, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.GetPalletByID(ctx, id)
}

func (f *Flaky) InsertPallet(ctx context.Context, p *models.Pallet) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.InsertPallet(ctx, p)
}

func (f *Flaky) UpdatePallet(ctx context.Context, p *models.Pallet) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.UpdatePallet(ctx, p)
}

func (f *Flaky) DeletePallet(ctx context.Context, code string) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.DeletePallet(ctx, code)
}

func (f *Flaky) SetPalletShipment(ctx context.Context, code string, shipmentID *int64) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.SetPalletShipment(ctx, code, shipmentID)
}

func (f *Flaky) ListShipments(ctx context.Context, flt models.ShipmentFilter) ([]*models.Shipment, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.ListShipments(ctx, flt)
}

func (f *Flaky) GetShipment(ctx context.Context, code string) (*models.Shipment, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.GetShipment(ctx, code)
}

func (f *Flaky) GetShipmentByID(ctx context.Context, id int64) (*models.Shipment, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.GetShipmentByID(ctx, id)
}

func (f *Flaky) InsertShipment(ctx context.Context, s *models.Shipment) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.InsertShipment(ctx, s)
}

func (f *Flaky) UpdateShipment(ctx context.Context, s *models.Shipment) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.UpdateShipment(ctx, s)
}

func (f *Flaky) DeleteShipment(ctx context.Context, code string) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.DeleteShipment(ctx, code)
}

func (f *Flaky) InsertLoginLog(ctx context.Context, l *models.LoginLog) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.InsertLoginLog(ctx, l)
}

func (f *Flaky) ListLoginLogs(ctx context.Context, flt models.LoginLogFilter) ([]*models.LoginLog, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.ListLoginLogs(ctx, flt)
}

func (f *Flaky) LoginStatsSince(ctx context.Context, since time.Time) (*models.LoginStats, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.LoginStatsSince(ctx, since)
}

func (f *Flaky) DeleteLoginLogsBefore(ctx context.Context, before time.Time) (int64, error) {
	if err := f.err(); err != nil {
		return 0, err
	}
	return f.Backend.DeleteLoginLogsBefore(ctx, before)
}

func (f *Flaky) UpsertSession(ctx context.Context, s *models.ActiveSession) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.UpsertSession(ctx, s)
}

func (f *Flaky) TouchSession(ctx context.Context, userID int64, at time.Time, page, action *string) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.TouchSession(ctx, userID, at, page, action)
}

func (f *Flaky) DeleteSession(ctx context.Context, userID int64) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.DeleteSession(ctx, userID)
}

func (f *Flaky) ListSessionsSince(ctx context.Context, since time.Time) ([]*models.ActiveSession, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.ListSessionsSince(ctx, since)
}

func (f *Flaky) DeleteSessionsBefore(ctx context.Context, before time.Time) (int64, error) {
	if err := f.err(); err != nil {
		return 0, err
	}
	return f.Backend.DeleteSessionsBefore(ctx, before)
}

func (f *Flaky) ListUsers(ctx context.Context) ([]*models.User, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.ListUsers(ctx)
}

func (f *Flaky) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.GetUserByID(ctx, id)
}

func (f *Flaky) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.GetUserByUsername(ctx, username)
}

func (f *Flaky) InsertUser(ctx context.Context, u *models.User) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.InsertUser(ctx, u)
}

func (f *Flaky) UpdateUser(ctx context.Context, u *models.User) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.UpdateUser(ctx, u)
}

func (f *Flaky) DeleteUser(ctx context.Context, id int64) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.DeleteUser(ctx, id)
}

func (f *Flaky) ListDepartments(ctx context.Context) ([]*models.Department, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.ListDepartments(ctx)
}

func (f *Flaky) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.GetDepartment(ctx, id)
}

func (f *Flaky) InsertDepartment(ctx context.Context, d *models.Department) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.InsertDepartment(ctx, d)
}

func (f *Flaky) GetAnnouncement(ctx context.Context) (*models.Announcement, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.GetAnnouncement(ctx)
}

func (f *Flaky) SaveAnnouncement(ctx context.Context, a *models.Announcement) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.SaveAnnouncement(ctx, a)
}

func (f *Flaky) GetPopup(ctx context.Context) (*models.PopupAnnouncement, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.GetPopup(ctx)
}

func (f *Flaky) SavePopup(ctx context.Context, p *models.PopupAnnouncement) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.SavePopup(ctx, p)
}

func (f *Flaky) GetBanSettings(ctx context.Context) (*models.BanSettings, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.GetBanSettings(ctx)
}

func (f *Flaky) SaveBanSettings(ctx context.Context, b *models.BanSettings) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.SaveBanSettings(ctx, b)
}

func (f *Flaky) GetSiteLockdown(ctx context.Context) (*models.SiteLockdown, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Backend.GetSiteLockdown(ctx)
}

func (f *Flaky) SaveSiteLockdown(ctx context.Context, l *models.SiteLockdown) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Backend.SaveSiteLockdown(ctx, l)
}

func (f *Flaky) NextSequence(ctx context.Context, kind string) (int64, error) {
	if err := f.err(); err != nil {
		return 0, err
	}
	return f.Backend.NextSequence(ctx, kind)
}
