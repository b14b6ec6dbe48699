package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"depo-backend/internal/metrics"
	"depo-backend/internal/models"

	"github.com/sirupsen/logrus"
)

// Fallback is a Backend that serves every call from remote and re-runs it on
// local when remote fails. Writes that must not silently diverge (user
// accounts, ban settings) go to remote only and surface its error.
//
// After a remote failure the remote is skipped for Cooldown so a dead
// database does not add its connect timeout to every request.
type Fallback struct {
	remote   Backend
	local    Backend
	log      *logrus.Entry
	Cooldown time.Duration

	downUntil atomic.Int64
	now       func() time.Time
}

func NewFallback(remote, local Backend, log *logrus.Entry) *Fallback {
	return &Fallback{
		remote: remote,
		local:  local,
		log:    log,
		now:    time.Now,
	}
}

func (f *Fallback) Name() string {
	return fmt.Sprintf("fallback(%s,%s)", f.remote.Name(), f.local.Name())
}

// Ping succeeds when either side answers; the local store alone keeps the
// service usable.
func (f *Fallback) Ping(ctx context.Context) error {
	if err := f.remote.Ping(ctx); err == nil {
		return nil
	}
	return f.local.Ping(ctx)
}

// RemoteHealthy reports whether the remote is currently outside its cooldown.
func (f *Fallback) RemoteHealthy() bool {
	return f.now().UnixNano() >= f.downUntil.Load()
}

func (f *Fallback) markDown() {
	if f.Cooldown > 0 {
		f.downUntil.Store(f.now().Add(f.Cooldown).UnixNano())
	}
}

func call[T any](ctx context.Context, f *Fallback, op string, fn func(Backend) (T, error)) (T, error) {
	v, _, err := callFrom(ctx, f, op, fn)
	return v, err
}

// callFrom is call that also reports whether the remote produced the answer.
func callFrom[T any](ctx context.Context, f *Fallback, op string, fn func(Backend) (T, error)) (T, bool, error) {
	if f.RemoteHealthy() {
		v, err := fn(f.remote)
		if err == nil || IsAuthoritative(err) || ctx.Err() != nil {
			return v, true, err
		}
		f.markDown()
		f.log.WithError(err).WithField("op", op).Warn("remote store failed, serving from local store")
	}
	metrics.StoreFallbacks.WithLabelValues(op).Inc()
	v, err := fn(f.local)
	return v, false, err
}

func exec(ctx context.Context, f *Fallback, op string, fn func(Backend) error) error {
	_, err := call(ctx, f, op, func(b Backend) (struct{}, error) {
		return struct{}{}, fn(b)
	})
	return err
}

// strict runs fn on the remote only.
func strict(f *Fallback, op string, fn func(Backend) error) error {
	if err := fn(f.remote); err != nil {
		if !IsAuthoritative(err) {
			f.log.WithError(err).WithField("op", op).Error("remote store failed, write not degraded")
			return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
		}
		return err
	}
	return nil
}

// Boxes

func (f *Fallback) ListBoxes(ctx context.Context, flt models.BoxFilter) ([]*models.Box, error) {
	return call(ctx, f, "boxes.list", func(b Backend) ([]*models.Box, error) { return b.ListBoxes(ctx, flt) })
}

func (f *Fallback) GetBox(ctx context.Context, code string) (*models.Box, error) {
	return call(ctx, f, "boxes.get", func(b Backend) (*models.Box, error) { return b.GetBox(ctx, code) })
}

func (f *Fallback) InsertBox(ctx context.Context, box *models.Box) error {
	return exec(ctx, f, "boxes.insert", func(b Backend) error { return b.InsertBox(ctx, box) })
}

func (f *Fallback) UpdateBox(ctx context.Context, box *models.Box) error {
	return exec(ctx, f, "boxes.update", func(b Backend) error { return b.UpdateBox(ctx, box) })
}

func (f *Fallback) DeleteBox(ctx context.Context, code string) error {
	return exec(ctx, f, "boxes.delete", func(b Backend) error { return b.DeleteBox(ctx, code) })
}

func (f *Fallback) SetBoxPallet(ctx context.Context, code string, palletID *int64) error {
	return exec(ctx, f, "boxes.set_pallet", func(b Backend) error { return b.SetBoxPallet(ctx, code, palletID) })
}

func (f *Fallback) SetBoxShipment(ctx context.Context, code string, direct bool, shipmentID *int64) error {
	return exec(ctx, f, "boxes.set_shipment", func(b Backend) error { return b.SetBoxShipment(ctx, code, direct, shipmentID) })
}

// Pallets

func (f *Fallback) ListPallets(ctx context.Context, flt models.PalletFilter) ([]*models.Pallet, error) {
	return call(ctx, f, "pallets.list", func(b Backend) ([]*models.Pallet, error) { return b.ListPallets(ctx, flt) })
}

func (f *Fallback) GetPallet(ctx context.Context, code string) (*models.Pallet, error) {
	return call(ctx, f, "pallets.get", func(b Backend) (*models.Pallet, error) { return b.GetPallet(ctx, code) })
}

func (f *Fallback) GetPalletByID(ctx context.Context, id int64) (*models.Pallet, error) {
	return call(ctx, f, "pallets.get_by_id", func(b Backend) (*models.Pallet, error) { return b.GetPalletByID(ctx, id) })
}

func (f *Fallback) InsertPallet(ctx context.Context, p *models.Pallet) error {
	return exec(ctx, f, "pallets.insert", func(b Backend) error { return b.InsertPallet(ctx, p) })
}

func (f *Fallback) UpdatePallet(ctx context.Context, p *models.Pallet) error {
	return exec(ctx, f, "pallets.update", func(b Backend) error { return b.UpdatePallet(ctx, p) })
}

func (f *Fallback) DeletePallet(ctx context.Context, code string) error {
	return exec(ctx, f, "pallets.delete", func(b Backend) error { return b.DeletePallet(ctx, code) })
}

func (f *Fallback) SetPalletShipment(ctx context.Context, code string, shipmentID *int64) error {
	return exec(ctx, f, "pallets.set_shipment", func(b Backend) error { return b.SetPalletShipment(ctx, code, shipmentID) })
}

// Shipments

func (f *Fallback) ListShipments(ctx context.Context, flt models.ShipmentFilter) ([]*models.Shipment, error) {
	return call(ctx, f, "shipments.list", func(b Backend) ([]*models.Shipment, error) { return b.ListShipments(ctx, flt) })
}

func (f *Fallback) GetShipment(ctx context.Context, code string) (*models.Shipment, error) {
	return call(ctx, f, "shipments.get", func(b Backend) (*models.Shipment, error) { return b.GetShipment(ctx, code) })
}

func (f *Fallback) GetShipmentByID(ctx context.Context, id int64) (*models.Shipment, error) {
	return call(ctx, f, "shipments.get_by_id", func(b Backend) (*models.Shipment, error) { return b.GetShipmentByID(ctx, id) })
}

func (f *Fallback) InsertShipment(ctx context.Context, s *models.Shipment) error {
	return exec(ctx, f, "shipments.insert", func(b Backend) error { return b.InsertShipment(ctx, s) })
}

func (f *Fallback) UpdateShipment(ctx context.Context, s *models.Shipment) error {
	return exec(ctx, f, "shipments.update", func(b Backend) error { return b.UpdateShipment(ctx, s) })
}

func (f *Fallback) DeleteShipment(ctx context.Context, code string) error {
	return exec(ctx, f, "shipments.delete", func(b Backend) error { return b.DeleteShipment(ctx, code) })
}

// Activity

func (f *Fallback) InsertLoginLog(ctx context.Context, l *models.LoginLog) error {
	return exec(ctx, f, "login_logs.insert", func(b Backend) error { return b.InsertLoginLog(ctx, l) })
}

func (f *Fallback) ListLoginLogs(ctx context.Context, flt models.LoginLogFilter) ([]*models.LoginLog, error) {
	return call(ctx, f, "login_logs.list", func(b Backend) ([]*models.LoginLog, error) { return b.ListLoginLogs(ctx, flt) })
}

func (f *Fallback) LoginStatsSince(ctx context.Context, since time.Time) (*models.LoginStats, error) {
	return call(ctx, f, "login_logs.stats", func(b Backend) (*models.LoginStats, error) { return b.LoginStatsSince(ctx, since) })
}

func (f *Fallback) DeleteLoginLogsBefore(ctx context.Context, before time.Time) (int64, error) {
	return call(ctx, f, "login_logs.trim", func(b Backend) (int64, error) { return b.DeleteLoginLogsBefore(ctx, before) })
}

func (f *Fallback) UpsertSession(ctx context.Context, s *models.ActiveSession) error {
	return exec(ctx, f, "sessions.upsert", func(b Backend) error { return b.UpsertSession(ctx, s) })
}

func (f *Fallback) TouchSession(ctx context.Context, userID int64, at time.Time, page, action *string) error {
	return exec(ctx, f, "sessions.touch", func(b Backend) error { return b.TouchSession(ctx, userID, at, page, action) })
}

func (f *Fallback) DeleteSession(ctx context.Context, userID int64) error {
	return exec(ctx, f, "sessions.delete", func(b Backend) error { return b.DeleteSession(ctx, userID) })
}

func (f *Fallback) ListSessionsSince(ctx context.Context, since time.Time) ([]*models.ActiveSession, error) {
	return call(ctx, f, "sessions.list", func(b Backend) ([]*models.ActiveSession, error) { return b.ListSessionsSince(ctx, since) })
}

func (f *Fallback) DeleteSessionsBefore(ctx context.Context, before time.Time) (int64, error) {
	return call(ctx, f, "sessions.reap", func(b Backend) (int64, error) { return b.DeleteSessionsBefore(ctx, before) })
}

// Users: reads degrade, writes are strict. Every user and department the
// remote hands out or accepts is copied into the local replica so logins and
// token checks keep working through an outage.

func (f *Fallback) replica() (Replica, bool) {
	r, ok := f.local.(Replica)
	return r, ok
}

func (f *Fallback) keepUsers(ctx context.Context, users ...*models.User) {
	r, ok := f.replica()
	if !ok {
		return
	}
	for _, u := range users {
		if err := r.PutUser(ctx, u); err != nil {
			f.log.WithError(err).WithField("user_id", u.ID).Warn("could not copy user to local store")
		}
	}
}

func (f *Fallback) dropUser(ctx context.Context, id int64) {
	r, ok := f.replica()
	if !ok {
		return
	}
	if err := r.DropUser(ctx, id); err != nil {
		f.log.WithError(err).WithField("user_id", id).Warn("could not drop local copy of user")
	}
}

// refreshUser re-reads id from the remote, which fills in fields the caller
// left out (an unchanged password hash on update).
func (f *Fallback) refreshUser(ctx context.Context, id int64) {
	u, err := f.remote.GetUserByID(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		f.dropUser(ctx, id)
	case err != nil:
		f.log.WithError(err).WithField("user_id", id).Warn("could not refresh local copy of user")
	default:
		f.keepUsers(ctx, u)
	}
}

func (f *Fallback) keepDepartments(ctx context.Context, depts ...*models.Department) {
	r, ok := f.replica()
	if !ok {
		return
	}
	for _, d := range depts {
		if err := r.PutDepartment(ctx, d); err != nil {
			f.log.WithError(err).WithField("department_id", d.ID).Warn("could not copy department to local store")
		}
	}
}

func (f *Fallback) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, remote, err := callFrom(ctx, f, "users.list", func(b Backend) ([]*models.User, error) { return b.ListUsers(ctx) })
	if remote && err == nil {
		f.keepUsers(ctx, users...)
	}
	return users, err
}

func (f *Fallback) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, remote, err := callFrom(ctx, f, "users.get", func(b Backend) (*models.User, error) { return b.GetUserByID(ctx, id) })
	switch {
	case remote && err == nil:
		f.keepUsers(ctx, u)
	case remote && errors.Is(err, ErrNotFound):
		f.dropUser(ctx, id)
	}
	return u, err
}

func (f *Fallback) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, remote, err := callFrom(ctx, f, "users.get_by_username", func(b Backend) (*models.User, error) { return b.GetUserByUsername(ctx, username) })
	if remote && err == nil {
		f.keepUsers(ctx, u)
	}
	return u, err
}

func (f *Fallback) InsertUser(ctx context.Context, u *models.User) error {
	if err := strict(f, "users.insert", func(b Backend) error { return b.InsertUser(ctx, u) }); err != nil {
		return err
	}
	f.keepUsers(ctx, u)
	return nil
}

func (f *Fallback) UpdateUser(ctx context.Context, u *models.User) error {
	if err := strict(f, "users.update", func(b Backend) error { return b.UpdateUser(ctx, u) }); err != nil {
		return err
	}
	f.refreshUser(ctx, u.ID)
	return nil
}

func (f *Fallback) DeleteUser(ctx context.Context, id int64) error {
	if err := strict(f, "users.delete", func(b Backend) error { return b.DeleteUser(ctx, id) }); err != nil {
		return err
	}
	f.dropUser(ctx, id)
	return nil
}

func (f *Fallback) ListDepartments(ctx context.Context) ([]*models.Department, error) {
	depts, remote, err := callFrom(ctx, f, "departments.list", func(b Backend) ([]*models.Department, error) { return b.ListDepartments(ctx) })
	if remote && err == nil {
		f.keepDepartments(ctx, depts...)
	}
	return depts, err
}

func (f *Fallback) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	d, remote, err := callFrom(ctx, f, "departments.get", func(b Backend) (*models.Department, error) { return b.GetDepartment(ctx, id) })
	if remote && err == nil {
		f.keepDepartments(ctx, d)
	}
	return d, err
}

func (f *Fallback) InsertDepartment(ctx context.Context, d *models.Department) error {
	if err := strict(f, "departments.insert", func(b Backend) error { return b.InsertDepartment(ctx, d) }); err != nil {
		return err
	}
	f.keepDepartments(ctx, d)
	return nil
}

// Settings

func (f *Fallback) GetAnnouncement(ctx context.Context) (*models.Announcement, error) {
	return call(ctx, f, "announcement.get", func(b Backend) (*models.Announcement, error) { return b.GetAnnouncement(ctx) })
}

func (f *Fallback) SaveAnnouncement(ctx context.Context, a *models.Announcement) error {
	return exec(ctx, f, "announcement.save", func(b Backend) error { return b.SaveAnnouncement(ctx, a) })
}

func (f *Fallback) GetPopup(ctx context.Context) (*models.PopupAnnouncement, error) {
	return call(ctx, f, "popup.get", func(b Backend) (*models.PopupAnnouncement, error) { return b.GetPopup(ctx) })
}

func (f *Fallback) SavePopup(ctx context.Context, p *models.PopupAnnouncement) error {
	return exec(ctx, f, "popup.save", func(b Backend) error { return b.SavePopup(ctx, p) })
}

func (f *Fallback) GetBanSettings(ctx context.Context) (*models.BanSettings, error) {
	return call(ctx, f, "ban.get", func(b Backend) (*models.BanSettings, error) { return b.GetBanSettings(ctx) })
}

// SaveBanSettings is strict on the remote; the local copy only serves reads
// during an outage.
func (f *Fallback) SaveBanSettings(ctx context.Context, s *models.BanSettings) error {
	if err := strict(f, "ban.save", func(b Backend) error { return b.SaveBanSettings(ctx, s) }); err != nil {
		return err
	}
	if err := f.local.SaveBanSettings(ctx, s); err != nil {
		f.log.WithError(err).Warn("could not copy ban settings to local store")
	}
	return nil
}

func (f *Fallback) GetSiteLockdown(ctx context.Context) (*models.SiteLockdown, error) {
	return call(ctx, f, "lockdown.get", func(b Backend) (*models.SiteLockdown, error) { return b.GetSiteLockdown(ctx) })
}

func (f *Fallback) SaveSiteLockdown(ctx context.Context, l *models.SiteLockdown) error {
	return exec(ctx, f, "lockdown.save", func(b Backend) error { return b.SaveSiteLockdown(ctx, l) })
}

// Sequences

func (f *Fallback) NextSequence(ctx context.Context, kind string) (int64, error) {
	n, _, err := f.NextSequenceDegraded(ctx, kind)
	return n, err
}

// NextSequenceDegraded reports degraded when the local counter issued n. The
// local counter knows nothing of numbers the remote handed out.
func (f *Fallback) NextSequenceDegraded(ctx context.Context, kind string) (int64, bool, error) {
	n, remote, err := callFrom(ctx, f, "sequence.next", func(b Backend) (int64, error) { return b.NextSequence(ctx, kind) })
	return n, !remote, err
}
