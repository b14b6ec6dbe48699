// Package store defines the persistence contract shared by the remote
// (Postgres) and local (badger) backends, plus the fallback selector that
// prefers the remote and degrades to the local store on failure.
package store

import (
	"context"
	"errors"
	"time"

	"depo-backend/internal/models"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("already exists")
	ErrInvalid     = errors.New("invalid")
	ErrForbidden   = errors.New("forbidden")
	ErrUnavailable = errors.New("backend unavailable")
)

type BoxStore interface {
	ListBoxes(ctx context.Context, f models.BoxFilter) ([]*models.Box, error)
	GetBox(ctx context.Context, code string) (*models.Box, error)
	// InsertBox assigns b.ID and the IDs of its lines.
	InsertBox(ctx context.Context, b *models.Box) error
	// UpdateBox replaces the mutable columns and the full line list of the box with b.Code.
	UpdateBox(ctx context.Context, b *models.Box) error
	DeleteBox(ctx context.Context, code string) error
	SetBoxPallet(ctx context.Context, code string, palletID *int64) error
	SetBoxShipment(ctx context.Context, code string, direct bool, shipmentID *int64) error
}

type PalletStore interface {
	ListPallets(ctx context.Context, f models.PalletFilter) ([]*models.Pallet, error)
	GetPallet(ctx context.Context, code string) (*models.Pallet, error)
	GetPalletByID(ctx context.Context, id int64) (*models.Pallet, error)
	InsertPallet(ctx context.Context, p *models.Pallet) error
	UpdatePallet(ctx context.Context, p *models.Pallet) error
	DeletePallet(ctx context.Context, code string) error
	SetPalletShipment(ctx context.Context, code string, shipmentID *int64) error
}

type ShipmentStore interface {
	ListShipments(ctx context.Context, f models.ShipmentFilter) ([]*models.Shipment, error)
	GetShipment(ctx context.Context, code string) (*models.Shipment, error)
	GetShipmentByID(ctx context.Context, id int64) (*models.Shipment, error)
	InsertShipment(ctx context.Context, s *models.Shipment) error
	UpdateShipment(ctx context.Context, s *models.Shipment) error
	DeleteShipment(ctx context.Context, code string) error
}

type ActivityStore interface {
	InsertLoginLog(ctx context.Context, l *models.LoginLog) error
	// ListLoginLogs returns logs newest first.
	ListLoginLogs(ctx context.Context, f models.LoginLogFilter) ([]*models.LoginLog, error)
	// LoginStatsSince fills every LoginStats field except ActiveNow.
	LoginStatsSince(ctx context.Context, since time.Time) (*models.LoginStats, error)
	DeleteLoginLogsBefore(ctx context.Context, before time.Time) (int64, error)

	// UpsertSession inserts or replaces the row keyed by s.UserID, keeping
	// the original created_at when the row already exists.
	UpsertSession(ctx context.Context, s *models.ActiveSession) error
	// TouchSession returns ErrNotFound when the user has no session row.
	TouchSession(ctx context.Context, userID int64, at time.Time, page, action *string) error
	DeleteSession(ctx context.Context, userID int64) error
	// ListSessionsSince returns rows with last_activity >= since, most recent first.
	ListSessionsSince(ctx context.Context, since time.Time) ([]*models.ActiveSession, error)
	DeleteSessionsBefore(ctx context.Context, before time.Time) (int64, error)
}

type UserStore interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	InsertUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int64) error

	ListDepartments(ctx context.Context) ([]*models.Department, error)
	GetDepartment(ctx context.Context, id int64) (*models.Department, error)
	InsertDepartment(ctx context.Context, d *models.Department) error
}

// SettingsStore holds the singleton configuration rows. Getters return an
// inactive zero record when nothing has been saved yet.
type SettingsStore interface {
	GetAnnouncement(ctx context.Context) (*models.Announcement, error)
	SaveAnnouncement(ctx context.Context, a *models.Announcement) error
	GetPopup(ctx context.Context) (*models.PopupAnnouncement, error)
	SavePopup(ctx context.Context, p *models.PopupAnnouncement) error
	GetBanSettings(ctx context.Context) (*models.BanSettings, error)
	SaveBanSettings(ctx context.Context, b *models.BanSettings) error
	GetSiteLockdown(ctx context.Context) (*models.SiteLockdown, error)
	SaveSiteLockdown(ctx context.Context, l *models.SiteLockdown) error
}

type Sequencer interface {
	// NextSequence returns the next number for the given entity kind.
	NextSequence(ctx context.Context, kind string) (int64, error)
}

// DegradableSequencer also reports whether the number came from the local
// store because the remote could not answer. Codes built from such numbers
// carry a marker so they never collide with the remote sequence.
type DegradableSequencer interface {
	NextSequenceDegraded(ctx context.Context, kind string) (n int64, degraded bool, err error)
}

// Replica is implemented by a local backend that keeps copies of rows the
// remote owns. Put methods keep the caller's IDs and password hash.
type Replica interface {
	PutUser(ctx context.Context, u *models.User) error
	DropUser(ctx context.Context, id int64) error
	PutDepartment(ctx context.Context, d *models.Department) error
}

type Backend interface {
	BoxStore
	PalletStore
	ShipmentStore
	ActivityStore
	UserStore
	SettingsStore
	Sequencer

	Name() string
	Ping(ctx context.Context) error
}

// IsAuthoritative reports whether err is a definitive answer from a healthy
// backend rather than a failure of the backend itself.
func IsAuthoritative(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalid) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, context.Canceled)
}
