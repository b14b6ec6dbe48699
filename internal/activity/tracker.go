// Package activity records login audit rows and maintains the one-row-per-user
// presence table behind the admin "who is online" view.
package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"depo-backend/internal/metrics"
	"depo-backend/internal/models"
	"depo-backend/internal/store"
	"depo-backend/internal/timeutil"

	"github.com/sirupsen/logrus"
)

const (
	DefaultActiveWindow = 5 * time.Minute
	DefaultIdleTimeout  = 10 * time.Minute
	statsPeriod         = 24 * time.Hour
)

// Locator resolves an IP address to a display location. An empty result is fine.
type Locator interface {
	Lookup(ctx context.Context, ip string) string
}

type Tracker struct {
	Store        store.ActivityStore
	Geo          Locator
	ActiveWindow time.Duration
	IdleTimeout  time.Duration
	Now          func() time.Time
	log          *logrus.Entry
}

func NewTracker(s store.ActivityStore, geo Locator, log *logrus.Entry) *Tracker {
	return &Tracker{
		Store:        s,
		Geo:          geo,
		ActiveWindow: DefaultActiveWindow,
		IdleTimeout:  DefaultIdleTimeout,
		Now:          timeutil.Now,
		log:          log,
	}
}

// Event is the request-side context of an audited action.
type Event struct {
	Action    string
	Username  string
	User      *models.User
	IPAddress string
	UserAgent string
}

// LogAction appends one audit row. Failed logins carry the attempted
// username without a user.
func (t *Tracker) LogAction(ctx context.Context, ev Event) (*models.LoginLog, error) {
	switch ev.Action {
	case models.ActionLogin, models.ActionLogout, models.ActionFailedLogin, models.ActionAutoLogin:
	default:
		return nil, fmt.Errorf("action %q: %w", ev.Action, store.ErrInvalid)
	}

	entry := &models.LoginLog{
		Username:  ev.Username,
		IPAddress: ev.IPAddress,
		UserAgent: ev.UserAgent,
		Action:    ev.Action,
		CreatedAt: t.Now(),
	}
	if ev.User != nil {
		id := ev.User.ID
		entry.UserID = &id
		entry.Username = ev.User.Username
		entry.UserName = ev.User.Name
		entry.DepartmentName = ev.User.DepartmentName
	}
	if t.Geo != nil && ev.IPAddress != "" {
		entry.Location = t.Geo.Lookup(ctx, ev.IPAddress)
	}

	if err := t.Store.InsertLoginLog(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// StartSession creates or refreshes the presence row of u.
func (t *Tracker) StartSession(ctx context.Context, u *models.User, ip, userAgent string) error {
	now := t.Now()
	return t.Store.UpsertSession(ctx, &models.ActiveSession{
		UserID:       u.ID,
		Username:     u.Username,
		UserName:     u.Name,
		IPAddress:    ip,
		UserAgent:    userAgent,
		LastActivity: now,
		CreatedAt:    now,
	})
}

// UpdateActivity is the heartbeat. A user whose row was reaped while idle gets
// it recreated from u.
func (t *Tracker) UpdateActivity(ctx context.Context, u *models.User, ip, userAgent string, page, action *string) error {
	err := t.Store.TouchSession(ctx, u.ID, t.Now(), page, action)
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err := t.StartSession(ctx, u, ip, userAgent); err != nil {
		return err
	}
	return t.Store.TouchSession(ctx, u.ID, t.Now(), page, action)
}

func (t *Tracker) EndSession(ctx context.Context, userID int64) error {
	return t.Store.DeleteSession(ctx, userID)
}

// GetActiveSessions returns sessions seen less than ActiveWindow ago, most
// recent first.
func (t *Tracker) GetActiveSessions(ctx context.Context) ([]*models.ActiveSession, error) {
	now := t.Now()
	rows, err := t.Store.ListSessionsSince(ctx, now.Add(-t.ActiveWindow))
	if err != nil {
		return nil, err
	}
	active := make([]*models.ActiveSession, 0, len(rows))
	for _, s := range rows {
		if now.Sub(s.LastActivity) < t.ActiveWindow {
			active = append(active, s)
		}
	}
	return active, nil
}

func (t *Tracker) GetStats(ctx context.Context) (*models.LoginStats, error) {
	_, stats, err := t.Overview(ctx)
	return stats, err
}

// Overview returns the active sessions and the login stats whose ActiveNow
// counts those same sessions, with a single session query.
func (t *Tracker) Overview(ctx context.Context) ([]*models.ActiveSession, *models.LoginStats, error) {
	active, err := t.GetActiveSessions(ctx)
	if err != nil {
		return nil, nil, err
	}
	stats, err := t.Store.LoginStatsSince(ctx, t.Now().Add(-statsPeriod))
	if err != nil {
		return nil, nil, err
	}
	stats.ActiveNow = len(active)
	return active, stats, nil
}

// CleanupIdle removes sessions idle for longer than IdleTimeout.
func (t *Tracker) CleanupIdle(ctx context.Context) (int64, error) {
	n, err := t.Store.DeleteSessionsBefore(ctx, t.Now().Add(-t.IdleTimeout))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.SessionsReaped.Add(float64(n))
		t.log.WithField("count", n).Debug("reaped idle sessions")
	}
	return n, nil
}

// TrimLogs deletes audit rows older than the retention period.
func (t *Tracker) TrimLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, nil
	}
	return t.Store.DeleteLoginLogsBefore(ctx, t.Now().Add(-olderThan))
}
