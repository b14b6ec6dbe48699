package activity

import (
	"context"
	"errors"
	"time"

	"depo-backend/internal/metrics"

	"github.com/sirupsen/logrus"
)

// ErrNotObtained is returned by a Locker when another replica holds the lock.
var ErrNotObtained = errors.New("lock not obtained")

// Locker guards one sweep across replicas. Release is called when the sweep ends.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

const sweepLockKey = "depo:lock:session-sweep"

// Sweeper periodically reaps idle sessions and trims old audit rows.
type Sweeper struct {
	Tracker   *Tracker
	Locker    Locker
	Interval  time.Duration
	Retention time.Duration
	log       *logrus.Entry
}

func NewSweeper(t *Tracker, locker Locker, interval, retention time.Duration, log *logrus.Entry) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{Tracker: t, Locker: locker, Interval: interval, Retention: retention, log: log}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.log.WithField("interval", s.Interval).Info("session sweeper started")
	for {
		s.Sweep(ctx)
		select {
		case <-ctx.Done():
			s.log.Info("session sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

// Sweep runs a single pass. It reports whether this replica did the work.
func (s *Sweeper) Sweep(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if s.Locker != nil {
		release, err := s.Locker.Obtain(ctx, sweepLockKey, s.Interval)
		if errors.Is(err, ErrNotObtained) {
			return false
		}
		if err != nil {
			// A broken lock backend degrades to an unguarded sweep.
			s.log.WithError(err).Warn("sweep lock unavailable, sweeping unguarded")
		} else {
			defer func() { _ = release(context.WithoutCancel(ctx)) }()
		}
	}

	if _, err := s.Tracker.CleanupIdle(ctx); err != nil {
		s.log.WithError(err).Error("idle session cleanup failed")
	}
	if active, err := s.Tracker.GetActiveSessions(ctx); err == nil {
		metrics.ActiveSessions.Set(float64(len(active)))
	}
	if s.Retention > 0 {
		n, err := s.Tracker.TrimLogs(ctx, s.Retention)
		if err != nil {
			s.log.WithError(err).Error("login log trim failed")
		} else if n > 0 {
			s.log.WithField("count", n).Info("trimmed old login logs")
		}
	}
	return true
}
