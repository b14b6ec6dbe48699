package cache

import (
	"context"
	"errors"
	"time"

	"depo-backend/internal/activity"

	"github.com/bsm/redislock"
)

// Locker adapts redislock to the activity sweeper.
type Locker struct {
	locker *redislock.Client
}

// NewLocker returns nil when Redis is unavailable; the sweeper then runs unguarded.
func NewLocker() *Locker {
	if client == nil {
		return nil
	}
	return &Locker{locker: redislock.New(client)}
}

func (l *Locker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.locker.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, activity.ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}
