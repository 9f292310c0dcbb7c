package lock

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotAcquired = errors.New("lock is held by another process")
	ErrLockLost    = errors.New("lock was lost while held")
)

// ReleaseFunc gives the lock back. It is safe to call once.
type ReleaseFunc func(ctx context.Context) error

// Locker hands out named process-wide locks. Acquire never waits: it returns
// ErrNotAcquired when the lock is already held.
//
// The returned context is derived from ctx and stays live while the lock is
// held. It is cancelled with cause ErrLockLost if the lock cannot be kept,
// and on release.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (context.Context, ReleaseFunc, error)
}
