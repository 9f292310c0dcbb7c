package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/site-attendance/internal/pkg/database"
)

// PostgresLocker uses session-level advisory locks. The lock lives as long
// as the pooled connection it was taken on; ttl only sets how often the
// session is checked.
type PostgresLocker struct {
	db *database.DB
}

func NewPostgresLocker(db *database.DB) *PostgresLocker {
	return &PostgresLocker{db: db}
}

// Acquire implements Locker. The session is pinged every third of ttl; a
// dead session has dropped the lock, which cancels the returned context.
func (l *PostgresLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (context.Context, ReleaseFunc, error) {
	conn, err := l.db.Pool.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtext($1))`, name).Scan(&ok); err != nil {
		conn.Release()
		return nil, nil, fmt.Errorf("failed to take advisory lock %s: %w", name, err)
	}
	if !ok {
		conn.Release()
		return nil, nil, ErrNotAcquired
	}

	lockCtx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		interval := ttl / 3
		if interval <= 0 {
			interval = time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-lockCtx.Done():
				return
			case <-ticker.C:
			}
			if err := conn.Ping(lockCtx); err != nil && lockCtx.Err() == nil {
				slog.Error("Advisory lock session lost", "lock", name, "error", err)
				cancel(ErrLockLost)
				return
			}
		}
	}()

	var once sync.Once
	return lockCtx, func(ctx context.Context) error {
		var err error
		once.Do(func() {
			cancel(nil)
			<-done
			defer conn.Release()
			if _, uerr := conn.Exec(ctx, `SELECT pg_advisory_unlock(hashtext($1))`, name); uerr != nil {
				// Closing the session drops the lock.
				conn.Conn().Close(ctx)
				err = fmt.Errorf("failed to release advisory lock %s: %w", name, uerr)
			}
		})
		return err
	}, nil
}
