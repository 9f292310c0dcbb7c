package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the expiry only while the key still holds our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type RedisLocker struct {
	client *redis.Client
	prefix string
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, prefix: "site-attendance:lock:"}
}

// NewRedisClient connects with short timeouts.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// Acquire implements Locker with SET NX PX. The lease is renewed every
// third of ttl until release, so a holder that outlives ttl keeps the lock.
func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (context.Context, ReleaseFunc, error) {
	key := l.prefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set lock %s: %w", key, err)
	}
	if !ok {
		return nil, nil, ErrNotAcquired
	}

	lockCtx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	go l.keepAlive(lockCtx, cancel, key, token, ttl, done)

	var once sync.Once
	return lockCtx, func(ctx context.Context) error {
		var err error
		once.Do(func() {
			cancel(nil)
			<-done
			if rerr := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); rerr != nil && rerr != redis.Nil {
				err = fmt.Errorf("failed to release lock %s: %w", key, rerr)
			}
		})
		return err
	}, nil
}

func (l *RedisLocker) keepAlive(ctx context.Context, cancel context.CancelCauseFunc, key, token string, ttl time.Duration, done chan<- struct{}) {
	defer close(done)

	interval := ttl / 3
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		renewed, err := renewScript.Run(ctx, l.client, []string{key}, token, ttl.Milliseconds()).Int64()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// A transient failure is retried on the next tick; the key
			// survives until ttl runs out.
			slog.Warn("Failed to renew lock", "key", key, "error", err)
			continue
		}
		if renewed == 0 {
			slog.Error("Lock lost", "key", key)
			cancel(ErrLockLost)
			return
		}
	}
}
