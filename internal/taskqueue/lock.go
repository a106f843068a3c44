package taskqueue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// Locker guards work that must not run on two workers at once.
type Locker struct {
	store  listCmdable
	prefix string
}

func NewLocker(store listCmdable, cfg Config) *Locker {
	if store == nil {
		return nil
	}
	return &Locker{store: store, prefix: cfg.withDefaults().KeyPrefix + ":lock:"}
}

// TryLock returns a release token when the lock was acquired.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.store == nil {
		return "", false, errors.New("lock client not configured")
	}
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.prefix+key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.store == nil {
		return errors.New("lock client not configured")
	}
	if key == "" || token == "" {
		return nil
	}
	return l.store.Eval(ctx, lockReleaseScript, []string{l.prefix + key}, token).Err()
}
