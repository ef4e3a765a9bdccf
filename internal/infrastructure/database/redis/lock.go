package redis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/privlens/privlens/pkg/errors"
)

// releaseScript deletes the lock key only when this owner still holds it,
// so an expired-and-reacquired lock is never released by the old owner.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Lock is a distributed mutex backed by SET NX with a per-acquisition owner
// token.  It satisfies the scheduler's Locker contract.
type Lock struct {
	client *Client

	mu     sync.Mutex
	owners map[string]string
}

// NewLock builds a Lock on the shared client.
func NewLock(client *Client) *Lock {
	return &Lock{client: client, owners: map[string]string{}}
}

// Acquire attempts to take the named lock for ttl.  Returns (false, nil)
// when another owner holds it.
func (l *Lock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.Raw().SetNX(ctx, l.client.Key("lock", key), owner, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "lock acquire failed")
	}
	if !ok {
		return false, nil
	}
	l.mu.Lock()
	l.owners[key] = owner
	l.mu.Unlock()
	return true, nil
}

// Release frees the named lock if this process still owns it.
func (l *Lock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	owner, ok := l.owners[key]
	delete(l.owners, key)
	l.mu.Unlock()
	if !ok {
		return nil
	}
	if err := releaseScript.Run(ctx, l.client.Raw(), []string{l.client.Key("lock", key)}, owner).Err(); err != nil && err != goredis.Nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "lock release failed")
	}
	return nil
}
