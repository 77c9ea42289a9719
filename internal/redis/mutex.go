package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"

	apperrors "globalcache/internal/common/errors"
	"globalcache/internal/expiration"
)

// Mutex is a lock that only its holder can release or extend. It shares
// the key space of AcquireLock, so a name held by either kind of lock
// cannot be taken by the other.
type Mutex struct {
	name   string
	key    string
	client redis.UniversalClient
	mutex  *redsync.Mutex
}

// NewMutex returns an unlocked owner-checked lock for name. exp is the
// lock's TTL, two minutes when not positive.
func (s *Store) NewMutex(ctx context.Context, name string, exp time.Duration) (*Mutex, error) {
	if name == "" {
		return nil, apperrors.ValidationError("lock name is required")
	}
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	rs := redsync.New(goredis.NewPool(client))
	key := s.lockKey(name)
	return &Mutex{
		name:   name,
		key:    key,
		client: client,
		mutex:  rs.NewMutex(key, redsync.WithExpiry(expiration.Lock(exp)), redsync.WithTries(1)),
	}, nil
}

// Name returns the lock name.
func (m *Mutex) Name() string {
	return m.name
}

// TryLock makes a single attempt to take the lock and reports whether it
// succeeded.
func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	if err := m.mutex.LockContext(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, apperrors.CancelledError("lock", ctxErr)
		}
		// A failed attempt on a live key means someone else holds it.
		n, existsErr := m.client.Exists(ctx, m.key).Result()
		if existsErr != nil {
			return false, apperrors.InternalError("failed to acquire lock", err).WithContext("lock", m.name)
		}
		if n > 0 {
			return false, nil
		}
		return false, apperrors.InternalError("failed to acquire lock", err).WithContext("lock", m.name)
	}
	return true, nil
}

// Extend resets the lock's TTL. It reports false when the lock is no longer
// held by this Mutex.
func (m *Mutex) Extend(ctx context.Context) (bool, error) {
	ok, err := m.mutex.ExtendContext(ctx)
	if ok {
		return true, nil
	}
	return m.notHeld(ctx, "extend lock", err)
}

// Unlock releases the lock. It reports false when the lock had already
// expired or was taken over.
func (m *Mutex) Unlock(ctx context.Context) (bool, error) {
	ok, err := m.mutex.UnlockContext(ctx)
	if ok {
		return true, nil
	}
	return m.notHeld(ctx, "unlock", err)
}

// notHeld distinguishes a lost lock from a failed round trip after redsync
// reported failure.
func (m *Mutex) notHeld(ctx context.Context, operation string, cause error) (bool, error) {
	current, err := m.client.Get(ctx, m.key).Result()
	if err == redis.Nil || (err == nil && current != m.mutex.Value()) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.InternalError(operation+" failed", err).WithContext("lock", m.name)
	}
	return false, apperrors.InternalError(operation+" failed", cause).WithContext("lock", m.name)
}
