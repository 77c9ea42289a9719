package redis

import (
	"context"
	"time"

	apperrors "globalcache/internal/common/errors"
	"globalcache/internal/expiration"
)

// lockPrefix namespaces lock keys inside the instance.
const lockPrefix = "lock:"

// AcquireLock sets the lock key if it is absent, with a TTL of exp (two
// minutes when not positive). It reports whether the lock was taken.
func (s *Store) AcquireLock(ctx context.Context, name string, exp time.Duration) (bool, error) {
	if name == "" {
		return false, apperrors.ValidationError("lock name is required")
	}
	client, err := s.connect(ctx)
	if err != nil {
		return false, err
	}

	ok, err := client.SetNX(ctx, s.lockKey(name), "locked", expiration.Lock(exp)).Result()
	if err != nil {
		return false, s.wrap(ctx, "acquire lock", err).WithContext("lock", name)
	}
	return ok, nil
}

// ReleaseLock deletes the lock key and reports whether it existed. The
// caller is not checked against the holder; use NewMutex when that matters.
func (s *Store) ReleaseLock(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, apperrors.ValidationError("lock name is required")
	}
	client, err := s.connect(ctx)
	if err != nil {
		return false, err
	}

	n, err := client.Del(ctx, s.lockKey(name)).Result()
	if err != nil {
		return false, s.wrap(ctx, "release lock", err).WithContext("lock", name)
	}
	return n > 0, nil
}

func (s *Store) lockKey(name string) string {
	return s.instance + lockPrefix + name
}
