package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	apperrors "globalcache/internal/common/errors"
	"globalcache/internal/common/future"
	"globalcache/internal/common/logging"
	"globalcache/internal/expiration"
	"globalcache/internal/serializer"
)

// DefaultCleanupInterval is how often go-cache sweeps expired entries.
const DefaultCleanupInterval = time.Minute

// Options configures a local cache.
type Options struct {
	// SizeLimit caps the number of entries; zero or less is unbounded.
	SizeLimit int
	// CleanupInterval defaults to DefaultCleanupInterval.
	CleanupInterval time.Duration
	// Serializer turns keys into strings; defaults to JSON.
	Serializer serializer.Serializer
	Logger     logging.Logger
}

type entry[T any] struct {
	key      string
	value    T
	absolute time.Time
	sliding  time.Duration // zero: absolute deadline only

	// expires and index are owned by the eviction heap and guarded by
	// Cache.mu.
	expires int64
	index   int
}

// Cache is an in-process expiring store of T values.
type Cache[T any] struct {
	items      *gocache.Cache
	locks      *lockTable
	serializer serializer.Serializer
	logger     logging.Logger
	sizeLimit  int
	now        func() time.Time

	// mu serializes writes, including the re-arm done by reads, so a stale
	// entry is never written over a newer one.
	mu     sync.Mutex
	order  expiryHeap[T] // only maintained when sizeLimit > 0
	flight singleflight.Group
}

// New creates a local cache.
func New[T any](opts Options) *Cache[T] {
	cleanup := opts.CleanupInterval
	if cleanup <= 0 {
		cleanup = DefaultCleanupInterval
	}
	s := opts.Serializer
	if s == nil {
		s = serializer.Default()
	}

	return &Cache[T]{
		items:      gocache.New(gocache.NoExpiration, cleanup),
		locks:      newLockTable(cleanup),
		serializer: s,
		logger:     logging.ForComponent(opts.Logger, "memory"),
		sizeLimit:  opts.SizeLimit,
		now:        time.Now,
	}
}

// Insert stores value under key, replacing any existing entry. A zero
// absolute deadline means 120 minutes from now; a non-positive sliding window
// means half of the time left until the deadline.
func (c *Cache[T]) Insert(ctx context.Context, key any, value T, absolute time.Time, sliding time.Duration) error {
	if err := checkContext(ctx, "insert"); err != nil {
		return err
	}
	if serializer.IsNil(any(value)) {
		return apperrors.ValidationError("value is required")
	}
	k, err := c.serializer.SerializeKey(key)
	if err != nil {
		return err
	}

	abs, sld := expiration.Resolve(c.now(), absolute, sliding)
	c.store(k, value, abs, sld)
	return nil
}

// InsertMinutes is Insert with the deadline given as minutes from now.
// Non-positive minutes fall back to the 120 minute default.
func (c *Cache[T]) InsertMinutes(ctx context.Context, key any, value T, minutes int, sliding time.Duration) error {
	return c.Insert(ctx, key, value, expiration.FromMinutes(c.now(), minutes), sliding)
}

// Get returns the value stored under key, or the zero value when there is
// none. A hit restarts the entry's sliding window.
func (c *Cache[T]) Get(ctx context.Context, key any) (T, error) {
	v, _, err := c.TryGet(ctx, key)
	return v, err
}

// TryGet is Get that also reports whether the key was present.
func (c *Cache[T]) TryGet(ctx context.Context, key any) (T, bool, error) {
	var zero T
	if err := checkContext(ctx, "get"); err != nil {
		return zero, false, err
	}
	k, err := c.serializer.SerializeKey(key)
	if err != nil {
		return zero, false, err
	}

	v, ok := c.lookup(k)
	return v, ok, nil
}

// HasKey reports whether key is present. Like Get it restarts the sliding
// window.
func (c *Cache[T]) HasKey(ctx context.Context, key any) (bool, error) {
	_, ok, err := c.TryGet(ctx, key)
	return ok, err
}

// GetOrCompute returns the value under key, computing and storing it on a
// miss. Concurrent callers for the same key share one factory call. The
// computed entry has only an absolute deadline, 120 minutes from now when
// absolute is zero. A factory error is returned and nothing is stored.
//
// The shared factory call is not cancelled by any one caller: each caller
// stops waiting when its own ctx ends, and the value is still stored for
// the others.
func (c *Cache[T]) GetOrCompute(ctx context.Context, key any, factory func(context.Context) (T, error), absolute time.Time) (T, error) {
	var zero T
	if err := checkContext(ctx, "get or compute"); err != nil {
		return zero, err
	}
	if factory == nil {
		return zero, apperrors.ValidationError("value factory is required")
	}
	k, err := c.serializer.SerializeKey(key)
	if err != nil {
		return zero, err
	}

	if v, ok := c.lookup(k); ok {
		return v, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(k, func() (interface{}, error) {
		if v, ok := c.lookup(k); ok {
			return v, nil
		}
		v, err := factory(shared)
		if err != nil {
			return nil, err
		}
		c.store(k, v, expiration.Absolute(c.now(), absolute), 0)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	case <-ctx.Done():
		return zero, apperrors.CancelledError("get or compute", ctx.Err())
	}
}

// GetOrComputeAsync runs GetOrCompute without blocking the caller.
func (c *Cache[T]) GetOrComputeAsync(ctx context.Context, key any, factory func(context.Context) (T, error), absolute time.Time) *future.Future[T] {
	return future.Go(ctx, func(ctx context.Context) (T, error) {
		return c.GetOrCompute(ctx, key, factory, absolute)
	})
}

// Remove deletes key and reports whether it was present.
func (c *Cache[T]) Remove(ctx context.Context, key any) (bool, error) {
	if err := checkContext(ctx, "remove"); err != nil {
		return false, err
	}
	k, err := c.serializer.SerializeKey(key)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	obj, found := c.items.Get(k)
	if !found {
		return false, nil
	}
	c.items.Delete(k)
	c.order.remove(obj.(*entry[T]))
	return true, nil
}

// ListKeys returns the serialized keys of all live entries. It copies the
// whole store; use it sparingly.
func (c *Cache[T]) ListKeys(ctx context.Context) ([]string, error) {
	if err := checkContext(ctx, "list keys"); err != nil {
		return nil, err
	}
	items := c.items.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// ListValues returns the values of all live entries ordered by key. Like
// ListKeys it copies the whole store. Sliding windows are not restarted.
func (c *Cache[T]) ListValues(ctx context.Context) ([]T, error) {
	keys, err := c.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	items := c.items.Items()
	values := make([]T, 0, len(keys))
	for _, k := range keys {
		if e, ok := items[k].Object.(*entry[T]); ok {
			values = append(values, e.value)
		}
	}
	return values, nil
}

// Len returns the number of stored entries, including expired ones the
// janitor has not swept yet.
func (c *Cache[T]) Len() int {
	return c.items.ItemCount()
}

// AcquireLock takes the named in-process lock for expiration (two minutes
// when not positive). It returns false if the lock is already held.
func (c *Cache[T]) AcquireLock(ctx context.Context, name string, exp time.Duration) (bool, error) {
	if err := checkContext(ctx, "acquire lock"); err != nil {
		return false, err
	}
	if name == "" {
		return false, apperrors.ValidationError("lock name is required")
	}
	return c.locks.acquire(name, expiration.Lock(exp)), nil
}

// ReleaseLock drops the named lock and reports whether it was held. Any
// caller may release any lock.
func (c *Cache[T]) ReleaseLock(ctx context.Context, name string) (bool, error) {
	if err := checkContext(ctx, "release lock"); err != nil {
		return false, err
	}
	if name == "" {
		return false, apperrors.ValidationError("lock name is required")
	}
	return c.locks.release(name), nil
}

// Close drops every entry and lock.
func (c *Cache[T]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Flush()
	c.order = nil
	c.locks.flush()
	return nil
}

func (c *Cache[T]) lookup(k string) (T, bool) {
	obj, found := c.items.Get(k)
	if !found {
		var zero T
		return zero, false
	}
	e := obj.(*entry[T])
	c.touch(k, e)
	return e.value, true
}

// touch re-arms the go-cache deadline of a sliding entry, unless another
// writer replaced it in the meantime.
func (c *Cache[T]) touch(k string, e *entry[T]) {
	if e.sliding <= 0 {
		return
	}
	ttl, _ := expiration.TTL(c.now(), e.absolute, e.sliding)
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, found := c.items.Get(k); found && cur == any(e) {
		c.items.Set(k, e, ttl)
		e.expires = c.now().Add(ttl).UnixNano()
		c.order.update(e)
	}
}

func (c *Cache[T]) store(k string, value T, abs time.Time, sliding time.Duration) {
	now := c.now()
	ttl, _ := expiration.TTL(now, abs, sliding)

	c.mu.Lock()
	defer c.mu.Unlock()

	var old *entry[T]
	if obj, found := c.items.Get(k); found {
		old = obj.(*entry[T])
		c.order.remove(old)
	}

	// go-cache treats a negative duration as "never expires".
	if ttl <= 0 {
		c.items.Delete(k)
		return
	}

	if c.sizeLimit > 0 && old == nil {
		c.makeRoom()
	}
	e := &entry[T]{key: k, value: value, absolute: abs, sliding: sliding, expires: now.Add(ttl).UnixNano(), index: -1}
	c.items.Set(k, e, ttl)
	if c.sizeLimit > 0 {
		c.order.add(e)
		c.pruneOrder()
	}
}

// makeRoom evicts until a new key fits, taking entries from the front of the
// eviction heap: expired entries first, then the entry closest to its
// deadline, ties broken by key. Callers hold c.mu.
func (c *Cache[T]) makeRoom() {
	for c.items.ItemCount() >= c.sizeLimit && c.order.Len() > 0 {
		e := c.order.popMin()
		obj, found := c.items.Get(e.key)
		switch {
		case !found:
			// Expired but not swept by the janitor yet.
			c.items.Delete(e.key)
		case obj == any(e):
			c.items.Delete(e.key)
			c.logger.Debug("Evicted entry to respect size limit",
				logging.String("key", e.key),
				logging.Int("size_limit", c.sizeLimit),
			)
		}
	}
}

// pruneOrder drops heap entries go-cache no longer holds once the heap has
// grown to twice the size limit. Callers hold c.mu.
func (c *Cache[T]) pruneOrder() {
	if c.order.Len() < 2*c.sizeLimit {
		return
	}
	c.order.retain(func(e *entry[T]) bool {
		obj, found := c.items.Get(e.key)
		if !found {
			c.items.Delete(e.key)
			return false
		}
		return obj == any(e)
	})
}

func checkContext(ctx context.Context, operation string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.CancelledError(operation, err)
	}
	return nil
}
