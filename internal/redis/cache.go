package redis

import (
	"context"
	"reflect"
	"strings"
	"time"

	apperrors "globalcache/internal/common/errors"
	"globalcache/internal/common/future"
	"globalcache/internal/common/logging"
	"globalcache/internal/expiration"
	"globalcache/internal/serializer"
)

// CacheOptions configures a typed cache on top of a Store.
type CacheOptions struct {
	// TypeKey namespaces the keys of this cache; defaults to the short name
	// of the value type.
	TypeKey    string
	Serializer serializer.Serializer
}

// Cache stores T values in a Store. Keys are serialized and stored as
// "{TypeKey}:{key}" below the store's instance name.
type Cache[T any] struct {
	store      *Store
	serializer serializer.Serializer
	typeKey    string
}

// NewCache creates a typed cache over store. Closing the cache closes the
// store. A type key that would place entries among the lock keys is
// rejected.
func NewCache[T any](store *Store, opts CacheOptions) (*Cache[T], error) {
	s := opts.Serializer
	if s == nil {
		s = serializer.Default()
	}
	typeKey := opts.TypeKey
	if typeKey == "" {
		typeKey = DefaultTypeKey[T]()
	}
	if strings.HasPrefix(typeKey+":", lockPrefix) {
		return nil, apperrors.ValidationError("type key collides with the lock namespace").
			WithContext("type_key", typeKey)
	}
	return &Cache[T]{store: store, serializer: s, typeKey: typeKey}, nil
}

// DefaultTypeKey is the short name of T, looking through pointers.
func DefaultTypeKey[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}

// TypeKey returns the namespace of this cache.
func (c *Cache[T]) TypeKey() string {
	return c.typeKey
}

// Store returns the underlying byte store.
func (c *Cache[T]) Store() *Store {
	return c.store
}

// Insert stores value under key. A zero absolute deadline means 120 minutes
// from now; a non-positive sliding window means half of the time left until
// the deadline. A deadline in the past is rejected.
func (c *Cache[T]) Insert(ctx context.Context, key any, value T, absolute time.Time, sliding time.Duration) error {
	if serializer.IsNil(any(value)) {
		return apperrors.ValidationError("value is required")
	}
	k, err := c.key(key)
	if err != nil {
		return err
	}
	data, err := c.serializer.SerializeValue(value)
	if err != nil {
		return err
	}

	abs, sld := expiration.Resolve(c.store.now(), absolute, sliding)
	return c.store.Set(ctx, k, data, EntryOptions{AbsoluteExpiration: abs, SlidingExpiration: sld})
}

// InsertMinutes is Insert with the deadline given as minutes from now.
func (c *Cache[T]) InsertMinutes(ctx context.Context, key any, value T, minutes int, sliding time.Duration) error {
	return c.Insert(ctx, key, value, expiration.FromMinutes(c.store.now(), minutes), sliding)
}

// Get returns the value under key, or the zero value when there is none or
// the stored bytes do not decode as T.
func (c *Cache[T]) Get(ctx context.Context, key any) (T, error) {
	v, _, err := c.TryGet(ctx, key)
	return v, err
}

// TryGet is Get that also reports whether a value was found.
func (c *Cache[T]) TryGet(ctx context.Context, key any) (T, bool, error) {
	var zero T
	k, err := c.key(key)
	if err != nil {
		return zero, false, err
	}
	data, ok, err := c.store.Get(ctx, k)
	if err != nil || !ok {
		return zero, false, err
	}

	v, err := serializer.TryDeserialize[T](c.serializer, data)
	if err != nil {
		c.store.logger.Debug("Treating undecodable entry as a miss",
			logging.String("key", k),
			logging.Err(err),
		)
		return zero, false, nil
	}
	return v, true, nil
}

// HasKey reports whether key is present. It checks the key only: an entry
// whose metadata or payload TryGet cannot read still counts as present, so
// HasKey and TryGet can disagree on such entries. The sliding window is not
// restarted.
func (c *Cache[T]) HasKey(ctx context.Context, key any) (bool, error) {
	k, err := c.key(key)
	if err != nil {
		return false, err
	}
	return c.store.Exists(ctx, k)
}

// GetOrCompute returns the value under key, computing and storing it on a
// miss with only an absolute deadline. Concurrent callers may each run the
// factory; the last write wins. A factory error is returned and nothing is
// stored.
func (c *Cache[T]) GetOrCompute(ctx context.Context, key any, factory func(context.Context) (T, error), absolute time.Time) (T, error) {
	var zero T
	if factory == nil {
		return zero, apperrors.ValidationError("value factory is required")
	}
	v, ok, err := c.TryGet(ctx, key)
	if err != nil {
		return zero, err
	}
	if ok {
		return v, nil
	}

	v, err = factory(ctx)
	if err != nil {
		return zero, err
	}
	k, err := c.key(key)
	if err != nil {
		return zero, err
	}
	data, err := c.serializer.SerializeValue(v)
	if err != nil {
		return zero, err
	}
	abs := expiration.Absolute(c.store.now(), absolute)
	if err := c.store.Set(ctx, k, data, EntryOptions{AbsoluteExpiration: abs}); err != nil {
		return zero, err
	}
	return v, nil
}

// GetOrComputeAsync runs GetOrCompute without blocking the caller.
func (c *Cache[T]) GetOrComputeAsync(ctx context.Context, key any, factory func(context.Context) (T, error), absolute time.Time) *future.Future[T] {
	return future.Go(ctx, func(ctx context.Context) (T, error) {
		return c.GetOrCompute(ctx, key, factory, absolute)
	})
}

// Remove deletes key and reports whether it was present.
func (c *Cache[T]) Remove(ctx context.Context, key any) (bool, error) {
	k, err := c.key(key)
	if err != nil {
		return false, err
	}
	return c.store.Remove(ctx, k)
}

// ListKeys returns the serialized keys of this cache, in the form they were
// inserted.
func (c *Cache[T]) ListKeys(ctx context.Context) ([]string, error) {
	return c.store.Keys(ctx, c.typeKey)
}

// ListValues returns every value of this cache ordered by key. An entry that
// does not decode as T fails the call.
func (c *Cache[T]) ListValues(ctx context.Context) ([]T, error) {
	return ListValues(ctx, c.store, c.typeKey, func(_ context.Context, data []byte) (T, error) {
		return serializer.TryDeserialize[T](c.serializer, data)
	})
}

// AcquireLock takes a named lock shared by every cache on the same instance.
func (c *Cache[T]) AcquireLock(ctx context.Context, name string, exp time.Duration) (bool, error) {
	return c.store.AcquireLock(ctx, name, exp)
}

// ReleaseLock drops a named lock.
func (c *Cache[T]) ReleaseLock(ctx context.Context, name string) (bool, error) {
	return c.store.ReleaseLock(ctx, name)
}

// Health pings the server behind the store.
func (c *Cache[T]) Health(ctx context.Context) error {
	return c.store.Health(ctx)
}

// Close closes the underlying store.
func (c *Cache[T]) Close() error {
	return c.store.Close()
}

func (c *Cache[T]) key(key any) (string, error) {
	k, err := c.serializer.SerializeKey(key)
	if err != nil {
		return "", err
	}
	return c.typeKey + ":" + k, nil
}
