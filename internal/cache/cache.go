package cache

import (
	"context"
	"fmt"
	"time"

	apperrors "globalcache/internal/common/errors"
	"globalcache/internal/common/future"
	"globalcache/internal/common/logging"
	"globalcache/internal/memory"
	"globalcache/internal/redis"
)

// Engine is the operation set shared by the local and remote engines.
type Engine[T any] interface {
	Insert(ctx context.Context, key any, value T, absolute time.Time, sliding time.Duration) error
	InsertMinutes(ctx context.Context, key any, value T, minutes int, sliding time.Duration) error
	Get(ctx context.Context, key any) (T, error)
	TryGet(ctx context.Context, key any) (T, bool, error)
	HasKey(ctx context.Context, key any) (bool, error)
	GetOrCompute(ctx context.Context, key any, factory func(context.Context) (T, error), absolute time.Time) (T, error)
	Remove(ctx context.Context, key any) (bool, error)
	ListKeys(ctx context.Context) ([]string, error)
	ListValues(ctx context.Context) ([]T, error)
	AcquireLock(ctx context.Context, name string, exp time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name string) (bool, error)
	Close() error
}

var (
	_ Engine[int] = (*memory.Cache[int])(nil)
	_ Engine[int] = (*redis.Cache[int])(nil)
)

// Lookup is the result of TryGetAsync.
type Lookup[T any] struct {
	Value T
	Found bool
}

// Cache forwards every operation to the engine chosen at construction.
type Cache[T any] struct {
	engine Engine[T]
	kind   Kind
}

// New creates a cache. The backend comes from, in order: WithBackend,
// WithConfig, the file named by WithDiscovery, and finally Local{}.
// Creating a Remote cache does not connect; the first operation does.
func New[T any](opts ...Option) (*Cache[T], error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	logger := logging.ForComponent(o.logger, "cache")

	backend, source, err := o.resolveBackend()
	if err != nil {
		return nil, err
	}

	var engine Engine[T]
	switch b := backend.(type) {
	case Local:
		engine = memory.New[T](memory.Options{
			SizeLimit:  b.SizeLimit,
			Serializer: o.serializer,
			Logger:     o.logger,
		})
	case Remote:
		store := redis.NewStore(redis.Options{
			Configuration: b.Configuration,
			Endpoints:     b.Endpoints,
			InstanceName:  b.InstanceName,
			Password:      b.Password,
			DB:            b.DB,
			PoolSize:      b.PoolSize,
			Workers:       b.Workers,
			Logger:        o.logger,
		})
		remote, err := redis.NewCache[T](store, redis.CacheOptions{
			TypeKey:    o.typeKey,
			Serializer: o.serializer,
		})
		if err != nil {
			return nil, err
		}
		logger = logger.WithFields(
			logging.String("instance", store.InstanceName()),
			logging.String("type_key", remote.TypeKey()),
			logging.Int("workers", store.Workers()),
		)
		engine = remote
	default:
		return nil, apperrors.ConfigError(fmt.Sprintf("unsupported cache backend %T", backend))
	}

	logger.Debug("Cache created",
		logging.String("backend", string(backend.Kind())),
		logging.String("source", source),
	)
	return &Cache[T]{engine: engine, kind: backend.Kind()}, nil
}

// NewWithEngine wraps an engine built by the caller.
func NewWithEngine[T any](engine Engine[T], kind Kind) *Cache[T] {
	return &Cache[T]{engine: engine, kind: kind}
}

// Kind reports which backend holds the entries.
func (c *Cache[T]) Kind() Kind {
	return c.kind
}

// Engine returns the underlying engine.
func (c *Cache[T]) Engine() Engine[T] {
	return c.engine
}

// Insert stores value under key. A zero absolute deadline means 120 minutes
// from now and a non-positive sliding window means half the time left until
// the deadline.
func (c *Cache[T]) Insert(ctx context.Context, key any, value T, absolute time.Time, sliding time.Duration) error {
	return c.engine.Insert(ctx, key, value, absolute, sliding)
}

// InsertMinutes stores value for the given number of minutes; non-positive
// counts mean 120.
func (c *Cache[T]) InsertMinutes(ctx context.Context, key any, value T, minutes int, sliding time.Duration) error {
	return c.engine.InsertMinutes(ctx, key, value, minutes, sliding)
}

// Get returns the value under key or the zero value.
func (c *Cache[T]) Get(ctx context.Context, key any) (T, error) {
	return c.engine.Get(ctx, key)
}

// TryGet returns the value under key and whether it was found.
func (c *Cache[T]) TryGet(ctx context.Context, key any) (T, bool, error) {
	return c.engine.TryGet(ctx, key)
}

// HasKey reports whether key is present.
func (c *Cache[T]) HasKey(ctx context.Context, key any) (bool, error) {
	return c.engine.HasKey(ctx, key)
}

// GetOrCompute returns the value under key, storing the factory's result on
// a miss.
func (c *Cache[T]) GetOrCompute(ctx context.Context, key any, factory func(context.Context) (T, error), absolute time.Time) (T, error) {
	return c.engine.GetOrCompute(ctx, key, factory, absolute)
}

// Remove deletes key and reports whether it was present.
func (c *Cache[T]) Remove(ctx context.Context, key any) (bool, error) {
	return c.engine.Remove(ctx, key)
}

// ListKeys returns every key. It is expensive on large caches.
func (c *Cache[T]) ListKeys(ctx context.Context) ([]string, error) {
	return c.engine.ListKeys(ctx)
}

// ListValues returns every value. It is expensive on large caches.
func (c *Cache[T]) ListValues(ctx context.Context) ([]T, error) {
	return c.engine.ListValues(ctx)
}

// AcquireLock takes a named lock for exp, two minutes when not positive.
// Local caches lock within this process only.
func (c *Cache[T]) AcquireLock(ctx context.Context, name string, exp time.Duration) (bool, error) {
	return c.engine.AcquireLock(ctx, name, exp)
}

// ReleaseLock drops a named lock.
func (c *Cache[T]) ReleaseLock(ctx context.Context, name string) (bool, error) {
	return c.engine.ReleaseLock(ctx, name)
}

// Health checks that the backend is reachable. Local caches are always
// healthy; remote caches connect if needed and ping the server.
func (c *Cache[T]) Health(ctx context.Context) error {
	if h, ok := c.engine.(interface{ Health(context.Context) error }); ok {
		return h.Health(ctx)
	}
	return nil
}

// Close releases the engine's resources.
func (c *Cache[T]) Close() error {
	return c.engine.Close()
}

// InsertAsync runs Insert without blocking the caller.
func (c *Cache[T]) InsertAsync(ctx context.Context, key any, value T, absolute time.Time, sliding time.Duration) *future.Future[struct{}] {
	return future.Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.engine.Insert(ctx, key, value, absolute, sliding)
	})
}

// InsertMinutesAsync runs InsertMinutes without blocking the caller.
func (c *Cache[T]) InsertMinutesAsync(ctx context.Context, key any, value T, minutes int, sliding time.Duration) *future.Future[struct{}] {
	return future.Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.engine.InsertMinutes(ctx, key, value, minutes, sliding)
	})
}

// GetAsync runs Get without blocking the caller.
func (c *Cache[T]) GetAsync(ctx context.Context, key any) *future.Future[T] {
	return future.Go(ctx, func(ctx context.Context) (T, error) {
		return c.engine.Get(ctx, key)
	})
}

// TryGetAsync runs TryGet; the future carries the value and whether it
// was found.
func (c *Cache[T]) TryGetAsync(ctx context.Context, key any) *future.Future[Lookup[T]] {
	return future.Go(ctx, func(ctx context.Context) (Lookup[T], error) {
		v, ok, err := c.engine.TryGet(ctx, key)
		return Lookup[T]{Value: v, Found: ok}, err
	})
}

// HasKeyAsync runs HasKey without blocking the caller.
func (c *Cache[T]) HasKeyAsync(ctx context.Context, key any) *future.Future[bool] {
	return future.Go(ctx, func(ctx context.Context) (bool, error) {
		return c.engine.HasKey(ctx, key)
	})
}

// GetOrComputeAsync runs GetOrCompute without blocking the caller.
func (c *Cache[T]) GetOrComputeAsync(ctx context.Context, key any, factory func(context.Context) (T, error), absolute time.Time) *future.Future[T] {
	return future.Go(ctx, func(ctx context.Context) (T, error) {
		return c.engine.GetOrCompute(ctx, key, factory, absolute)
	})
}

// RemoveAsync runs Remove without blocking the caller.
func (c *Cache[T]) RemoveAsync(ctx context.Context, key any) *future.Future[bool] {
	return future.Go(ctx, func(ctx context.Context) (bool, error) {
		return c.engine.Remove(ctx, key)
	})
}

// ListKeysAsync runs ListKeys without blocking the caller.
func (c *Cache[T]) ListKeysAsync(ctx context.Context) *future.Future[[]string] {
	return future.Go(ctx, func(ctx context.Context) ([]string, error) {
		return c.engine.ListKeys(ctx)
	})
}

// ListValuesAsync runs ListValues without blocking the caller.
func (c *Cache[T]) ListValuesAsync(ctx context.Context) *future.Future[[]T] {
	return future.Go(ctx, func(ctx context.Context) ([]T, error) {
		return c.engine.ListValues(ctx)
	})
}
