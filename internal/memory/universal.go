package memory

import (
	"context"
	"reflect"
	"time"

	apperrors "globalcache/internal/common/errors"
	"globalcache/internal/common/future"
)

// Universal is a local cache with one slot per Go type. The key of a slot is
// the fully-qualified name of the type stored in it, so callers never manage
// keys. The general Cache[any] operations remain available.
type Universal struct {
	*Cache[any]
}

// NewUniversal creates a type-keyed local cache.
func NewUniversal(opts Options) *Universal {
	return &Universal{Cache: New[any](opts)}
}

// TypeKey returns the slot key used for T: "import/path.Name" for named
// types and the type literal otherwise.
func TypeKey[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// InsertOf stores value in the slot of T.
func InsertOf[T any](ctx context.Context, u *Universal, value T, absolute time.Time, sliding time.Duration) error {
	return u.Insert(ctx, TypeKey[T](), value, absolute, sliding)
}

// InsertMinutesOf stores value in the slot of T for the given minutes.
func InsertMinutesOf[T any](ctx context.Context, u *Universal, value T, minutes int, sliding time.Duration) error {
	return u.InsertMinutes(ctx, TypeKey[T](), value, minutes, sliding)
}

// InsertOfAsync runs InsertOf without blocking the caller.
func InsertOfAsync[T any](ctx context.Context, u *Universal, value T, absolute time.Time, sliding time.Duration) *future.Future[struct{}] {
	return future.Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, InsertOf(ctx, u, value, absolute, sliding)
	})
}

// GetOf returns the value in the slot of T, or the zero value.
func GetOf[T any](ctx context.Context, u *Universal) (T, error) {
	v, _, err := TryGetOf[T](ctx, u)
	return v, err
}

// GetOfAsync runs GetOf without blocking the caller.
func GetOfAsync[T any](ctx context.Context, u *Universal) *future.Future[T] {
	return future.Go(ctx, func(ctx context.Context) (T, error) {
		return GetOf[T](ctx, u)
	})
}

// TryGetOf is GetOf that also reports whether the slot was filled.
func TryGetOf[T any](ctx context.Context, u *Universal) (T, bool, error) {
	var zero T
	raw, ok, err := u.TryGet(ctx, TypeKey[T]())
	if err != nil || !ok {
		return zero, false, err
	}
	v, ok := raw.(T)
	return v, ok, nil
}

// HasOf reports whether the slot of T is filled.
func HasOf[T any](ctx context.Context, u *Universal) (bool, error) {
	_, ok, err := TryGetOf[T](ctx, u)
	return ok, err
}

// GetOrComputeOf fills the slot of T from factory on a miss.
func GetOrComputeOf[T any](ctx context.Context, u *Universal, factory func(context.Context) (T, error), absolute time.Time) (T, error) {
	var zero T
	if factory == nil {
		return zero, apperrors.ValidationError("value factory is required")
	}
	raw, err := u.GetOrCompute(ctx, TypeKey[T](), func(ctx context.Context) (any, error) {
		return factory(ctx)
	}, absolute)
	if err != nil {
		return zero, err
	}
	v, _ := raw.(T)
	return v, nil
}

// RemoveOf empties the slot of T.
func RemoveOf[T any](ctx context.Context, u *Universal) (bool, error) {
	return u.Remove(ctx, TypeKey[T]())
}
