// Package serializer converts cache keys and values to and from their stored
// representation.
//
// Keys become strings and values become bytes. Both directions have a fast
// path: a string key and a []byte value are passed through untouched.
package serializer

import (
	"context"
	"reflect"

	apperrors "globalcache/internal/common/errors"
	"globalcache/internal/common/future"
)

// Serializer is implemented by every codec.
type Serializer interface {
	// SerializeKey returns the canonical string form of key.
	SerializeKey(key any) (string, error)
	// SerializeValue returns the stored byte form of value.
	SerializeValue(value any) ([]byte, error)
	// Unmarshal decodes data produced by SerializeValue or SerializeKey into v.
	Unmarshal(data []byte, v any) error
}

// Default returns the JSON codec.
func Default() Serializer {
	return JSON{}
}

// Deserialize decodes raw, which must be a []byte or a string, into a T. It
// never fails: any other input, or input that does not decode as T, yields
// the zero value of T.
func Deserialize[T any](s Serializer, raw any) T {
	v, _ := TryDeserialize[T](s, raw)
	return v
}

// TryDeserialize is Deserialize with the decode error exposed.
//
// When T is an interface that []byte satisfies, such as any, input that does
// not decode is returned as a []byte. Raw bytes that happen to be a valid
// encoding, like []byte("42") under JSON, decode as that value instead.
// Use a []byte cache to keep arbitrary bytes exact.
func TryDeserialize[T any](s Serializer, raw any) (T, error) {
	var out T

	var data []byte
	switch v := raw.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return out, apperrors.ValidationError("serialized form must be []byte or string")
	}

	// []byte values were stored without encoding.
	if p, ok := any(&out).(*[]byte); ok {
		*p = append([]byte(nil), data...)
		return out, nil
	}

	if err := s.Unmarshal(data, &out); err != nil {
		// A []byte value stored through an interface-typed cache skipped the
		// codec on the way in, so it comes back as the raw bytes.
		if raw, ok := any(append([]byte(nil), data...)).(T); ok {
			return raw, nil
		}
		var zero T
		return zero, err
	}
	return out, nil
}

// SerializeKeyAsync runs SerializeKey without blocking the caller.
func SerializeKeyAsync(ctx context.Context, s Serializer, key any) *future.Future[string] {
	return future.Go(ctx, func(context.Context) (string, error) {
		return s.SerializeKey(key)
	})
}

// SerializeValueAsync runs SerializeValue without blocking the caller.
func SerializeValueAsync(ctx context.Context, s Serializer, value any) *future.Future[[]byte] {
	return future.Go(ctx, func(context.Context) ([]byte, error) {
		return s.SerializeValue(value)
	})
}

// DeserializeAsync runs Deserialize without blocking the caller.
func DeserializeAsync[T any](ctx context.Context, s Serializer, raw any) *future.Future[T] {
	return future.Go(ctx, func(context.Context) (T, error) {
		return Deserialize[T](s, raw), nil
	})
}

// IsNil reports whether v is nil or a typed nil pointer, map, slice, chan,
// func or interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func requireKey(key any) error {
	if IsNil(key) {
		return apperrors.ValidationError("key is required")
	}
	return nil
}

func requireValue(value any) error {
	if value == nil {
		return apperrors.ValidationError("value is required")
	}
	return nil
}
