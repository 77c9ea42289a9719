package serializer

import (
	"encoding/base64"

	"github.com/vmihailenco/msgpack/v5"

	apperrors "globalcache/internal/common/errors"
)

// Msgpack encodes values with MessagePack. Non-string keys are MessagePack
// encoded and then base64url'd so store keys stay printable.
type Msgpack struct{}

// SerializeKey implements Serializer.
func (Msgpack) SerializeKey(key any) (string, error) {
	if err := requireKey(key); err != nil {
		return "", err
	}
	if s, ok := key.(string); ok {
		return s, nil
	}
	data, err := msgpack.Marshal(key)
	if err != nil {
		return "", apperrors.InternalError("failed to serialize key", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// SerializeValue implements Serializer.
func (Msgpack) SerializeValue(value any) ([]byte, error) {
	if err := requireValue(value); err != nil {
		return nil, err
	}
	if b, ok := value.([]byte); ok {
		return b, nil
	}
	data, err := msgpack.Marshal(value)
	if err != nil {
		return nil, apperrors.InternalError("failed to serialize value", err)
	}
	return data, nil
}

// Unmarshal implements Serializer.
func (Msgpack) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
