package serializer

import (
	gojson "github.com/goccy/go-json"

	apperrors "globalcache/internal/common/errors"
)

// JSON encodes with goccy/go-json. Non-string keys are encoded as JSON text,
// so the key 42 and the key "42" are distinct.
type JSON struct{}

// SerializeKey implements Serializer.
func (JSON) SerializeKey(key any) (string, error) {
	if err := requireKey(key); err != nil {
		return "", err
	}
	if s, ok := key.(string); ok {
		return s, nil
	}
	data, err := gojson.Marshal(key)
	if err != nil {
		return "", apperrors.InternalError("failed to serialize key", err)
	}
	return string(data), nil
}

// SerializeValue implements Serializer.
func (JSON) SerializeValue(value any) ([]byte, error) {
	if err := requireValue(value); err != nil {
		return nil, err
	}
	if b, ok := value.([]byte); ok {
		return b, nil
	}
	data, err := gojson.Marshal(value)
	if err != nil {
		return nil, apperrors.InternalError("failed to serialize value", err)
	}
	return data, nil
}

// Unmarshal implements Serializer.
func (JSON) Unmarshal(data []byte, v any) error {
	return gojson.Unmarshal(data, v)
}
