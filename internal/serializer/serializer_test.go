package serializer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "globalcache/internal/common/errors"
)

type order struct {
	ID    string   `json:"id" msgpack:"id"`
	Total float64  `json:"total" msgpack:"total"`
	Tags  []string `json:"tags" msgpack:"tags"`
}

func codecs() map[string]Serializer {
	return map[string]Serializer{
		"json":    JSON{},
		"msgpack": Msgpack{},
	}
}

func TestSerializeKey(t *testing.T) {
	for name, s := range codecs() {
		t.Run(name, func(t *testing.T) {
			t.Run("string passes through", func(t *testing.T) {
				key, err := s.SerializeKey("orders:1")
				require.NoError(t, err)
				assert.Equal(t, "orders:1", key)
			})

			t.Run("structured keys are stable", func(t *testing.T) {
				k1, err := s.SerializeKey(order{ID: "a", Total: 1})
				require.NoError(t, err)
				k2, err := s.SerializeKey(order{ID: "a", Total: 1})
				require.NoError(t, err)
				k3, err := s.SerializeKey(order{ID: "b", Total: 1})
				require.NoError(t, err)

				assert.Equal(t, k1, k2)
				assert.NotEqual(t, k1, k3)
			})

			t.Run("nil key is rejected", func(t *testing.T) {
				_, err := s.SerializeKey(nil)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

				var p *order
				_, err = s.SerializeKey(p)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
			})
		})
	}
}

func TestJSONKeyForm(t *testing.T) {
	key, err := JSON{}.SerializeKey(42)
	require.NoError(t, err)
	assert.Equal(t, "42", key)

	key, err = JSON{}.SerializeKey(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, key)
}

func TestRoundTrip(t *testing.T) {
	for name, s := range codecs() {
		t.Run(name, func(t *testing.T) {
			t.Run("struct", func(t *testing.T) {
				in := order{ID: "o-1", Total: 12.5, Tags: []string{"x", "y"}}
				data, err := s.SerializeValue(in)
				require.NoError(t, err)
				assert.Equal(t, in, Deserialize[order](s, data))
			})

			t.Run("pointer", func(t *testing.T) {
				in := &order{ID: "o-2"}
				data, err := s.SerializeValue(in)
				require.NoError(t, err)
				out := Deserialize[*order](s, data)
				require.NotNil(t, out)
				assert.Equal(t, *in, *out)
			})

			t.Run("scalars", func(t *testing.T) {
				data, err := s.SerializeValue(7)
				require.NoError(t, err)
				assert.Equal(t, 7, Deserialize[int](s, data))

				data, err = s.SerializeValue("text")
				require.NoError(t, err)
				assert.Equal(t, "text", Deserialize[string](s, data))
			})

			t.Run("map", func(t *testing.T) {
				in := map[string]int{"a": 1, "b": 2}
				data, err := s.SerializeValue(in)
				require.NoError(t, err)
				assert.Equal(t, in, Deserialize[map[string]int](s, data))
			})

			t.Run("bytes pass through", func(t *testing.T) {
				in := []byte{0x00, 0xff, 0x10}
				data, err := s.SerializeValue(in)
				require.NoError(t, err)
				assert.Equal(t, in, data)
				assert.Equal(t, in, Deserialize[[]byte](s, data))
			})

			t.Run("string input is accepted", func(t *testing.T) {
				data, err := s.SerializeValue(order{ID: "o-3"})
				require.NoError(t, err)
				assert.Equal(t, "o-3", Deserialize[order](s, string(data)).ID)
			})
		})
	}
}

func TestDeserializeNeverFails(t *testing.T) {
	s := JSON{}

	assert.Equal(t, 0, Deserialize[int](s, 12))
	assert.Equal(t, order{}, Deserialize[order](s, nil))
	assert.Equal(t, order{}, Deserialize[order](s, []byte("not json")))
	assert.Nil(t, Deserialize[*order](s, []byte(`"a string"`)))

	_, err := TryDeserialize[order](s, []byte("not json"))
	assert.Error(t, err)
}

func TestTryDeserializeRawBytesIntoInterface(t *testing.T) {
	for name, s := range codecs() {
		t.Run(name, func(t *testing.T) {
			in := []byte{0xc1, 'r', 'a', 'w'}
			data, err := s.SerializeValue(in)
			require.NoError(t, err)

			out, err := TryDeserialize[any](s, data)
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}

	t.Run("encoded values still decode", func(t *testing.T) {
		out, err := TryDeserialize[any](JSON{}, []byte(`{"a":1}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": float64(1)}, out)
	})

	t.Run("concrete types keep the error", func(t *testing.T) {
		_, err := TryDeserialize[fmt.Stringer](JSON{}, []byte("raw"))
		assert.Error(t, err)
	})
}

func TestSerializeValueRejectsNil(t *testing.T) {
	for name, s := range codecs() {
		t.Run(name, func(t *testing.T) {
			_, err := s.SerializeValue(nil)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
		})
	}
}

func TestSerializeValueUnsupported(t *testing.T) {
	_, err := JSON{}.SerializeValue(make(chan int))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInternal))
}

func TestAsyncVariants(t *testing.T) {
	ctx := context.Background()
	s := Default()

	key, err := SerializeKeyAsync(ctx, s, 5).Get()
	require.NoError(t, err)
	assert.Equal(t, "5", key)

	data, err := SerializeValueAsync(ctx, s, order{ID: "async"}).Get()
	require.NoError(t, err)

	out, err := DeserializeAsync[order](ctx, s, data).Get()
	require.NoError(t, err)
	assert.Equal(t, "async", out.ID)
}

func TestIsNil(t *testing.T) {
	var p *order
	var m map[string]int
	assert.True(t, IsNil(nil))
	assert.True(t, IsNil(p))
	assert.True(t, IsNil(m))
	assert.False(t, IsNil(0))
	assert.False(t, IsNil(""))
	assert.False(t, IsNil(&order{}))
}
