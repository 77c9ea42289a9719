package redis

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "globalcache/internal/common/errors"
	"globalcache/internal/common/logging"
)

func TestStore_Keys(t *testing.T) {
	store, mr := setupTestStore(t, Options{InstanceName: "app:"})
	ctx := context.Background()

	for _, k := range []string{"user:1", "user:2", "order:1"} {
		require.NoError(t, store.Set(ctx, k, []byte("v"), EntryOptions{}))
	}
	_, err := store.AcquireLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	mr.HSet("other:user:3", fieldAbsolute, "-1", fieldSliding, "-1", fieldData, "v")

	t.Run("prefix", func(t *testing.T) {
		keys, err := store.Keys(ctx, "user")
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, keys)
	})

	t.Run("no prefix lists data keys of the instance", func(t *testing.T) {
		keys, err := store.Keys(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"order:1", "user:1", "user:2"}, keys)
	})

	t.Run("unknown prefix", func(t *testing.T) {
		keys, err := store.Keys(ctx, "invoice")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}

func TestStore_KeysEscapesGlob(t *testing.T) {
	store, mr := setupTestStore(t, Options{InstanceName: "x[1]*:"})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "t:a", []byte("v"), EntryOptions{}))
	mr.HSet("x1zz:t:b", fieldAbsolute, "-1", fieldSliding, "-1", fieldData, "v")

	keys, err := store.Keys(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keys)
}

func TestListValues(t *testing.T) {
	store, mr := setupTestStore(t, Options{InstanceName: "app:", Workers: 4})
	ctx := context.Background()

	const total = 10_001
	for i := 0; i < total; i++ {
		mr.HSet(fmt.Sprintf("app:n:%05d", i), fieldAbsolute, "-1", fieldSliding, "-1", fieldData, strconv.Itoa(i))
	}
	mr.HSet("app:other:1", fieldAbsolute, "-1", fieldSliding, "-1", fieldData, "x")

	values, err := ListValues(ctx, store, "n", func(_ context.Context, data []byte) (int, error) {
		return strconv.Atoi(string(data))
	})
	require.NoError(t, err)
	require.Len(t, values, total)
	for i, v := range values {
		if v != i {
			t.Fatalf("values[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestListValues_ConvertError(t *testing.T) {
	store, mr := setupTestStore(t, Options{Workers: 2})
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		mr.HSet(fmt.Sprintf("n:%d", i), fieldAbsolute, "-1", fieldSliding, "-1", fieldData, strconv.Itoa(i))
	}
	mr.HSet("n:bad", fieldAbsolute, "-1", fieldSliding, "-1", fieldData, "not a number")

	values, err := ListValues(ctx, store, "n", func(_ context.Context, data []byte) (int, error) {
		return strconv.Atoi(string(data))
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInternal))
	assert.Nil(t, values)
}

func TestListValues_Cancelled(t *testing.T) {
	store, mr := setupTestStore(t, Options{})
	require.NoError(t, store.Health(context.Background()))
	mr.HSet("n:1", fieldAbsolute, "-1", fieldSliding, "-1", fieldData, "1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	values, err := ListValues(ctx, store, "n", func(_ context.Context, data []byte) (int, error) {
		return strconv.Atoi(string(data))
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeCancelled))
	assert.Nil(t, values)
}

func TestListValues_ConnectionFailure(t *testing.T) {
	store := NewStore(Options{Configuration: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, Logger: logging.NewNopLogger()})
	defer store.Close()

	_, err := ListValues(context.Background(), store, "n", func(_ context.Context, data []byte) ([]byte, error) {
		return data, nil
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConnection))
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `app:`, escapeGlob("app:"))
	assert.Equal(t, `a\*b\?\[c\]\\`, escapeGlob(`a*b?[c]\`))
}
