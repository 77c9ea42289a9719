package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "globalcache/internal/common/errors"
	"globalcache/internal/common/logging"
)

type settings struct {
	Theme string
}

type limits struct {
	MaxConnections int
}

func newTestUniversal(t *testing.T) *Universal {
	t.Helper()
	u := NewUniversal(Options{Logger: logging.NewNopLogger()})
	t.Cleanup(func() { _ = u.Close() })
	return u
}

func TestTypeKey(t *testing.T) {
	assert.Equal(t, "globalcache/internal/memory.settings", TypeKey[settings]())
	assert.Equal(t, "*memory.settings", TypeKey[*settings]())
	assert.Equal(t, "int", TypeKey[int]())
	assert.Equal(t, "[]string", TypeKey[[]string]())
	assert.NotEqual(t, TypeKey[settings](), TypeKey[limits]())
}

func TestUniversal_SlotsPerType(t *testing.T) {
	ctx := context.Background()
	u := newTestUniversal(t)

	require.NoError(t, InsertOf(ctx, u, settings{Theme: "dark"}, time.Time{}, 0))
	require.NoError(t, InsertMinutesOf(ctx, u, limits{MaxConnections: 8}, 5, 0))

	s, err := GetOf[settings](ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "dark", s.Theme)

	l, ok, err := TryGetOf[limits](ctx, u)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 8, l.MaxConnections)

	require.NoError(t, InsertOf(ctx, u, settings{Theme: "light"}, time.Time{}, 0))
	s, err = GetOf[settings](ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "light", s.Theme)

	keys, err := u.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{TypeKey[limits](), TypeKey[settings]()}, keys)
}

func TestUniversal_Miss(t *testing.T) {
	ctx := context.Background()
	u := newTestUniversal(t)

	s, err := GetOf[settings](ctx, u)
	require.NoError(t, err)
	assert.Equal(t, settings{}, s)

	has, err := HasOf[settings](ctx, u)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestUniversal_GetOrComputeOf(t *testing.T) {
	ctx := context.Background()
	u := newTestUniversal(t)
	calls := 0

	factory := func(ctx context.Context) (settings, error) {
		calls++
		return settings{Theme: "computed"}, nil
	}

	for i := 0; i < 3; i++ {
		s, err := GetOrComputeOf(ctx, u, factory, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, "computed", s.Theme)
	}
	assert.Equal(t, 1, calls)

	_, err := GetOrComputeOf[limits](ctx, u, nil, time.Time{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestUniversal_RemoveOf(t *testing.T) {
	ctx := context.Background()
	u := newTestUniversal(t)
	require.NoError(t, InsertOf(ctx, u, limits{MaxConnections: 1}, time.Time{}, 0))

	removed, err := RemoveOf[limits](ctx, u)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = RemoveOf[limits](ctx, u)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestUniversal_Async(t *testing.T) {
	ctx := context.Background()
	u := newTestUniversal(t)

	_, err := InsertOfAsync(ctx, u, settings{Theme: "async"}, time.Time{}, 0).Wait(ctx)
	require.NoError(t, err)

	s, err := GetOfAsync[settings](ctx, u).Get()
	require.NoError(t, err)
	assert.Equal(t, "async", s.Theme)
}
