package logging

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel(" warning "))
	assert.Equal(t, ErrorLevel, ParseLevel("ERROR"))
	assert.Equal(t, InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
	assert.Equal(t, ErrorLevel, ParseLevel("fatal"))
	assert.Equal(t, ErrorLevel, ParseLevel("dpanic"))
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	opts := OptionsFromEnv()
	assert.Equal(t, DebugLevel, opts.Level)
	assert.Equal(t, "globalcache", opts.Name)
	assert.Nil(t, opts.Output)
}

func TestZapAdapter(t *testing.T) {
	t.Run("levels", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewZapLogger(Options{Level: DebugLevel, Output: &buf})
		require.NoError(t, err)

		logger.Debug("debug message", String("key", "orders:1"))
		logger.Info("info message", Int("count", 42))
		logger.Warn("warn message", Bool("evicted", true))
		logger.Error("error message", errors.New("dial failed"), Duration("after", time.Second))

		output := buf.String()
		assert.Contains(t, output, "DEBUG")
		assert.Contains(t, output, "debug message")
		assert.Contains(t, output, "orders:1")
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "WARN")
		assert.Contains(t, output, "ERROR")
		assert.Contains(t, output, "dial failed")
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewZapLogger(Options{Level: WarnLevel, Output: &buf})
		require.NoError(t, err)

		logger.Debug("hidden debug")
		logger.Info("hidden info")
		logger.Warn("visible warn")

		output := buf.String()
		assert.NotContains(t, output, "hidden")
		assert.Contains(t, output, "visible warn")
	})

	t.Run("with fields and name", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewZapLogger(Options{Level: InfoLevel, Output: &buf, Name: "globalcache"})
		require.NoError(t, err)

		logger.WithFields(Field{"component", "redis"}).Info("connected")

		output := buf.String()
		assert.Contains(t, output, "globalcache")
		assert.Contains(t, output, "component")
		assert.Contains(t, output, "redis")
	})

	t.Run("with context", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewZapLogger(Options{Level: InfoLevel, Output: &buf})
		require.NoError(t, err)

		ctx := context.WithValue(context.Background(), OperationIDKey, "op-7")
		ctx = context.WithValue(ctx, CacheNameKey, "sessions")
		logger.WithContext(ctx).Info("lookup")

		output := buf.String()
		assert.Contains(t, output, "op-7")
		assert.Contains(t, output, "sessions")

		plain := logger.WithContext(context.Background())
		assert.Same(t, logger, plain)
	})
}

func TestForComponent(t *testing.T) {
	var buf bytes.Buffer
	base, err := NewZapLogger(Options{Level: InfoLevel, Output: &buf})
	require.NoError(t, err)

	ForComponent(base, "memory").Info("evicted")
	assert.Contains(t, buf.String(), "memory")

	assert.NotNil(t, ForComponent(nil, "memory"))
}

func TestGlobalLogger(t *testing.T) {
	previous := GetGlobalLogger()
	t.Cleanup(func() { SetGlobalLogger(previous) })

	var buf bytes.Buffer
	logger, err := NewZapLogger(Options{Level: DebugLevel, Output: &buf})
	require.NoError(t, err)
	SetGlobalLogger(logger)

	assert.Same(t, logger, GetGlobalLogger())

	ForComponent(nil, "redis").Error("global error", errors.New("cause"))
	output := buf.String()
	assert.Contains(t, output, "global error")
	assert.Contains(t, output, "redis")
	assert.Contains(t, output, "cause")

	SetGlobalLogger(nil)
	fallback := GetGlobalLogger()
	require.NotNil(t, fallback)
	assert.NotSame(t, logger, fallback)
	assert.Same(t, fallback, GetGlobalLogger())
}

func TestInitGlobalLogger(t *testing.T) {
	previous := GetGlobalLogger()
	t.Cleanup(func() { SetGlobalLogger(previous) })

	path := filepath.Join(t.TempDir(), "cache.log")
	t.Setenv("LOG_FILE", path)
	t.Setenv("LOG_LEVEL", "info")

	closer, err := InitGlobalLogger()
	require.NoError(t, err)

	GetGlobalLogger().Info("written to file")
	MustSync()
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("nothing")
	logger.Error("nothing", errors.New("x"))
	assert.NotNil(t, logger.WithFields(Any("k", 1)))
}
