// Package logging is the structured logger shared by the cache engines and
// the CLI. Entries are written through zap.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Logger is implemented by ZapAdapter. Engines take one in their options
// and fall back to the global logger.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	WithFields(fields ...Field) Logger
	WithContext(ctx context.Context) Logger
}

type Field struct {
	Key   string
	Value interface{}
}

// Options configures NewZapLogger. A nil Output means stderr.
type Options struct {
	Level  LogLevel
	Output io.Writer
	Name   string
}

// OptionsFromEnv reads LOG_LEVEL. LOG_FILE is handled by InitGlobalLogger.
func OptionsFromEnv() Options {
	return Options{Level: ParseLevel(os.Getenv("LOG_LEVEL")), Name: "globalcache"}
}

// NewDefaultLogger builds the stderr logger used until InitGlobalLogger runs.
func NewDefaultLogger() Logger {
	logger, err := NewZapLogger(OptionsFromEnv())
	if err != nil {
		panic(fmt.Sprintf("failed to initialize default zap logger: %v", err))
	}
	return logger
}

// InitGlobalLogger installs a global logger driven by LOG_LEVEL. Output goes
// to LOG_FILE when set, stderr otherwise. The returned function closes the
// log file, if any.
func InitGlobalLogger() (func() error, error) {
	config := OptionsFromEnv()
	closer := func() error { return nil }

	if logFileName := os.Getenv("LOG_FILE"); logFileName != "" {
		file, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return closer, fmt.Errorf("failed to open log file %s: %w", logFileName, err)
		}
		config.Output = file
		closer = file.Close
	}

	logger, err := NewZapLogger(config)
	if err != nil {
		_ = closer()
		return func() error { return nil }, fmt.Errorf("failed to initialize logger: %w", err)
	}

	SetGlobalLogger(logger)
	logger.Debug("Logger initialized", String("level", config.Level.String()))
	return closer, nil
}

// MustSync flushes any buffered log entries for zap loggers
func MustSync() {
	if zapLogger, ok := GetGlobalLogger().(*ZapAdapter); ok {
		_ = zapLogger.Sync()
	}
}

// Err creates an error field with key "error"
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Strings creates a string slice field
func Strings(key string, values []string) Field {
	return Field{Key: key, Value: values}
}
