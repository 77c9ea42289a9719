package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// LogLevel is a zap level restricted to the range the cache emits.
type LogLevel int8

const (
	DebugLevel = LogLevel(zapcore.DebugLevel)
	InfoLevel  = LogLevel(zapcore.InfoLevel)
	WarnLevel  = LogLevel(zapcore.WarnLevel)
	ErrorLevel = LogLevel(zapcore.ErrorLevel)
)

func (l LogLevel) String() string {
	if l < DebugLevel || l > ErrorLevel {
		return "UNKNOWN"
	}
	return zapcore.Level(l).CapitalString()
}

func (l LogLevel) zap() zapcore.Level {
	if l < DebugLevel || l > ErrorLevel {
		return zapcore.InfoLevel
	}
	return zapcore.Level(l)
}

// ParseLevel reads a LOG_LEVEL value. Unknown or empty input means info;
// panic and fatal are capped at error.
func ParseLevel(s string) LogLevel {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return WarnLevel
	}
	var lvl zapcore.Level
	if s == "" || lvl.UnmarshalText([]byte(s)) != nil {
		return InfoLevel
	}
	if lvl > zapcore.ErrorLevel {
		return ErrorLevel
	}
	return LogLevel(lvl)
}
