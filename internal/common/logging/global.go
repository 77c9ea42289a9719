package logging

import "sync/atomic"

type loggerRef struct{ Logger }

var global atomic.Pointer[loggerRef]

// SetGlobalLogger replaces the process logger. A nil logger restores the
// env-driven default on next use.
func SetGlobalLogger(logger Logger) {
	if logger == nil {
		global.Store(nil)
		return
	}
	global.Store(&loggerRef{logger})
}

// GetGlobalLogger returns the process logger, building the default one on
// first use.
func GetGlobalLogger() Logger {
	for {
		if ref := global.Load(); ref != nil {
			return ref.Logger
		}
		global.CompareAndSwap(nil, &loggerRef{NewDefaultLogger()})
	}
}

// ForComponent tags logger with a component name. Engines pass their
// configured logger, which may be nil.
func ForComponent(logger Logger, component string) Logger {
	if logger == nil {
		logger = GetGlobalLogger()
	}
	return logger.WithFields(String("component", component))
}
