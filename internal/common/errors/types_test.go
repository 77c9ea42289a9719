package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		want     string
	}{
		{
			name: "basic error",
			appError: &AppError{
				Type:    ErrTypeConfig,
				Message: "configuration is invalid",
			},
			want: "config: configuration is invalid",
		},
		{
			name: "error with code",
			appError: &AppError{
				Type:    ErrTypeValidation,
				Message: "key is required",
				Code:    "KEY001",
			},
			want: "validation: key is required: code=KEY001",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeConnection,
				Message: "redis connection failed",
				Cause:   errors.New("dial tcp: refused"),
			},
			want: "connection: redis connection failed: cause=dial tcp: refused",
		},
		{
			name: "context is rendered in key order",
			appError: &AppError{
				Type:    ErrTypeInternal,
				Message: "script failed",
				Context: map[string]interface{}{
					"key":      "orders:1",
					"endpoint": "localhost:6379",
				},
			},
			want: "internal: script failed: context={endpoint=localhost:6379, key=orders:1}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appError.Error()
			if got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_WithContextAndCode(t *testing.T) {
	appError := ValidationError("absolute expiration must be in the future")

	result := appError.WithContext("key", "k1").WithCode("EXP001")
	if result != appError {
		t.Error("builders should return the same instance")
	}
	if appError.Context["key"] != "k1" {
		t.Errorf("Context[key] = %v, want k1", appError.Context["key"])
	}
	if appError.Code != "EXP001" {
		t.Errorf("Code = %v, want EXP001", appError.Code)
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name    string
		err     *AppError
		errType ErrorType
		message string
		cause   error
	}{
		{"validation", ValidationError("key is required"), ErrTypeValidation, "key is required", nil},
		{"connection", ConnectionError("connect failed", cause), ErrTypeConnection, "connect failed", cause},
		{"config", ConfigError("bad size"), ErrTypeConfig, "bad size", nil},
		{"internal", InternalError("hmget failed", cause), ErrTypeInternal, "hmget failed", cause},
		{"timeout", TimeoutError("connect"), ErrTypeTimeout, "timeout during connect", nil},
		{"cancelled", CancelledError("scan", context.Canceled), ErrTypeCancelled, "scan cancelled", context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.errType {
				t.Errorf("Type = %v, want %v", tt.err.Type, tt.errType)
			}
			if tt.err.Message != tt.message {
				t.Errorf("Message = %v, want %v", tt.err.Message, tt.message)
			}
			if tt.err.Cause != tt.cause {
				t.Errorf("Cause = %v, want %v", tt.err.Cause, tt.cause)
			}
		})
	}
}

func TestIsType(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		errType ErrorType
		want    bool
	}{
		{"matching type", ConfigError("test"), ErrTypeConfig, true},
		{"non-matching type", ConfigError("test"), ErrTypeConnection, false},
		{"wrapped app error", fmt.Errorf("insert: %w", ValidationError("nil key")), ErrTypeValidation, true},
		{"non-app error", errors.New("regular error"), ErrTypeConfig, false},
		{"nil error", nil, ErrTypeConfig, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsType(tt.err, tt.errType); got != tt.want {
				t.Errorf("IsType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetType(t *testing.T) {
	if got := GetType(ConnectionError("x", nil)); got != ErrTypeConnection {
		t.Errorf("GetType() = %v, want %v", got, ErrTypeConnection)
	}
	if got := GetType(errors.New("plain")); got != ErrTypeInternal {
		t.Errorf("GetType() = %v, want %v", got, ErrTypeInternal)
	}
	if got := GetType(nil); got != "" {
		t.Errorf("GetType(nil) = %v, want empty", got)
	}
}

func TestErrorChaining(t *testing.T) {
	wrappedErr := CancelledError("list values", context.DeadlineExceeded)

	if !errors.Is(wrappedErr, context.DeadlineExceeded) {
		t.Error("errors.Is should see through AppError")
	}

	var appErr *AppError
	if !errors.As(fmt.Errorf("outer: %w", wrappedErr), &appErr) {
		t.Fatal("errors.As should find the AppError")
	}
	if appErr.Type != ErrTypeCancelled {
		t.Errorf("type = %v, want %v", appErr.Type, ErrTypeCancelled)
	}
}
