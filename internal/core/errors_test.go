// internal/core/errors_test.go
package core

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{Code: "TEST_ERROR", Message: "test message"}
	if err.Error() != "[TEST_ERROR] test message" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Code: "WRAP", Message: "wrapped", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should return cause")
	}
}

func TestError_Is(t *testing.T) {
	if !errors.Is(ErrDataQuality, ErrDataQuality) {
		t.Error("same error should match")
	}
	if errors.Is(ErrDataQuality, ErrAlignment) {
		t.Error("different codes should not match")
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("original")
	wrapped := WrapError(ErrFetchFailed, cause)
	if wrapped.Cause != cause {
		t.Error("cause not set")
	}
	if wrapped.Code != ErrFetchFailed.Code {
		t.Error("code not preserved")
	}
	if !errors.Is(wrapped, ErrFetchFailed) {
		t.Error("wrapped error should match its base")
	}
}

func TestWrapErrorf(t *testing.T) {
	err := WrapErrorf(ErrDataQuality, "bad bar at index %d", 7)
	if !errors.Is(err, ErrDataQuality) {
		t.Error("formatted error should match its base")
	}
	if !strings.Contains(err.Error(), "bad bar at index 7") {
		t.Errorf("detail missing from message: %s", err.Error())
	}
}
