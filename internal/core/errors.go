// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// WrapErrorf creates a new error with the same code and a formatted detail
// message appended to the base message.
func WrapErrorf(base *Error, format string, args ...any) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message + ": " + fmt.Sprintf(format, args...),
	}
}

// Predefined errors
var (
	// Simulation pipeline errors
	ErrDataQuality = &Error{Code: "DATA_QUALITY", Message: "price series failed quality checks"}
	ErrAlignment   = &Error{Code: "ALIGNMENT", Message: "price and signal series are misaligned"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Data acquisition errors
	ErrSymbolInvalid = &Error{Code: "SYMBOL_INVALID", Message: "symbol is not valid"}
	ErrFetchFailed   = &Error{Code: "FETCH_FAILED", Message: "fetching price data failed"}
	ErrNoData        = &Error{Code: "NO_DATA", Message: "no data available"}
	ErrCacheMiss     = &Error{Code: "CACHE_MISS", Message: "no cached data for request"}

	// Lookup and access errors
	ErrNotFound     = &Error{Code: "NOT_FOUND", Message: "resource not found"}
	ErrUnauthorized = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid API key"}

	// Advisor errors
	ErrAdvisorFailed = &Error{Code: "ADVISOR_FAILED", Message: "advisor request failed"}
)
