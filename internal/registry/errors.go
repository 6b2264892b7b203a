package registry

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes registry errors.
type ErrorCode string

const (
	// ErrCodeUnauthenticated indicates the call carried no verified identity.
	ErrCodeUnauthenticated ErrorCode = "UNAUTHENTICATED"

	// ErrCodePayloadTooLarge indicates len(function) exceeded max_bytes.
	ErrCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
)

// Error is a registry rejection. Both codes are detected before any state
// mutation, so a returned Error always means nothing changed.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context (sizes, limits).
	Details map[string]string
}

// Sentinels for errors.Is matching. Is compares codes only, so a detailed
// Error matches its sentinel.
var (
	ErrUnauthenticated = &Error{Code: ErrCodeUnauthenticated, Message: "call has no verified origin"}
	ErrPayloadTooLarge = &Error{Code: ErrCodePayloadTooLarge, Message: "wave function exceeds max bytes"}
)

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is a registry Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewPayloadTooLargeError reports a payload of size bytes against the limit.
func NewPayloadTooLargeError(size int, maxBytes uint32) *Error {
	return &Error{
		Code:    ErrCodePayloadTooLarge,
		Message: fmt.Sprintf("wave function is %d bytes, max is %d", size, maxBytes),
		Details: map[string]string{
			"size":      fmt.Sprintf("%d", size),
			"max_bytes": fmt.Sprintf("%d", maxBytes),
		},
	}
}

// IsUnauthenticated returns true if err is, or wraps, an unauthenticated error.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsPayloadTooLarge returns true if err is, or wraps, a payload size error.
func IsPayloadTooLarge(err error) bool {
	return errors.Is(err, ErrPayloadTooLarge)
}

// CodeOf returns the registry error code carried by err, or "" if none.
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
