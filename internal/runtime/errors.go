package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/wavefn/internal/registry"
)

// DispatchErrorCode categorizes dispatch errors.
type DispatchErrorCode string

const (
	// ErrCodeUnknownCall indicates a call name with no handler.
	ErrCodeUnknownCall DispatchErrorCode = "UNKNOWN_CALL"

	// ErrCodeEngineStopped indicates the call was dropped because the loop exited.
	ErrCodeEngineStopped DispatchErrorCode = "ENGINE_STOPPED"
)

// DispatchError is a call the engine refused before reaching the registry.
type DispatchError struct {
	// Code identifies the error category.
	Code DispatchErrorCode

	// Message is a human-readable description.
	Message string

	// CallID identifies the affected call.
	CallID string

	// Call is the requested call name.
	Call string
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	if e.CallID != "" {
		return fmt.Sprintf("%s: %s (call=%s)", e.Code, e.Message, e.CallID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewUnknownCallError creates a DispatchError for an unrecognized call name.
func NewUnknownCallError(callID, name string) *DispatchError {
	return &DispatchError{
		Code:    ErrCodeUnknownCall,
		Message: fmt.Sprintf("no handler for call %q", name),
		CallID:  callID,
		Call:    name,
	}
}

// IsUnknownCall returns true if err is an unknown call error.
// Uses errors.As to handle wrapped errors.
func IsUnknownCall(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == ErrCodeUnknownCall
	}
	return false
}

// Codes reported by ErrorCode for errors without a typed code.
const (
	CodeCancelled = "CANCELLED"
	CodeInternal  = "INTERNAL"
)

// ErrorCode returns the stable code for err: a registry or dispatch code,
// CANCELLED for context errors, INTERNAL for anything else, "" for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if code := registry.CodeOf(err); code != "" {
		return string(code)
	}
	var de *DispatchError
	if errors.As(err, &de) {
		return string(de.Code)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancelled
	}
	return CodeInternal
}
