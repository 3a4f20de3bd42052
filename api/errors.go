// File: api/errors.go
// Package api defines common error types for hioload-accept.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "fmt"

// Common errors used across the library.
var (
	ErrAcceptorClosed  = fmt.Errorf("acceptor is closed")
	ErrListenerClosed  = fmt.Errorf("listener closed while awaiting connection")
	ErrHandlerRejected = fmt.Errorf("open handler rejected connection")
	ErrFutureCompleted = fmt.Errorf("future already completed")
	ErrConnClosed      = fmt.Errorf("connection is closed")
	ErrWouldBlock      = fmt.Errorf("operation would block")
	ErrExecutorClosed  = fmt.Errorf("executor is closed")
	ErrNotSupported    = fmt.Errorf("operation not supported on this platform")
)

// ErrorCode classifies failure conditions reported through futures.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeBind
	ErrCodeAcceptorClosed
	ErrCodeClosedDuringWait
	ErrCodeAcceptIO
	ErrCodeHandlerRejected
	ErrCodeHandlerFailure
	ErrCodeCancelled
	ErrCodeNotSupported
	ErrCodeInternal
)

// Error is a structured error with a code, message, wrapped cause and context.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the cause for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause attaches the underlying error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// CodeOf returns the ErrorCode carried by err, or ErrCodeInternal for
// unclassified errors and ErrCodeOK for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	for {
		if se, ok := err.(*Error); ok {
			return se.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ErrCodeInternal
		}
		err = u.Unwrap()
		if err == nil {
			return ErrCodeInternal
		}
	}
}
