package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/waypoint/core/handler"
)

// Error is a classified routing error. Two errors are considered equal by
// errors.Is when their codes match, so messages can be customized without
// losing the classification.
type Error struct {
	Status  int    // HTTP status used by the default error handler
	Code    string // Machine-readable classification
	Message string // Human-readable message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code for the error.
func (e *Error) StatusCode() int {
	return e.Status
}

// ErrorCode returns the machine-readable classification.
func (e *Error) ErrorCode() string {
	return e.Code
}

// Is matches errors by classification code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithMessage returns a copy of the error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	cp := *e
	cp.Message = message
	return &cp
}

// Classified errors raised by the router.
var (
	ErrRouteExists      = &Error{Status: http.StatusInternalServerError, Code: "ROUTE_ALREADY_REGISTERED", Message: "route already registered"}
	ErrRouteNotFound    = &Error{Status: http.StatusNotFound, Code: "ROUTE_NOT_FOUND", Message: "route not found"}
	ErrWebSocketUpgrade = &Error{Status: http.StatusBadRequest, Code: "WEBSOCKET_UPGRADE_FAILED", Message: "websocket upgrade failed"}
)

var (
	// Setup errors
	ErrNoContextFactory = errors.New("no context factory provided")
	ErrInvalidMethod    = errors.New("invalid http method")
	ErrInvalidPattern   = errors.New("invalid route path pattern")
	ErrParamConflict    = errors.New("conflicting parameter name at the same path position")
	ErrDuplicateParam   = errors.New("duplicate parameter name")
	ErrRouterFrozen     = errors.New("router is already built")
	ErrNilHandler       = errors.New("nil handler")

	// Request errors
	ErrNilResponse = errors.New("nil response")

	// WebSocket connection errors
	ErrBackpressure = errors.New("websocket send queue is full")
	ErrConnClosed   = errors.New("websocket connection closed")
)

// statusCode is an unexported interface that errors can implement
// to provide a custom HTTP status code.
type statusCode interface {
	StatusCode() int
}

// defaultErrorHandler writes a plain-text error response. Errors carrying a
// status code are reported with that status and their own message; panics and
// anything else become a generic 500 so internal details do not leak to clients.
func defaultErrorHandler[C handler.Context](ctx C, err error) {
	w := ctx.ResponseWriter()

	// Prevent double-writing responses which causes HTTP protocol errors
	if ww, ok := w.(*responseWriter); ok && ww.Written() {
		return
	}

	status := http.StatusInternalServerError
	message := http.StatusText(status)

	var pe PanicError
	var sc statusCode
	if !errors.As(err, &pe) && errors.As(err, &sc) {
		status = sc.StatusCode()
		message = err.Error()
	}

	http.Error(w, message, status)
}

// PanicError interface allows external error handlers to detect and handle panics.
// When a panic is recovered by the router, it's wrapped in an error that implements
// this interface, providing access to the original panic value and stack trace.
type PanicError interface {
	error
	// Value returns the original panic value.
	Value() any
	// Stack returns the stack trace captured at the panic point.
	Stack() []byte
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func (e *panicError) Value() any {
	return e.value
}

func (e *panicError) Stack() []byte {
	return e.stack
}

// Unwrap allows errors.Is/As to work with wrapped panics.
func (e *panicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}
