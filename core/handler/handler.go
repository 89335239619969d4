package handler

import "net/http"

// Response is a function that renders HTTP responses.
// It sets headers, status code, and writes the response body.
// Rendering errors are handled by the framework's error handler.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc is a type-safe HTTP request handler with custom context support.
//
// The returned value is converted into a response by the dispatcher: a Response
// is rendered as is, strings, byte slices, numbers and booleans become plain
// text, anything else is encoded as JSON. A non-nil error aborts rendering and
// is passed to the router's error handler.
type HandlerFunc[C Context] func(ctx C) (any, error)

// ErrorHandler handles errors during request processing.
type ErrorHandler[C Context] func(ctx C, err error)

// Middleware wraps handlers to add cross-cutting functionality.
// Calling next runs the rest of the chain; returning without calling it
// short-circuits the chain.
type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]
