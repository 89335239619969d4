package router

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// Context is the default context implementation that delegates to the request's context.
// It lives for a single request and is never shared between goroutines by the router.
type Context struct {
	w      http.ResponseWriter
	r      *http.Request
	params map[string]string
	status int

	body     []byte
	bodyErr  error
	bodyRead bool
}

// NewContext creates a Context for one request. The params map is owned by
// the context. Custom context factories usually embed the result.
func NewContext(w http.ResponseWriter, r *http.Request, params map[string]string) *Context {
	return &Context{
		w:      w,
		r:      r,
		params: params,
	}
}

// Deadline returns the time when work done on behalf of this context should be canceled.
func (c *Context) Deadline() (deadline time.Time, ok bool) {
	return c.r.Context().Deadline()
}

// Done returns a channel that's closed when work done on behalf of this context should be canceled.
func (c *Context) Done() <-chan struct{} {
	return c.r.Context().Done()
}

// Err returns a non-nil error value after Done is closed.
func (c *Context) Err() error {
	return c.r.Context().Err()
}

// Value returns the value associated with this context for key, or nil if no value is associated with key.
func (c *Context) Value(key any) any {
	return c.r.Context().Value(key)
}

// SetValue stores a request-scoped value retrievable through Value.
func (c *Context) SetValue(key, val any) {
	c.r = c.r.WithContext(context.WithValue(c.r.Context(), key, val))
}

// Request returns the HTTP request associated with this context.
func (c *Context) Request() *http.Request {
	return c.r
}

// ResponseWriter returns the HTTP response writer associated with this context.
func (c *Context) ResponseWriter() http.ResponseWriter {
	return c.w
}

// Param returns the value of the URL parameter for the given key.
func (c *Context) Param(key string) string {
	if c.params == nil {
		return ""
	}
	return c.params[key]
}

// Params returns all captured URL parameters.
func (c *Context) Params() map[string]string {
	return c.params
}

// Header returns the response header map. Headers set here are sent with
// whatever response the handler returns.
func (c *Context) Header() http.Header {
	return c.w.Header()
}

// Status sets the status code used when the handler's return value is
// converted into a response. It has no effect on handler.Response values,
// which write their own status.
func (c *Context) Status(code int) {
	c.status = code
}

// ResponseStatus returns the status set with Status, or zero when unset.
func (c *Context) ResponseStatus() int {
	return c.status
}

// Body reads the request body on first call and returns the same bytes on
// every later call. The request body is replaced with a reader over the
// buffered bytes so downstream code can still consume it.
func (c *Context) Body() ([]byte, error) {
	if c.bodyRead {
		return c.body, c.bodyErr
	}
	c.bodyRead = true

	if c.r.Body == nil || c.r.Body == http.NoBody {
		return nil, nil
	}

	c.body, c.bodyErr = io.ReadAll(c.r.Body)
	_ = c.r.Body.Close()
	c.r.Body = io.NopCloser(bytes.NewReader(c.body))
	return c.body, c.bodyErr
}
