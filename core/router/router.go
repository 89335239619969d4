package router

import (
	"github.com/dmitrymomot/waypoint/core/handler"
)

// Router is the registration surface of the router. Routes, middlewares and
// WebSocket endpoints are registered on it during application setup; Build
// then freezes the registry and returns the Dispatcher that serves traffic.
//
// A Router is not safe for concurrent use. Registration after Build panics
// with ErrRouterFrozen.
type Router[C handler.Context] interface {
	Routes

	// HTTP method handlers. Setup errors such as duplicate routes panic.
	Get(pattern string, h handler.HandlerFunc[C], mws ...handler.Middleware[C])
	Post(pattern string, h handler.HandlerFunc[C], mws ...handler.Middleware[C])
	Put(pattern string, h handler.HandlerFunc[C], mws ...handler.Middleware[C])
	Delete(pattern string, h handler.HandlerFunc[C], mws ...handler.Middleware[C])
	Patch(pattern string, h handler.HandlerFunc[C], mws ...handler.Middleware[C])
	Head(pattern string, h handler.HandlerFunc[C], mws ...handler.Middleware[C])
	Options(pattern string, h handler.HandlerFunc[C], mws ...handler.Middleware[C])

	// Handle registers a handler for a single method and returns setup
	// errors instead of panicking.
	Handle(method, pattern string, h handler.HandlerFunc[C], mws ...handler.Middleware[C]) error

	// Middleware
	Use(middlewares ...handler.Middleware[C])
	With(middlewares ...handler.Middleware[C]) Router[C]

	// Grouping
	Group(fn func(r Router[C])) Router[C]
	Route(prefix string, fn func(r Router[C]), middlewares ...handler.Middleware[C]) Router[C]

	// NotFound sets the handler used when no route matches.
	NotFound(h handler.HandlerFunc[C])

	// WebSocket registers lifecycle callbacks for a WebSocket endpoint.
	// The path is served as WebSocket-only and takes precedence over any
	// HTTP route registered for it.
	WebSocket(pattern string, handlers WebSocketHandlers[C])

	// Build freezes the registry and returns the dispatcher.
	// Calling Build again returns the same dispatcher.
	Build() *Dispatcher[C]
}

// Routes provides route introspection capabilities for debugging and monitoring.
type Routes interface {
	Routes() []Route
}

// Route describes a single route in the router with its HTTP method and pattern.
// WebSocket endpoints are reported with MethodWebSocket.
type Route struct {
	Method  string
	Pattern string
}

// MethodWebSocket is the pseudo method reported by Routes for WebSocket endpoints.
const MethodWebSocket = "WEBSOCKET"

// New creates a new router with the given options.
// The router supports generic context types for type-safe request handling.
func New[C handler.Context](opts ...Option[C]) Router[C] {
	return newMux[C](opts...)
}
