// Package router maps an incoming (method, path) pair to a compiled chain of
// middlewares plus a terminal handler, and dispatches WebSocket endpoints
// registered alongside HTTP routes.
//
// # Two Phases
//
// Routes are registered on a Router during setup. Build freezes the registry
// and returns a Dispatcher, the http.Handler that serves traffic. Any
// registration after Build panics with ErrRouterFrozen.
//
//	import "github.com/dmitrymomot/waypoint/core/router"
//
//	r := router.New[*router.Context]()
//	r.Use(requestLogger)
//
//	r.Get("/health", func(ctx *router.Context) (any, error) {
//		return "ok", nil
//	})
//	r.Get("/users/:id", func(ctx *router.Context) (any, error) {
//		return users.Find(ctx, ctx.Param("id"))
//	})
//	r.Get("/files/*", serveFile)
//
//	http.ListenAndServe(":8080", r.Build())
//
// # Path Syntax
//
// Paths are split on '/' and empty segments are dropped, so "/users/" and
// "/users" are the same route. A segment is either a literal, a parameter
// (":name") or a trailing wildcard ("*"). Segments after a wildcard are
// unreachable and are dropped at registration.
//
// Paths without parameters or wildcards live in a flat table and are resolved
// with one map lookup. Other paths live in a segment trie where, at every
// level, a literal child wins over the parameter child, which wins over the
// wildcard. A wildcard matches any non-empty remainder without capturing it.
// Only one parameter name may exist at a trie position: registering
// "/users/:id" and "/users/:name/posts" fails with ErrParamConflict.
//
// # Resolution Cache
//
// Successful trie lookups are memoized in a bounded FIFO cache keyed by method
// and normalized path (WithCacheSize, default DefaultCacheSize). Misses are
// never cached. The cache needs no invalidation because the registry cannot
// change after Build.
//
// # Middleware
//
// Each route's chain is compiled once at registration from the global
// middlewares, then group middlewares, then route middlewares. The first
// middleware is the outermost layer:
//
//	r.Use(a, b)
//	r.Get("/x", h, c) // a -> b -> c -> h -> c -> b -> a
//
// Global middlewares must be added before the first route.
//
// # Groups
//
// With, Group and Route return views over the same registry that add a path
// prefix and middlewares:
//
//	r.Route("/api/v1", func(api router.Router[*router.Context]) {
//		api.Get("/users", listUsers)
//		api.Post("/users", createUser)
//	}, authMiddleware)
//
// # Responses
//
// Handlers return (any, error). A handler.Response renders itself; strings,
// byte slices, numbers and booleans become text/plain; other values are
// encoded as JSON. Context.Status sets the status for converted values.
// A nil result without an error is a chain failure reported as ErrNilResponse.
//
// # Error Handling
//
// Errors from handlers, unmatched routes, panics and render failures go to
// the error handler with a freshly created context. The default handler
// writes the status of errors implementing StatusCode() int (404 for
// ErrRouteNotFound) and a generic 500 for everything else. Set NotFound to
// replace the 404 path entirely.
//
// # WebSockets
//
// WebSocket endpoints are registered with lifecycle callbacks. Their paths
// take precedence over HTTP routes for every method:
//
//	r.WebSocket("/ws/chat", router.WebSocketHandlers[*router.Context]{
//		OnConnect: func(ctx *router.Context) error { return authorize(ctx) },
//		Open:      func(c *router.Conn) { hub.Join(c) },
//		Message:   func(c *router.Conn, typ router.MessageType, data []byte) { hub.Broadcast(data) },
//		Close:     func(c *router.Conn, code int, reason string) { hub.Leave(c) },
//		Drain:     func(c *router.Conn) { hub.Resume(c) },
//	})
package router
