package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrymomot/waypoint/core/handler"
	"github.com/dmitrymomot/waypoint/core/logger"
)

// routeKey identifies a route by method and normalized path.
type routeKey struct {
	method string
	path   string
}

var allowedMethods = map[string]struct{}{
	http.MethodConnect: {},
	http.MethodDelete:  {},
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodOptions: {},
	http.MethodPatch:   {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodTrace:   {},
}

// registry is the state shared by a root router and all of its groups.
// It is written during setup only and handed to the dispatcher on Build.
type registry[C handler.Context] struct {
	static      map[routeKey]*route[C]
	tree        *node[C]
	middlewares []handler.Middleware[C]
	notFound    handler.HandlerFunc[C]
	ws          *wsRegistry[C]
	routes      []Route

	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request, map[string]string) C
	logger       *slog.Logger
	recorder     Recorder
	cacheSize    int

	hasRoutes  bool
	dispatcher *Dispatcher[C]
}

// mux is the private implementation of Router interface. A root mux and its
// groups share one registry; a group only adds a prefix and middlewares.
type mux[C handler.Context] struct {
	reg         *registry[C]
	prefix      string
	middlewares []handler.Middleware[C] // group-level, empty on the root
	inline      bool
	registered  bool
}

// newMux creates a new router instance.
func newMux[C handler.Context](opts ...Option[C]) *mux[C] {
	m := &mux[C]{
		reg: &registry[C]{
			static:       make(map[routeKey]*route[C]),
			tree:         &node[C]{},
			ws:           newWSRegistry[C](),
			errorHandler: defaultErrorHandler[C],
			logger:       logger.Nop(),
			recorder:     nopRecorder{},
			cacheSize:    DefaultCacheSize,
		},
	}

	for _, opt := range opts {
		opt(m)
	}

	// If no context factory provided, require it for non-default contexts
	if m.reg.newContext == nil {
		var zero C
		if _, ok := any(zero).(*Context); !ok {
			panic(ErrNoContextFactory)
		}
		m.reg.newContext = func(w http.ResponseWriter, r *http.Request, params map[string]string) C {
			return any(NewContext(w, r, params)).(C)
		}
	}

	return m
}

// Get registers a handler for GET requests.
func (m *mux[C]) Get(pattern string, h handler.HandlerFunc[C], mws ...handler.Middleware[C]) {
	m.mustHandle(http.MethodGet, pattern, h, mws)
}

// Post registers a handler for POST requests.
func (m *mux[C]) Post(pattern string, h handler.HandlerFunc[C], mws ...handler.Middleware[C]) {
	m.mustHandle(http.MethodPost, pattern, h, mws)
}

// Put registers a handler for PUT requests.
func (m *mux[C]) Put(pattern string, h handler.HandlerFunc[C], mws ...handler.Middleware[C]) {
	m.mustHandle(http.MethodPut, pattern, h, mws)
}

// Delete registers a handler for DELETE requests.
func (m *mux[C]) Delete(pattern string, h handler.HandlerFunc[C], mws ...handler.Middleware[C]) {
	m.mustHandle(http.MethodDelete, pattern, h, mws)
}

// Patch registers a handler for PATCH requests.
func (m *mux[C]) Patch(pattern string, h handler.HandlerFunc[C], mws ...handler.Middleware[C]) {
	m.mustHandle(http.MethodPatch, pattern, h, mws)
}

// Head registers a handler for HEAD requests.
func (m *mux[C]) Head(pattern string, h handler.HandlerFunc[C], mws ...handler.Middleware[C]) {
	m.mustHandle(http.MethodHead, pattern, h, mws)
}

// Options registers a handler for OPTIONS requests.
func (m *mux[C]) Options(pattern string, h handler.HandlerFunc[C], mws ...handler.Middleware[C]) {
	m.mustHandle(http.MethodOptions, pattern, h, mws)
}

// Handle registers a handler for the given method.
func (m *mux[C]) Handle(method, pattern string, h handler.HandlerFunc[C], mws ...handler.Middleware[C]) error {
	return m.handle(method, pattern, h, mws)
}

// Use appends middleware. On the root router it adds global middleware,
// on a group it adds middleware for routes registered on that group.
// Middleware must be added before routes, because chains are compiled at
// registration time.
func (m *mux[C]) Use(middlewares ...handler.Middleware[C]) {
	m.assertMutable()
	if !m.inline {
		if m.reg.hasRoutes {
			panic("waypoint: all middlewares must be defined before routes on a mux")
		}
		m.reg.middlewares = append(m.reg.middlewares, middlewares...)
		return
	}
	if m.registered {
		panic("waypoint: all middlewares must be defined before routes on a group")
	}
	m.middlewares = append(m.middlewares, middlewares...)
}

// With creates a new inline router with additional middleware.
func (m *mux[C]) With(middlewares ...handler.Middleware[C]) Router[C] {
	return m.group("", middlewares)
}

// Group creates a new inline router for grouping routes.
func (m *mux[C]) Group(fn func(r Router[C])) Router[C] {
	im := m.group("", nil)
	if fn != nil {
		fn(im)
	}
	return im
}

// Route creates a group whose routes share the given path prefix and middlewares.
func (m *mux[C]) Route(prefix string, fn func(r Router[C]), middlewares ...handler.Middleware[C]) Router[C] {
	if prefix == "" || prefix[0] != '/' {
		panic(fmt.Errorf("%w: group prefix '%s' must begin with '/'", ErrInvalidPattern, prefix))
	}
	im := m.group(prefix, middlewares)
	if fn != nil {
		fn(im)
	}
	return im
}

// NotFound sets the handler used when no route matches.
func (m *mux[C]) NotFound(h handler.HandlerFunc[C]) {
	m.assertMutable()
	m.reg.notFound = h
}

// WebSocket registers lifecycle callbacks for a WebSocket endpoint.
func (m *mux[C]) WebSocket(pattern string, handlers WebSocketHandlers[C]) {
	m.assertMutable()
	path, err := m.fullPattern(pattern)
	if err == nil {
		err = m.reg.ws.register(path, handlers)
	}
	if err != nil {
		panic(err)
	}
	m.reg.routes = append(m.reg.routes, Route{Method: MethodWebSocket, Pattern: path})
	m.reg.logger.Debug("websocket registered", logger.Component("router"), logger.Path(path))
}

// Routes returns all registered routes sorted by pattern and method.
func (m *mux[C]) Routes() []Route {
	return sortedRoutes(m.reg.routes)
}

func sortedRoutes(routes []Route) []Route {
	routes = slices.Clone(routes)
	slices.SortFunc(routes, func(a, b Route) int {
		if c := strings.Compare(a.Pattern, b.Pattern); c != 0 {
			return c
		}
		return strings.Compare(a.Method, b.Method)
	})
	return routes
}

// Build freezes the registry and returns the dispatcher.
func (m *mux[C]) Build() *Dispatcher[C] {
	if m.reg.dispatcher == nil {
		m.reg.dispatcher = newDispatcher(m.reg)
	}
	return m.reg.dispatcher
}

func (m *mux[C]) group(prefix string, middlewares []handler.Middleware[C]) *mux[C] {
	m.assertMutable()

	mws := make([]handler.Middleware[C], 0, len(m.middlewares)+len(middlewares))
	mws = append(mws, m.middlewares...)
	mws = append(mws, middlewares...)

	return &mux[C]{
		reg:         m.reg,
		prefix:      m.joinPrefix(prefix),
		middlewares: mws,
		inline:      true,
	}
}

func (m *mux[C]) joinPrefix(prefix string) string {
	if prefix == "" {
		return m.prefix
	}
	return strings.TrimRight(m.prefix, "/") + "/" + strings.Trim(prefix, "/")
}

func (m *mux[C]) fullPattern(pattern string) (string, error) {
	if pattern == "" || pattern[0] != '/' {
		return "", fmt.Errorf("%w: '%s' must begin with '/'", ErrInvalidPattern, pattern)
	}
	if m.prefix == "" {
		return pattern, nil
	}
	return strings.TrimRight(m.prefix, "/") + pattern, nil
}

func (m *mux[C]) assertMutable() {
	if m.reg.dispatcher != nil {
		panic(ErrRouterFrozen)
	}
}

func (m *mux[C]) mustHandle(method, pattern string, h handler.HandlerFunc[C], mws []handler.Middleware[C]) {
	if err := m.handle(method, pattern, h, mws); err != nil {
		panic(err)
	}
}

// handle compiles the route chain and stores the route either in the static
// table or in the trie.
func (m *mux[C]) handle(method, pattern string, h handler.HandlerFunc[C], mws []handler.Middleware[C]) error {
	if m.reg.dispatcher != nil {
		return ErrRouterFrozen
	}
	if h == nil {
		return fmt.Errorf("%w for %s %s", ErrNilHandler, method, pattern)
	}

	method = strings.ToUpper(method)
	if _, ok := allowedMethods[method]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidMethod, method)
	}

	full, err := m.fullPattern(pattern)
	if err != nil {
		return err
	}
	segs, dynamic, truncated, err := parsePattern(full)
	if err != nil {
		return err
	}
	normalized := joinPath(segs)
	if truncated {
		m.reg.logger.Warn("segments after wildcard are unreachable and were dropped",
			logger.Component("router"),
			logger.Pattern(full),
			logger.Path(normalized),
		)
	}

	// Global, then group, then route middlewares: the first registered is outermost.
	all := make([]handler.Middleware[C], 0, len(m.reg.middlewares)+len(m.middlewares)+len(mws))
	all = append(all, m.reg.middlewares...)
	all = append(all, m.middlewares...)
	all = append(all, mws...)

	rt := &route[C]{
		method:  method,
		pattern: normalized,
		handler: h,
		chain:   chain(all, h),
	}

	if dynamic {
		if err := m.reg.tree.insert(method, segs, rt); err != nil {
			return err
		}
	} else {
		key := routeKey{method: method, path: normalized}
		if _, exists := m.reg.static[key]; exists {
			return fmt.Errorf("%w: %s %s", ErrRouteExists, method, normalized)
		}
		m.reg.static[key] = rt
	}

	m.reg.hasRoutes = true
	m.registered = true
	m.reg.routes = append(m.reg.routes, Route{Method: method, Pattern: normalized})
	m.reg.logger.Debug("route registered",
		logger.Component("router"),
		logger.Method(method),
		logger.Pattern(normalized),
		slog.Bool("dynamic", dynamic),
	)
	return nil
}
