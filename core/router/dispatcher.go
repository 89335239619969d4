package router

import (
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/waypoint/core/cache"
	"github.com/dmitrymomot/waypoint/core/handler"
	"github.com/dmitrymomot/waypoint/core/logger"
)

// Match is the result of a route lookup.
type Match[C handler.Context] struct {
	// Handler is the compiled middleware chain, nil when nothing matched.
	Handler handler.HandlerFunc[C]
	// Params holds captured path parameters. It may be shared with the
	// resolution cache and must be treated as read-only.
	Params map[string]string
	// Pattern is the normalized pattern of the matched route.
	Pattern string
}

// Found reports whether the lookup matched a route.
func (m Match[C]) Found() bool {
	return m.Handler != nil
}

type cachedMatch[C handler.Context] struct {
	route  *route[C]
	params map[string]string
}

// Dispatcher serves requests from a frozen registry. It is safe for
// concurrent use; the resolution cache is its only mutable state.
type Dispatcher[C handler.Context] struct {
	static   map[routeKey]*route[C]
	tree     *node[C]
	cache    *cache.FIFOCache[routeKey, cachedMatch[C]]
	notFound handler.HandlerFunc[C]
	ws       *wsRegistry[C]
	routes   []Route

	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request, map[string]string) C
	logger       *slog.Logger
	recorder     Recorder
}

func newDispatcher[C handler.Context](reg *registry[C]) *Dispatcher[C] {
	d := &Dispatcher[C]{
		static:       reg.static,
		tree:         reg.tree,
		cache:        cache.NewFIFOCache[routeKey, cachedMatch[C]](reg.cacheSize),
		ws:           reg.ws,
		routes:       sortedRoutes(reg.routes),
		errorHandler: reg.errorHandler,
		newContext:   reg.newContext,
		logger:       reg.logger,
		recorder:     reg.recorder,
	}

	rec := reg.recorder
	d.cache.SetEvictCallback(func(routeKey, cachedMatch[C]) {
		rec.ObserveCacheEviction()
	})

	// Not-found responses pass through global middlewares like any route.
	if reg.notFound != nil {
		d.notFound = chain(reg.middlewares, reg.notFound)
	}

	d.ws.freeze(reg.logger, reg.recorder)
	return d
}

// Find resolves method and path to a compiled chain. Static routes are
// answered from the flat table, dynamic routes from the resolution cache or,
// on a cache miss, from a trie walk whose successful result is cached.
// Misses are never cached. The method is matched case-insensitively.
func (d *Dispatcher[C]) Find(method, path string) Match[C] {
	method = strings.ToUpper(method)
	path = normalizePath(path)
	key := routeKey{method: method, path: path}

	if rt, ok := d.static[key]; ok {
		d.recorder.ObserveResolve(method, ResolveStatic)
		return Match[C]{Handler: rt.chain, Pattern: rt.pattern}
	}

	if cm, ok := d.cache.Get(key); ok {
		d.recorder.ObserveResolve(method, ResolveCache)
		return Match[C]{Handler: cm.route.chain, Params: cm.params, Pattern: cm.route.pattern}
	}

	rt, params := d.tree.match(method, splitPath(path))
	if rt == nil {
		d.recorder.ObserveResolve(method, ResolveMiss)
		return Match[C]{}
	}

	d.cache.Put(key, cachedMatch[C]{route: rt, params: params})
	d.recorder.ObserveResolve(method, ResolveTree)
	return Match[C]{Handler: rt.chain, Params: params, Pattern: rt.pattern}
}

// Routes returns all registered routes sorted by pattern and method.
func (d *Dispatcher[C]) Routes() []Route {
	return slices.Clone(d.routes)
}

// ServeHTTP implements http.Handler interface.
func (d *Dispatcher[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ww := newResponseWriter(w)

	// Use RawPath if available to preserve URL encoding
	path := r.URL.Path
	if r.URL.RawPath != "" {
		path = r.URL.RawPath
	}
	path = normalizePath(path)

	// WebSocket paths win over HTTP routes regardless of method.
	if d.ws.has(path) {
		d.serveWebSocket(ww, r, path)
		d.recorder.ObserveRequest(r.Method, path, ww.Status(), time.Since(start))
		return
	}

	match := d.Find(r.Method, path)
	pattern := match.Pattern

	// Recover from panics to prevent server crashes
	defer func() {
		if p := recover(); p != nil {
			panicErr := &panicError{value: p, stack: debug.Stack()}

			if ww.Written() {
				// Can't send error response, just log the panic
				d.logger.Error("panic after response written",
					logger.Component("router"),
					slog.Any("value", panicErr.value),
					slog.String("stack", string(panicErr.stack)),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.StatusCode(ww.Status()),
				)
			} else {
				d.handleError(ww, r, panicErr)
			}
		}
		d.recorder.ObserveRequest(r.Method, pattern, ww.Status(), time.Since(start))
	}()

	h := match.Handler
	params := match.Params
	if h == nil {
		if d.notFound == nil {
			d.handleError(ww, r, fmt.Errorf("%w: %s %s", ErrRouteNotFound, r.Method, path))
			return
		}
		h = d.notFound
	}

	ctx := d.newContext(ww, r, maps.Clone(params))

	result, err := h(ctx)
	if err != nil {
		d.handleError(ww, r, err)
		return
	}

	status := 0
	if sp, ok := any(ctx).(statusProvider); ok {
		status = sp.ResponseStatus()
	}

	resp, err := toResponse(result, status)
	if err != nil {
		d.handleError(ww, r, err)
		return
	}

	if err := resp(ww, ctx.Request()); err != nil {
		d.handleError(ww, r, err)
	}
}

// handleError passes err to the error handler with a freshly constructed
// context, so state left behind by the failing chain does not leak into the
// error response.
func (d *Dispatcher[C]) handleError(w *responseWriter, r *http.Request, err error) {
	if w.Written() {
		d.logger.Debug("error after response written",
			logger.Component("router"),
			logger.Error(err),
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
		)
	}
	d.errorHandler(d.newContext(w, r, nil), err)
}
