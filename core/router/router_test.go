package router_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/waypoint/core/handler"
	"github.com/dmitrymomot/waypoint/core/router"
)

func TestRouter_Registration(t *testing.T) {
	t.Parallel()

	t.Run("duplicate static route", func(t *testing.T) {
		t.Parallel()
		r := router.New[*router.Context]()
		require.NoError(t, r.Handle(http.MethodGet, "/users", text("a")))

		err := r.Handle(http.MethodGet, "/users/", text("b"))
		assert.ErrorIs(t, err, router.ErrRouteExists)

		// Same path, other method is a different route.
		assert.NoError(t, r.Handle(http.MethodPost, "/users", text("c")))
	})

	t.Run("duplicate dynamic route", func(t *testing.T) {
		t.Parallel()
		r := router.New[*router.Context]()
		require.NoError(t, r.Handle(http.MethodGet, "/users/:id", text("a")))

		err := r.Handle(http.MethodGet, "/users/:id", text("b"))
		assert.ErrorIs(t, err, router.ErrRouteExists)
	})

	t.Run("method helpers panic on setup errors", func(t *testing.T) {
		t.Parallel()
		r := router.New[*router.Context]()
		r.Get("/users", text("a"))

		assert.Panics(t, func() { r.Get("/users", text("b")) })
		assert.Panics(t, func() { r.Get("users", text("b")) })
		assert.Panics(t, func() { r.Post("/x", nil) })
	})

	t.Run("conflicting parameter names", func(t *testing.T) {
		t.Parallel()
		r := router.New[*router.Context]()
		require.NoError(t, r.Handle(http.MethodGet, "/users/:id", text("a")))

		err := r.Handle(http.MethodGet, "/users/:name/posts", text("b"))
		assert.ErrorIs(t, err, router.ErrParamConflict)
	})

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()
		r := router.New[*router.Context]()

		assert.ErrorIs(t, r.Handle("FETCH", "/x", text("a")), router.ErrInvalidMethod)
		assert.ErrorIs(t, r.Handle(http.MethodGet, "/x/:", text("a")), router.ErrInvalidPattern)
		assert.ErrorIs(t, r.Handle(http.MethodGet, "/x/:id/:id", text("a")), router.ErrDuplicateParam)
		assert.ErrorIs(t, r.Handle(http.MethodGet, "/x", nil), router.ErrNilHandler)
	})

	t.Run("lowercase method is accepted", func(t *testing.T) {
		t.Parallel()
		r := router.New[*router.Context]()
		require.NoError(t, r.Handle("get", "/x", text("ok")))

		rec := serve(t, r.Build(), http.MethodGet, "/x")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("frozen after build", func(t *testing.T) {
		t.Parallel()
		r := router.New[*router.Context]()
		r.Get("/x", text("ok"))

		d := r.Build()
		assert.Same(t, d, r.Build(), "build is idempotent")

		assert.ErrorIs(t, r.Handle(http.MethodGet, "/y", text("y")), router.ErrRouterFrozen)
		assert.PanicsWithValue(t, router.ErrRouterFrozen, func() { r.Get("/z", text("z")) })
		assert.PanicsWithValue(t, router.ErrRouterFrozen, func() { r.NotFound(text("nf")) })
	})

	t.Run("custom context requires factory", func(t *testing.T) {
		t.Parallel()
		assert.PanicsWithValue(t, router.ErrNoContextFactory, func() {
			router.New[*customContext]()
		})
	})
}

func TestRouter_Routes(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Post("/users", text("create"))
	r.Get("/users", text("list"))
	r.Route("/api", func(api router.Router[*router.Context]) {
		api.Get("/items/:id/", text("item"))
	})
	r.Get("/files/*/ignored", text("files"))
	r.WebSocket("/ws", router.WebSocketHandlers[*router.Context]{})

	want := []router.Route{
		{Method: http.MethodGet, Pattern: "/api/items/:id"},
		{Method: http.MethodGet, Pattern: "/files/*"},
		{Method: http.MethodGet, Pattern: "/users"},
		{Method: http.MethodPost, Pattern: "/users"},
		{Method: router.MethodWebSocket, Pattern: "/ws"},
	}
	assert.Equal(t, want, r.Routes())
	assert.Equal(t, want, r.Build().Routes())
}

func TestDispatcher_Find(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	r := router.New(router.WithRecorder[*router.Context](rec))
	r.Get("/health", text("ok"))
	r.Get("/route/:id", text("one"))
	r.Get("/route/:id/test/:name", text("two"))
	r.Get("/files/*", text("files"))
	d := r.Build()

	t.Run("static lookup skips the cache", func(t *testing.T) {
		for range 3 {
			m := d.Find(http.MethodGet, "/health")
			require.True(t, m.Found())
			assert.Equal(t, "/health", m.Pattern)
			assert.Empty(t, m.Params)
			assert.Equal(t, router.ResolveStatic, rec.lastSource())
		}
	})

	t.Run("parameter capture", func(t *testing.T) {
		m := d.Find(http.MethodGet, "/route/12398")
		require.True(t, m.Found())
		assert.Equal(t, "/route/:id", m.Pattern)
		assert.Equal(t, map[string]string{"id": "12398"}, m.Params)
	})

	t.Run("arity mismatch", func(t *testing.T) {
		assert.False(t, d.Find(http.MethodGet, "/route").Found())
		assert.False(t, d.Find(http.MethodGet, "/route/12398/extra").Found())
		assert.Equal(t, router.ResolveMiss, rec.lastSource())
	})

	t.Run("two parameters", func(t *testing.T) {
		m := d.Find(http.MethodGet, "/route/12398/test/asdf")
		require.True(t, m.Found())
		assert.Equal(t, map[string]string{"id": "12398", "name": "asdf"}, m.Params)
	})

	t.Run("wildcard", func(t *testing.T) {
		m := d.Find(http.MethodGet, "/files/a/b/c")
		require.True(t, m.Found())
		assert.Equal(t, "/files/*", m.Pattern)
		assert.Empty(t, m.Params)
	})

	t.Run("unregistered method", func(t *testing.T) {
		assert.False(t, d.Find(http.MethodDelete, "/health").Found())
		assert.False(t, d.Find(http.MethodDelete, "/route/1").Found())
	})

	t.Run("second lookup is served from cache", func(t *testing.T) {
		d.Find(http.MethodGet, "/route/cached")
		assert.Equal(t, router.ResolveTree, rec.lastSource())

		m := d.Find(http.MethodGet, "/route/cached/")
		assert.Equal(t, router.ResolveCache, rec.lastSource())
		assert.Equal(t, "cached", m.Params["id"])
	})
}

func TestDispatcher_MissesAreNotCached(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	r := router.New(
		router.WithCacheSize[*router.Context](1),
		router.WithRecorder[*router.Context](rec),
	)
	r.Get("/items/:id", text("item"))
	d := r.Build()

	d.Find(http.MethodGet, "/items/1")
	require.Equal(t, router.ResolveTree, rec.lastSource())

	for range 5 {
		assert.False(t, d.Find(http.MethodGet, "/items/1/extra").Found())
		assert.Equal(t, router.ResolveMiss, rec.lastSource())
		assert.False(t, d.Find(http.MethodPost, "/items/1").Found())
		assert.Equal(t, router.ResolveMiss, rec.lastSource())
	}

	// The single cache slot still holds the only hit.
	d.Find(http.MethodGet, "/items/1")
	assert.Equal(t, router.ResolveCache, rec.lastSource())
	assert.Zero(t, rec.evicted())
}

func TestDispatcher_FindMethodCase(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	require.NoError(t, r.Handle("get", "/users/:id", text("user")))
	r.Get("/health", text("ok"))
	d := r.Build()

	m := d.Find("get", "/users/7")
	require.True(t, m.Found())
	assert.Equal(t, "7", m.Params["id"])
	assert.True(t, d.Find("Get", "/health").Found())
	assert.True(t, d.Find(http.MethodGet, "/users/7").Found())
}

func TestDispatcher_CacheEviction(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	r := router.New(
		router.WithCacheSize[*router.Context](2),
		router.WithRecorder[*router.Context](rec),
	)
	r.Get("/items/:id", text("item"))
	d := r.Build()

	d.Find(http.MethodGet, "/items/1")
	d.Find(http.MethodGet, "/items/2")
	d.Find(http.MethodGet, "/items/1")
	assert.Equal(t, router.ResolveCache, rec.lastSource())
	assert.Zero(t, rec.evicted())

	// Third distinct key evicts the oldest inserted one, even though it was read last.
	d.Find(http.MethodGet, "/items/3")
	assert.Equal(t, 1, rec.evicted())

	m := d.Find(http.MethodGet, "/items/1")
	require.True(t, m.Found())
	assert.Equal(t, router.ResolveTree, rec.lastSource(), "evicted key is re-resolved from the trie")
	assert.Equal(t, "1", m.Params["id"])

	m = d.Find(http.MethodGet, "/items/3")
	assert.Equal(t, router.ResolveCache, rec.lastSource())
	assert.Equal(t, "3", m.Params["id"])
}

func TestDispatcher_CacheDisabled(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	cfg := router.DefaultConfig()
	cfg.CacheSize = 0
	r := router.New(
		router.WithConfig[*router.Context](cfg),
		router.WithRecorder[*router.Context](rec),
	)
	r.Get("/items/:id", text("item"))
	d := r.Build()

	for range 3 {
		m := d.Find(http.MethodGet, "/items/7")
		require.True(t, m.Found())
		assert.Equal(t, router.ResolveTree, rec.lastSource())
	}
}

func TestRouter_Groups(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Route("/api", func(api router.Router[*router.Context]) {
		api.Route("/v1", func(v1 router.Router[*router.Context]) {
			v1.Get("/users/:id", func(ctx *router.Context) (any, error) {
				return "user " + ctx.Param("id"), nil
			})
		})
		api.Group(func(g router.Router[*router.Context]) {
			g.Get("/status", text("up"))
		})
	})
	d := r.Build()

	rec := serve(t, d, http.MethodGet, "/api/v1/users/42")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user 42", rec.Body.String())

	rec = serve(t, d, http.MethodGet, "/api/status")
	assert.Equal(t, "up", rec.Body.String())

	rec = serve(t, d, http.MethodGet, "/status")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Panics(t, func() {
		router.New[*router.Context]().Route("api", nil)
	})
}

type customContext struct {
	*router.Context
	user string
}

func TestRouter_CustomContext(t *testing.T) {
	t.Parallel()

	factory := func(w http.ResponseWriter, req *http.Request, params map[string]string) *customContext {
		return &customContext{Context: router.NewContext(w, req, params), user: req.Header.Get("X-User")}
	}

	r := router.New(router.WithContextFactory(factory))
	r.Get("/me/:section", func(ctx *customContext) (any, error) {
		ctx.Status(http.StatusAccepted)
		return ctx.user + ":" + ctx.Param("section"), nil
	})

	req := newRequest(http.MethodGet, "/me/profile")
	req.Header.Set("X-User", "alice")
	rec := do(r.Build(), req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "alice:profile", rec.Body.String())
}

var _ handler.Context = (*customContext)(nil)
