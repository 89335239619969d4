package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/waypoint/core/handler"
)

func testRoute(pattern string) *route[*Context] {
	return &route[*Context]{pattern: pattern}
}

func mustInsert(t *testing.T, n *node[*Context], method, pattern string) *route[*Context] {
	t.Helper()
	segs, _, _, err := parsePattern(pattern)
	require.NoError(t, err)
	rt := testRoute(joinPath(segs))
	require.NoError(t, n.insert(method, segs, rt))
	return rt
}

func TestSplitPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want []string
	}{
		{"/", []string{}},
		{"", []string{}},
		{"/users", []string{"users"}},
		{"/users/", []string{"users"}},
		{"//users//1/", []string{"users", "1"}},
		{"users/1", []string{"users", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, splitPath(tt.path))
		})
	}
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/", normalizePath(""))
	assert.Equal(t, "/", normalizePath("/"))
	assert.Equal(t, "/", normalizePath("///"))
	assert.Equal(t, "/a/b", normalizePath("/a/b"))
	assert.Equal(t, "/a/b", normalizePath("/a/b/"))
	assert.Equal(t, "/a/b", normalizePath("a//b"))
}

func TestParsePattern(t *testing.T) {
	t.Parallel()

	t.Run("static", func(t *testing.T) {
		t.Parallel()
		segs, dynamic, truncated, err := parsePattern("/api/users/")
		require.NoError(t, err)
		assert.Equal(t, []string{"api", "users"}, segs)
		assert.False(t, dynamic)
		assert.False(t, truncated)
	})

	t.Run("param and wildcard are dynamic", func(t *testing.T) {
		t.Parallel()
		_, dynamic, _, err := parsePattern("/users/:id")
		require.NoError(t, err)
		assert.True(t, dynamic)

		_, dynamic, _, err = parsePattern("/files/*")
		require.NoError(t, err)
		assert.True(t, dynamic)
	})

	t.Run("segments after wildcard are dropped", func(t *testing.T) {
		t.Parallel()
		segs, _, truncated, err := parsePattern("/files/*/never/:x")
		require.NoError(t, err)
		assert.Equal(t, []string{"files", "*"}, segs)
		assert.True(t, truncated)
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()
		_, _, _, err := parsePattern("users")
		assert.ErrorIs(t, err, ErrInvalidPattern)

		_, _, _, err = parsePattern("")
		assert.ErrorIs(t, err, ErrInvalidPattern)

		_, _, _, err = parsePattern("/users/:")
		assert.ErrorIs(t, err, ErrInvalidPattern)

		_, _, _, err = parsePattern("/a/:id/b/:id")
		assert.ErrorIs(t, err, ErrDuplicateParam)
	})
}

func TestNodeMatch(t *testing.T) {
	t.Parallel()

	root := &node[*Context]{}
	byID := mustInsert(t, root, http.MethodGet, "/route/:id")
	nested := mustInsert(t, root, http.MethodGet, "/route/:id/test/:name")
	exact := mustInsert(t, root, http.MethodGet, "/route/me")
	files := mustInsert(t, root, http.MethodGet, "/files/*")

	t.Run("parameter capture", func(t *testing.T) {
		rt, params := root.match(http.MethodGet, splitPath("/route/12398"))
		assert.Same(t, byID, rt)
		assert.Equal(t, map[string]string{"id": "12398"}, params)
	})

	t.Run("arity mismatch misses", func(t *testing.T) {
		rt, _ := root.match(http.MethodGet, splitPath("/route"))
		assert.Nil(t, rt)

		rt, _ = root.match(http.MethodGet, splitPath("/route/12398/extra"))
		assert.Nil(t, rt)
	})

	t.Run("two parameters", func(t *testing.T) {
		rt, params := root.match(http.MethodGet, splitPath("/route/12398/test/asdf"))
		assert.Same(t, nested, rt)
		assert.Equal(t, map[string]string{"id": "12398", "name": "asdf"}, params)
	})

	t.Run("literal wins over parameter", func(t *testing.T) {
		rt, params := root.match(http.MethodGet, splitPath("/route/me"))
		assert.Same(t, exact, rt)
		assert.Empty(t, params)
	})

	t.Run("no backtracking after literal choice", func(t *testing.T) {
		// "me" picks the literal child, which has no "test" child.
		rt, _ := root.match(http.MethodGet, splitPath("/route/me/test/asdf"))
		assert.Nil(t, rt)
	})

	t.Run("wildcard ignores remaining depth", func(t *testing.T) {
		for _, p := range []string{"/files/a", "/files/a/b/c", "/files/a/b/c/d/e/f"} {
			rt, params := root.match(http.MethodGet, splitPath(p))
			assert.Same(t, files, rt, p)
			assert.Empty(t, params, p)
		}
	})

	t.Run("wildcard needs a segment", func(t *testing.T) {
		rt, _ := root.match(http.MethodGet, splitPath("/files"))
		assert.Nil(t, rt)
	})

	t.Run("method absent at terminal node", func(t *testing.T) {
		rt, _ := root.match(http.MethodPost, splitPath("/route/1"))
		assert.Nil(t, rt)
	})
}

func TestNodeInsertErrors(t *testing.T) {
	t.Parallel()

	t.Run("duplicate method and path", func(t *testing.T) {
		t.Parallel()
		root := &node[*Context]{}
		mustInsert(t, root, http.MethodGet, "/users/:id")

		segs := splitPath("/users/:id")
		err := root.insert(http.MethodGet, segs, testRoute("/users/:id"))
		assert.ErrorIs(t, err, ErrRouteExists)

		// Another method on the same node is fine.
		assert.NoError(t, root.insert(http.MethodPut, segs, testRoute("/users/:id")))
	})

	t.Run("conflicting parameter name", func(t *testing.T) {
		t.Parallel()
		root := &node[*Context]{}
		mustInsert(t, root, http.MethodGet, "/users/:id")

		err := root.insert(http.MethodGet, splitPath("/users/:name/posts"), testRoute("/users/:name/posts"))
		assert.ErrorIs(t, err, ErrParamConflict)

		// Reusing the same name through the position is allowed.
		assert.NoError(t, root.insert(http.MethodGet, splitPath("/users/:id/posts"), testRoute("/users/:id/posts")))
	})
}

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) handler.Middleware[*Context] {
		return func(next handler.HandlerFunc[*Context]) handler.HandlerFunc[*Context] {
			return func(ctx *Context) (any, error) {
				order = append(order, name+"-in")
				res, err := next(ctx)
				order = append(order, name+"-out")
				return res, err
			}
		}
	}

	h := chain([]handler.Middleware[*Context]{mw("a"), mw("b")}, func(*Context) (any, error) {
		order = append(order, "handler")
		return "ok", nil
	})

	res, err := h(nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, []string{"a-in", "b-in", "handler", "b-out", "a-out"}, order)
}

func TestResponseWriterTracking(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w := newResponseWriter(rec)
	assert.False(t, w.Written())

	w.WriteHeader(http.StatusCreated)
	w.WriteHeader(http.StatusTeapot)

	assert.True(t, w.Written())
	assert.Equal(t, http.StatusCreated, w.Status())
	assert.Equal(t, http.StatusCreated, rec.Code)

	_, _, err := w.Hijack()
	assert.Error(t, err, "recorder does not support hijacking")
}
