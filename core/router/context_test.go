package router_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/waypoint/core/router"
)

func TestContext_Params(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/users/7", nil)
	ctx := router.NewContext(httptest.NewRecorder(), req, map[string]string{"id": "7"})

	assert.Equal(t, "7", ctx.Param("id"))
	assert.Empty(t, ctx.Param("missing"))
	assert.Equal(t, map[string]string{"id": "7"}, ctx.Params())

	empty := router.NewContext(httptest.NewRecorder(), req, nil)
	assert.Empty(t, empty.Param("id"))
}

func TestContext_DelegatesToRequestContext(t *testing.T) {
	t.Parallel()

	type key struct{}
	parent, cancel := context.WithTimeout(context.WithValue(context.Background(), key{}, "v"), time.Minute)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(parent)
	ctx := router.NewContext(httptest.NewRecorder(), req, nil)

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.False(t, deadline.IsZero())
	assert.Equal(t, "v", ctx.Value(key{}))
	assert.NoError(t, ctx.Err())

	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestContext_SetValue(t *testing.T) {
	t.Parallel()

	type key struct{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := router.NewContext(httptest.NewRecorder(), req, nil)

	ctx.SetValue(key{}, 42)
	assert.Equal(t, 42, ctx.Value(key{}))
	assert.Equal(t, 42, ctx.Request().Context().Value(key{}))
	assert.Nil(t, req.Context().Value(key{}), "original request is untouched")
}

func TestContext_Body(t *testing.T) {
	t.Parallel()

	t.Run("memoized and re-readable", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
		ctx := router.NewContext(httptest.NewRecorder(), req, nil)

		first, err := ctx.Body()
		require.NoError(t, err)
		second, err := ctx.Body()
		require.NoError(t, err)

		assert.Equal(t, `{"a":1}`, string(first))
		assert.Equal(t, first, second)

		rest, err := io.ReadAll(ctx.Request().Body)
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(rest))
	})

	t.Run("no body", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := router.NewContext(httptest.NewRecorder(), req, nil)

		body, err := ctx.Body()
		assert.NoError(t, err)
		assert.Empty(t, body)
	})

	t.Run("through the dispatcher", func(t *testing.T) {
		t.Parallel()
		r := router.New[*router.Context]()
		r.Post("/echo", func(ctx *router.Context) (any, error) {
			return ctx.Body()
		})

		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("ping"))
		rec := do(r.Build(), req)
		assert.Equal(t, "ping", rec.Body.String())
	})
}
