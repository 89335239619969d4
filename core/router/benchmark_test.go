package router_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrymomot/waypoint/core/router"
)

func benchRouter(b *testing.B, opts ...router.Option[*router.Context]) *router.Dispatcher[*router.Context] {
	b.Helper()
	r := router.New(opts...)
	for i := range 50 {
		r.Get(fmt.Sprintf("/static/%d", i), text("ok"))
		r.Get(fmt.Sprintf("/api/v%d/users/:id/posts/:post", i), text("ok"))
	}
	r.Get("/assets/*", text("ok"))
	return r.Build()
}

func BenchmarkFind_Static(b *testing.B) {
	d := benchRouter(b)
	b.ReportAllocs()
	for b.Loop() {
		d.Find(http.MethodGet, "/static/25")
	}
}

func BenchmarkFind_DynamicCached(b *testing.B) {
	d := benchRouter(b)
	b.ReportAllocs()
	for b.Loop() {
		d.Find(http.MethodGet, "/api/v25/users/42/posts/7")
	}
}

func BenchmarkFind_DynamicUncached(b *testing.B) {
	d := benchRouter(b, router.WithCacheSize[*router.Context](0))
	b.ReportAllocs()
	for b.Loop() {
		d.Find(http.MethodGet, "/api/v25/users/42/posts/7")
	}
}

func BenchmarkFind_Wildcard(b *testing.B) {
	d := benchRouter(b)
	b.ReportAllocs()
	for b.Loop() {
		d.Find(http.MethodGet, "/assets/css/site/main.css")
	}
}

func BenchmarkServeHTTP(b *testing.B) {
	d := benchRouter(b)
	req := httptest.NewRequest(http.MethodGet, "/api/v3/users/1/posts/2", nil)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			d.ServeHTTP(httptest.NewRecorder(), req)
		}
	})
}
