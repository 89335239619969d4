package router_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrymomot/waypoint/core/router"
)

type observedRequest struct {
	method  string
	pattern string
	status  int
}

type recorder struct {
	mu        sync.Mutex
	sources   []router.ResolveSource
	evictions int
	requests  []observedRequest
	sockets   map[string]int
}

func (r *recorder) ObserveResolve(_ string, source router.ResolveSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
}

func (r *recorder) ObserveCacheEviction() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictions++
}

func (r *recorder) ObserveRequest(method, pattern string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, observedRequest{method: method, pattern: pattern, status: status})
}

func (r *recorder) ObserveWebSocket(path string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sockets == nil {
		r.sockets = make(map[string]int)
	}
	r.sockets[path] += delta
}

func (r *recorder) lastSource() router.ResolveSource {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sources) == 0 {
		return ""
	}
	return r.sources[len(r.sources)-1]
}

func (r *recorder) evicted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictions
}

func (r *recorder) openSockets(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sockets[path]
}

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func text(s string) func(*router.Context) (any, error) {
	return func(*router.Context) (any, error) {
		return s, nil
	}
}

func newRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
