package router

import "time"

// ResolveSource tells where a route lookup was answered from.
type ResolveSource string

const (
	ResolveStatic ResolveSource = "static"
	ResolveCache  ResolveSource = "cache"
	ResolveTree   ResolveSource = "tree"
	ResolveMiss   ResolveSource = "miss"
)

// Recorder receives routing metrics. Implementations must be safe for
// concurrent use. See core/metrics for a Prometheus implementation.
type Recorder interface {
	ObserveResolve(method string, source ResolveSource)
	ObserveCacheEviction()
	ObserveRequest(method, pattern string, status int, d time.Duration)
	ObserveWebSocket(path string, delta int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveResolve(string, ResolveSource)              {}
func (nopRecorder) ObserveCacheEviction()                             {}
func (nopRecorder) ObserveRequest(string, string, int, time.Duration) {}
func (nopRecorder) ObserveWebSocket(string, int)                      {}
