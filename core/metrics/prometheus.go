package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/waypoint/core/handler"
	"github.com/dmitrymomot/waypoint/core/router"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "waypoint"

// UnmatchedPattern labels requests that matched no route, keeping label
// cardinality bounded by the number of registered routes.
const UnmatchedPattern = "unmatched"

// Recorder is a Prometheus implementation of router.Recorder.
type Recorder struct {
	resolutions *prometheus.CounterVec
	evictions   prometheus.Counter
	requests    *prometheus.HistogramVec
	websockets  *prometheus.GaugeVec
}

var _ router.Recorder = (*Recorder)(nil)

// Option configures a Recorder.
type Option func(*options)

type options struct {
	namespace string
	buckets   []float64
}

// WithNamespace overrides DefaultNamespace.
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithBuckets sets the request duration histogram buckets in seconds.
func WithBuckets(buckets ...float64) Option {
	return func(o *options) {
		if len(buckets) > 0 {
			o.buckets = buckets
		}
	}
}

// NewRecorder creates the router collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer, opts ...Option) (*Recorder, error) {
	o := options{namespace: DefaultNamespace, buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Recorder{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Subsystem: "route",
			Name:      "resolutions_total",
			Help:      "Route lookups by method and the structure that answered them.",
		}, []string{"method", "source"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: o.namespace,
			Subsystem: "route",
			Name:      "cache_evictions_total",
			Help:      "Entries evicted from the route resolution cache.",
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time spent dispatching requests.",
			Buckets:   o.buckets,
		}, []string{"method", "pattern", "status"}),
		websockets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: o.namespace,
			Subsystem: "websocket",
			Name:      "connections",
			Help:      "Open WebSocket connections by path.",
		}, []string{"path"}),
	}

	for _, c := range []prometheus.Collector{r.resolutions, r.evictions, r.requests, r.websockets} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register router metrics: %w", err)
		}
	}
	return r, nil
}

// ObserveResolve implements router.Recorder.
func (r *Recorder) ObserveResolve(method string, source router.ResolveSource) {
	r.resolutions.WithLabelValues(method, string(source)).Inc()
}

// ObserveCacheEviction implements router.Recorder.
func (r *Recorder) ObserveCacheEviction() {
	r.evictions.Inc()
}

// ObserveRequest implements router.Recorder.
func (r *Recorder) ObserveRequest(method, pattern string, status int, d time.Duration) {
	if pattern == "" {
		pattern = UnmatchedPattern
	}
	r.requests.WithLabelValues(method, pattern, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveWebSocket implements router.Recorder.
func (r *Recorder) ObserveWebSocket(path string, delta int) {
	r.websockets.WithLabelValues(path).Add(float64(delta))
}

// Handler returns a route handler exposing the metrics gathered by g.
func Handler[C handler.Context](g prometheus.Gatherer) handler.HandlerFunc[C] {
	h := promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	return func(C) (any, error) {
		return handler.Response(func(w http.ResponseWriter, r *http.Request) error {
			h.ServeHTTP(w, r)
			return nil
		}), nil
	}
}
