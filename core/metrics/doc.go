// Package metrics exports router activity to Prometheus.
//
// A Recorder is passed to the router with router.WithRecorder and exposes:
//
//   - waypoint_route_resolutions_total{method,source}: where lookups were
//     answered from (static, cache, tree, miss)
//   - waypoint_route_cache_evictions_total: FIFO cache evictions
//   - waypoint_http_request_duration_seconds{method,pattern,status}: dispatch
//     latency labeled by route pattern, "unmatched" for misses
//   - waypoint_websocket_connections{path}: open WebSocket connections
//
// Usage:
//
//	reg := prometheus.NewRegistry()
//	rec, err := metrics.NewRecorder(reg)
//	if err != nil {
//		return err
//	}
//	r := router.New(router.WithRecorder[*router.Context](rec))
//	r.Get("/metrics", metrics.Handler[*router.Context](reg))
package metrics
