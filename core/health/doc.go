// Package health provides liveness and readiness route handlers.
//
//	r.Get("/health/live", health.Liveness[*router.Context])
//	r.Get("/health/ready", health.Readiness[*router.Context](log, srv.Healthcheck))
//
// Readiness runs every check in order with the request context and stops at
// the first failure.
package health
