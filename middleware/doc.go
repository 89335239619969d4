// Package middleware provides cross-cutting middlewares for the router.
//
// Every middleware is generic over the request context type and follows the
// router's contract: it receives the rest of the chain as next, and either
// calls it and returns its result or short-circuits with its own result or
// error.
//
//	r := router.New[*router.Context]()
//	r.Use(
//		middleware.RequestID[*router.Context](),
//		middleware.ClientIP[*router.Context](),
//		middleware.LoggingWithLogger[*router.Context](log),
//		middleware.RateLimit[*router.Context](middleware.RateLimitConfig{Rate: 10, Burst: 20}),
//	)
//
// Order matters: RequestID and ClientIP store values the later middlewares
// read, so they go first.
package middleware
