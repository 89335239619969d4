// Package logger provides structured logging helpers built on Go's standard slog package.
//
// New creates a configured *slog.Logger:
//
//	import "github.com/dmitrymomot/waypoint/core/logger"
//
//	log := logger.New(logger.WithDevelopment("api"))
//	log = logger.New(logger.WithProduction("api"), logger.WithOutput(os.Stdout))
//
// Attribute helpers keep keys consistent across the router, middlewares and
// application code:
//
//	log.Info("request",
//		logger.Method(r.Method),
//		logger.Path(r.URL.Path),
//		logger.StatusCode(200),
//		logger.Latency(time.Since(start)),
//	)
//
// Helpers for optional values (Error, RequestID, Pattern, Query, Key) return
// the empty slog.Attr when the value is missing, which slog drops from output.
package logger
