// Package server runs an http.Handler with production timeouts and graceful
// shutdown. It is the process-level transport for a router Dispatcher.
//
//	import "github.com/dmitrymomot/waypoint/core/server"
//
//	srv := server.New(":8080",
//		server.WithLogger(log),
//		server.WithShutdownTimeout(10*time.Second),
//	)
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, r.Build()))
//	if err := g.Wait(); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// # Configuration
//
// Config is populated from SERVER_* environment variables through the config
// package and turned into a Server with NewFromConfig. Options passed to
// NewFromConfig override values from the config.
//
// # Lifecycle
//
// Start listens and serves until its context is canceled; Stop shuts the
// underlying http.Server down within the shutdown timeout. Run combines both
// for use with errgroup. Addr reports the bound address, so ":0" can be used
// in tests.
//
// Upgraded WebSocket connections are hijacked from http.Server and are not
// waited for during shutdown.
package server
