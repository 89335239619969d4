package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dmitrymomot/waypoint/core/config"
	"github.com/dmitrymomot/waypoint/core/health"
	"github.com/dmitrymomot/waypoint/core/logger"
	"github.com/dmitrymomot/waypoint/core/metrics"
	"github.com/dmitrymomot/waypoint/core/response"
	"github.com/dmitrymomot/waypoint/core/router"
	"github.com/dmitrymomot/waypoint/core/server"
	"github.com/dmitrymomot/waypoint/middleware"
)

type nameKey struct{}

var errNameRequired = &router.Error{
	Status:  http.StatusUnauthorized,
	Code:    "NAME_REQUIRED",
	Message: "query parameter 'name' is required",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg Config
	config.MustLoad(&cfg) // panic on error

	log := logger.New(logger.WithProduction(cfg.AppName))
	if cfg.Development {
		log = logger.New(logger.WithDevelopment(cfg.AppName))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		log.Error("Failed to register metrics", logger.Component("metrics"), logger.Error(err))
		os.Exit(1)
	}

	s, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
	if err != nil {
		log.Error("Failed to create server", logger.Component("server"), logger.Error(err))
		os.Exit(1)
	}

	d := newRouter(cfg, log, rec, reg, s.Healthcheck)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(s.Run(ctx, d))

	if err := eg.Wait(); err != nil {
		log.Error("Failed to run server", logger.Component("server"), logger.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped")
}

// newRouter registers the demo routes and returns the dispatcher.
func newRouter(cfg Config, log *slog.Logger, rec router.Recorder, g prometheus.Gatherer, checks ...func(context.Context) error) *router.Dispatcher[*router.Context] {
	r := router.New(
		router.WithConfig[*router.Context](cfg.Router),
		router.WithLogger[*router.Context](log),
		router.WithRecorder[*router.Context](rec),
		router.WithErrorHandler(response.JSONErrorHandler[*router.Context]),
		router.WithMiddleware(
			middleware.RequestID[*router.Context](),
			middleware.ClientIP[*router.Context](),
			middleware.LoggingWithLogger[*router.Context](log),
		),
	)

	r.Get("/health/live", health.Liveness[*router.Context])
	r.Get("/health/ready", health.Readiness[*router.Context](log, checks...))
	r.Get("/metrics", metrics.Handler[*router.Context](g))

	r.Route("/api", func(api router.Router[*router.Context]) {
		api.Use(middleware.RateLimit[*router.Context](middleware.RateLimitConfig{
			Rate:       rate.Limit(cfg.RateLimit),
			Burst:      cfg.RateBurst,
			SetHeaders: true,
		}))
		api.Get("/routes", func(*router.Context) (any, error) {
			return r.Routes(), nil
		})
		api.Get("/echo/:word", func(ctx *router.Context) (any, error) {
			return map[string]string{"word": ctx.Param("word")}, nil
		})
		api.Post("/echo", func(ctx *router.Context) (any, error) {
			return ctx.Body()
		})
		api.Get("/static/*", func(*router.Context) (any, error) {
			return response.WithCache(
				response.StringWithStatus("file serving is not enabled", http.StatusNotImplemented), 0,
			), nil
		})
	})

	chat := newHub(log)
	r.WebSocket("/ws/chat", withName(chat.handlers()))

	return r.Build()
}

// withName stores the chat name on the request before upgrade, so it is
// visible through Conn.Context.
func withName(h router.WebSocketHandlers[*router.Context]) router.WebSocketHandlers[*router.Context] {
	onConnect := h.OnConnect
	h.OnConnect = func(ctx *router.Context) error {
		if onConnect != nil {
			if err := onConnect(ctx); err != nil {
				return err
			}
		}
		ctx.SetValue(nameKey{}, ctx.Request().URL.Query().Get("name"))
		return nil
	}
	return h
}
