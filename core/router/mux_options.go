package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/waypoint/core/handler"
)

// Default tuning values.
const (
	DefaultCacheSize          = 1000
	DefaultWSReadBufferSize   = 1024
	DefaultWSWriteBufferSize  = 1024
	DefaultWSHandshakeTimeout = 10 * time.Second
	DefaultWSSendQueueSize    = 64
	DefaultWSMaxMessageSize   = 1 << 20 // 1 MB
)

// Config holds router tuning with environment variable support.
type Config struct {
	// Capacity of the dynamic route resolution cache. Zero disables caching.
	CacheSize int `env:"ROUTER_CACHE_SIZE" envDefault:"1000"`

	// WebSocket settings
	WSReadBufferSize   int           `env:"ROUTER_WS_READ_BUFFER" envDefault:"1024"`
	WSWriteBufferSize  int           `env:"ROUTER_WS_WRITE_BUFFER" envDefault:"1024"`
	WSHandshakeTimeout time.Duration `env:"ROUTER_WS_HANDSHAKE_TIMEOUT" envDefault:"10s"`
	WSSendQueueSize    int           `env:"ROUTER_WS_SEND_QUEUE" envDefault:"64"`
	WSMaxMessageSize   int64         `env:"ROUTER_WS_MAX_MESSAGE_SIZE" envDefault:"1048576"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheSize:          DefaultCacheSize,
		WSReadBufferSize:   DefaultWSReadBufferSize,
		WSWriteBufferSize:  DefaultWSWriteBufferSize,
		WSHandshakeTimeout: DefaultWSHandshakeTimeout,
		WSSendQueueSize:    DefaultWSSendQueueSize,
		WSMaxMessageSize:   DefaultWSMaxMessageSize,
	}
}

// Option configures a Router during creation.
type Option[C handler.Context] func(*mux[C])

// WithConfig applies tuning values from cfg. Non-positive WebSocket values
// keep their defaults; a zero cache size disables the resolution cache.
func WithConfig[C handler.Context](cfg Config) Option[C] {
	return func(m *mux[C]) {
		reg := m.reg
		if cfg.CacheSize >= 0 {
			reg.cacheSize = cfg.CacheSize
		}
		if cfg.WSReadBufferSize > 0 {
			reg.ws.cfg.readBuffer = cfg.WSReadBufferSize
		}
		if cfg.WSWriteBufferSize > 0 {
			reg.ws.cfg.writeBuffer = cfg.WSWriteBufferSize
		}
		if cfg.WSHandshakeTimeout > 0 {
			reg.ws.cfg.handshakeTimeout = cfg.WSHandshakeTimeout
		}
		if cfg.WSSendQueueSize > 0 {
			reg.ws.cfg.sendQueue = cfg.WSSendQueueSize
		}
		if cfg.WSMaxMessageSize > 0 {
			reg.ws.cfg.maxMessageSize = cfg.WSMaxMessageSize
		}
	}
}

// WithCacheSize sets the capacity of the resolution cache. Zero disables it.
func WithCacheSize[C handler.Context](size int) Option[C] {
	return func(m *mux[C]) {
		if size >= 0 {
			m.reg.cacheSize = size
		}
	}
}

// WithErrorHandler sets a custom error handler for the router.
func WithErrorHandler[C handler.Context](h handler.ErrorHandler[C]) Option[C] {
	return func(m *mux[C]) {
		if h != nil {
			m.reg.errorHandler = h
		}
	}
}

// WithMiddleware adds global middleware to the router.
func WithMiddleware[C handler.Context](middlewares ...handler.Middleware[C]) Option[C] {
	return func(m *mux[C]) {
		m.reg.middlewares = append(m.reg.middlewares, middlewares...)
	}
}

// WithContextFactory sets a custom context factory for the router.
func WithContextFactory[C handler.Context](f func(http.ResponseWriter, *http.Request, map[string]string) C) Option[C] {
	return func(m *mux[C]) {
		m.reg.newContext = f
	}
}

// WithLogger sets a custom logger for the router.
func WithLogger[C handler.Context](logger *slog.Logger) Option[C] {
	return func(m *mux[C]) {
		if logger != nil {
			m.reg.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder notified about route resolution,
// cache evictions, requests and WebSocket connections.
func WithRecorder[C handler.Context](rec Recorder) Option[C] {
	return func(m *mux[C]) {
		if rec != nil {
			m.reg.recorder = rec
		}
	}
}

// WithWebSocketOriginCheck sets the origin check used during WebSocket upgrades.
// By default cross-origin upgrade requests are rejected.
func WithWebSocketOriginCheck[C handler.Context](fn func(r *http.Request) bool) Option[C] {
	return func(m *mux[C]) {
		m.reg.ws.cfg.checkOrigin = fn
	}
}

// WithWebSocketSubprotocols sets the server's supported subprotocols in order of preference.
func WithWebSocketSubprotocols[C handler.Context](protocols ...string) Option[C] {
	return func(m *mux[C]) {
		m.reg.ws.cfg.subprotocols = protocols
	}
}
