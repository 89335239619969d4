package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/waypoint/core/handler"
	"github.com/dmitrymomot/waypoint/core/logger"
)

// MessageType is the WebSocket frame type of a data message.
type MessageType int

const (
	TextMessage   MessageType = websocket.TextMessage
	BinaryMessage MessageType = websocket.BinaryMessage
)

// WebSocketHandlers holds the lifecycle callbacks of a WebSocket endpoint.
// Every callback is optional.
//
// OnConnect runs once, before the upgrade, with a regular request context;
// returning an error rejects the connection through the error handler.
// Values it stores with SetValue are available from Conn.Context.
// Open, Message and Close run on the connection's reader goroutine, so
// messages of one connection are delivered in order. Drain runs on the
// writer goroutine once a send queue that was reported full has emptied.
type WebSocketHandlers[C handler.Context] struct {
	OnConnect func(ctx C) error
	Open      func(conn *Conn)
	Message   func(conn *Conn, typ MessageType, data []byte)
	Close     func(conn *Conn, code int, reason string)
	Drain     func(conn *Conn)
}

type wsConfig struct {
	readBuffer       int
	writeBuffer      int
	handshakeTimeout time.Duration
	sendQueue        int
	maxMessageSize   int64
	checkOrigin      func(r *http.Request) bool
	subprotocols     []string
}

// wsRegistry keeps one table per callback kind, keyed by normalized path,
// plus the set of WebSocket-only paths. The tables are read-only after freeze.
type wsRegistry[C handler.Context] struct {
	paths     map[string]struct{}
	onConnect map[string]func(C) error
	open      map[string]func(*Conn)
	message   map[string]func(*Conn, MessageType, []byte)
	close     map[string]func(*Conn, int, string)
	drain     map[string]func(*Conn)

	cfg      wsConfig
	upgrader *websocket.Upgrader
	logger   *slog.Logger
	recorder Recorder
}

func newWSRegistry[C handler.Context]() *wsRegistry[C] {
	return &wsRegistry[C]{
		paths:     make(map[string]struct{}),
		onConnect: make(map[string]func(C) error),
		open:      make(map[string]func(*Conn)),
		message:   make(map[string]func(*Conn, MessageType, []byte)),
		close:     make(map[string]func(*Conn, int, string)),
		drain:     make(map[string]func(*Conn)),
		cfg: wsConfig{
			readBuffer:       DefaultWSReadBufferSize,
			writeBuffer:      DefaultWSWriteBufferSize,
			handshakeTimeout: DefaultWSHandshakeTimeout,
			sendQueue:        DefaultWSSendQueueSize,
			maxMessageSize:   DefaultWSMaxMessageSize,
		},
	}
}

// register stores the callbacks of a WebSocket endpoint. WebSocket paths are
// matched exactly, so parameter and wildcard segments are rejected.
func (ws *wsRegistry[C]) register(pattern string, h WebSocketHandlers[C]) error {
	segs, dynamic, _, err := parsePattern(pattern)
	if err != nil {
		return err
	}
	if dynamic {
		return fmt.Errorf("%w: websocket path '%s' must not contain parameters or wildcards", ErrInvalidPattern, pattern)
	}

	path := joinPath(segs)
	if _, exists := ws.paths[path]; exists {
		return fmt.Errorf("%w: %s %s", ErrRouteExists, MethodWebSocket, path)
	}
	ws.paths[path] = struct{}{}

	if h.OnConnect != nil {
		ws.onConnect[path] = h.OnConnect
	}
	if h.Open != nil {
		ws.open[path] = h.Open
	}
	if h.Message != nil {
		ws.message[path] = h.Message
	}
	if h.Close != nil {
		ws.close[path] = h.Close
	}
	if h.Drain != nil {
		ws.drain[path] = h.Drain
	}
	return nil
}

func (ws *wsRegistry[C]) freeze(log *slog.Logger, rec Recorder) {
	ws.logger = log
	ws.recorder = rec
	ws.upgrader = &websocket.Upgrader{
		ReadBufferSize:   ws.cfg.readBuffer,
		WriteBufferSize:  ws.cfg.writeBuffer,
		HandshakeTimeout: ws.cfg.handshakeTimeout,
		CheckOrigin:      ws.cfg.checkOrigin,
		Subprotocols:     ws.cfg.subprotocols,
		// Failures are reported through the router's error handler instead.
		Error: func(http.ResponseWriter, *http.Request, int, error) {},
	}
}

func (ws *wsRegistry[C]) has(path string) bool {
	_, ok := ws.paths[path]
	return ok
}

// serveWebSocket upgrades the request and runs the connection until it
// closes. It blocks for the lifetime of the connection.
func (d *Dispatcher[C]) serveWebSocket(w *responseWriter, r *http.Request, path string) {
	ws := d.ws

	if onConnect := ws.onConnect[path]; onConnect != nil {
		ctx := d.newContext(w, r, nil)
		if err := callOnConnect(onConnect, ctx); err != nil {
			d.handleError(w, r, err)
			return
		}
		// Values stored by OnConnect stay visible through Conn.Context.
		r = ctx.Request()
	}

	wsConn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.handleError(w, r, ErrWebSocketUpgrade.WithMessage(fmt.Sprintf("websocket upgrade failed: %v", err)))
		return
	}

	if ws.cfg.maxMessageSize > 0 {
		wsConn.SetReadLimit(ws.cfg.maxMessageSize)
	}

	conn := newConn(r.Context(), wsConn, path, ws.cfg.sendQueue)
	connectedAt := time.Now()
	ws.recorder.ObserveWebSocket(path, 1)
	ws.logger.Debug("websocket connected",
		logger.Component("router"),
		logger.Path(path),
		logger.RemoteAddr(r.RemoteAddr),
	)

	var onDrain func(*Conn)
	if drain := ws.drain[path]; drain != nil {
		onDrain = func(c *Conn) {
			ws.protect(path, "drain", func() { drain(c) })
		}
	}
	go conn.writeLoop(onDrain)

	code, reason := websocket.CloseInternalServerErr, "internal server error"
	served := ws.protect(path, "open", func() {
		if open := ws.open[path]; open != nil {
			open(conn)
		}
	}) && ws.protect(path, "message", func() {
		code, reason = conn.readLoop(ws.message[path])
	})
	if !served {
		_ = conn.Close(code, reason)
	}
	conn.shutdown()

	if onClose := ws.close[path]; onClose != nil {
		ws.protect(path, "close", func() { onClose(conn, code, reason) })
	}

	ws.recorder.ObserveWebSocket(path, -1)
	ws.logger.Debug("websocket disconnected",
		logger.Component("router"),
		logger.Path(path),
		logger.Group("close", slog.Int("code", code), slog.String("reason", reason)),
		logger.Elapsed(connectedAt),
	)
}

// callOnConnect runs the pre-upgrade hook and turns a panic into a PanicError.
func callOnConnect[C handler.Context](onConnect func(C) error, ctx C) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &panicError{value: p, stack: debug.Stack()}
		}
	}()
	return onConnect(ctx)
}

// protect runs a connection callback and reports whether it returned
// normally. A panic is logged instead of propagating.
func (ws *wsRegistry[C]) protect(path, callback string, fn func()) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			ws.logger.Error("websocket callback panicked",
				logger.Component("router"),
				logger.Path(path),
				logger.Event(callback),
				slog.Any("value", p),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	fn()
	return true
}

type outbound struct {
	typ  int
	data []byte
}

// Conn is an upgraded WebSocket connection bound to a registered path.
// Send, Close and the data accessors are safe for concurrent use.
type Conn struct {
	ws   *websocket.Conn
	path string
	ctx  context.Context

	send       chan outbound
	done       chan struct{}
	writerDone chan struct{}
	closeOnce  sync.Once
	pressured  atomic.Bool

	mu   sync.RWMutex
	data map[string]any
}

func newConn(ctx context.Context, ws *websocket.Conn, path string, queue int) *Conn {
	if queue <= 0 {
		queue = DefaultWSSendQueueSize
	}
	return &Conn{
		ws:         ws,
		path:       path,
		ctx:        ctx,
		send:       make(chan outbound, queue),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
}

// Path returns the registered path the connection is bound to.
func (c *Conn) Path() string {
	return c.path
}

// Context returns the context of the upgraded request.
func (c *Conn) Context() context.Context {
	return c.ctx
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

// Subprotocol returns the negotiated subprotocol.
func (c *Conn) Subprotocol() string {
	return c.ws.Subprotocol()
}

// Set stores a per-connection value.
func (c *Conn) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string]any)
	}
	c.data[key] = val
}

// Get returns a per-connection value.
func (c *Conn) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

// Send queues a message for delivery. It never blocks: when the send queue
// is full it returns ErrBackpressure, and the endpoint's Drain callback fires
// once the queue has been flushed.
func (c *Conn) Send(typ MessageType, data []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- outbound{typ: int(typ), data: data}:
		return nil
	default:
		c.pressured.Store(true)
		return ErrBackpressure
	}
}

// SendText queues a text message.
func (c *Conn) SendText(text string) error {
	return c.Send(TextMessage, []byte(text))
}

// Close starts the closing handshake with the given close code and reason.
// The Close callback runs once the peer acknowledges or the connection drops.
func (c *Conn) Close(code int, reason string) error {
	msg := websocket.FormatCloseMessage(code, reason)
	err := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		_ = c.ws.Close()
		return err
	}
	return nil
}

// readLoop delivers messages until the connection fails and returns the
// close code and reason.
func (c *Conn) readLoop(onMessage func(*Conn, MessageType, []byte)) (int, string) {
	for {
		typ, data, err := c.ws.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				return ce.Code, ce.Text
			}
			return websocket.CloseAbnormalClosure, err.Error()
		}
		if onMessage != nil {
			onMessage(c, MessageType(typ), data)
		}
	}
}

func (c *Conn) writeLoop(onDrain func(*Conn)) {
	defer close(c.writerDone)
	for {
		select {
		case msg := <-c.send:
			if err := c.ws.WriteMessage(msg.typ, msg.data); err != nil {
				// Unblocks the reader, which then shuts the connection down.
				_ = c.ws.Close()
				return
			}
			if len(c.send) == 0 && c.pressured.CompareAndSwap(true, false) && onDrain != nil {
				onDrain(c)
			}
		case <-c.done:
			return
		}
	}
}

func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		<-c.writerDone
		_ = c.ws.Close()
	})
}
