package main

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/waypoint/core/logger"
	"github.com/dmitrymomot/waypoint/core/router"
)

// hub fans chat messages out to every connected client. Clients whose send
// queue is full are skipped until their Drain callback fires.
type hub struct {
	mu      sync.RWMutex
	clients map[*router.Conn]bool // value: ready to receive
	log     *slog.Logger
}

func newHub(log *slog.Logger) *hub {
	return &hub{clients: make(map[*router.Conn]bool), log: log}
}

func (h *hub) handlers() router.WebSocketHandlers[*router.Context] {
	return router.WebSocketHandlers[*router.Context]{
		OnConnect: func(ctx *router.Context) error {
			if ctx.Request().URL.Query().Get("name") == "" {
				return errNameRequired
			}
			return nil
		},
		Open:    h.join,
		Message: h.broadcast,
		Close:   h.leave,
		Drain:   h.resume,
	}
}

func (h *hub) join(c *router.Conn) {
	name := c.Context().Value(nameKey{})
	c.Set("name", name)

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	_ = c.SendText("welcome, " + fmtName(name))
	h.log.Info("client joined", logger.Component("chat"), logger.Event("join"), logger.Key("name", name), logger.Count("clients", h.size()))
}

func (h *hub) leave(c *router.Conn, code int, reason string) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()

	h.log.Info("client left", logger.Component("chat"), logger.Event("leave"), slog.Int("code", code), slog.String("reason", reason), logger.Count("clients", h.size()))
}

func (h *hub) resume(c *router.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		h.clients[c] = true
	}
	h.mu.Unlock()
}

func (h *hub) broadcast(from *router.Conn, typ router.MessageType, data []byte) {
	if typ != router.TextMessage {
		return
	}
	name, _ := from.Get("name")
	msg := []byte(fmtName(name) + ": " + string(data))

	h.mu.Lock()
	defer h.mu.Unlock()
	for c, ready := range h.clients {
		if !ready {
			continue
		}
		if err := c.Send(router.TextMessage, msg); errors.Is(err, router.ErrBackpressure) {
			h.clients[c] = false
		}
	}
}

func (h *hub) size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func fmtName(v any) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return "anonymous"
}
