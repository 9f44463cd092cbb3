package statehub

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/reactor/pkg/reactive"
)

const (
	// DefaultSendBuffer is the number of events buffered per subscriber.
	DefaultSendBuffer = 64

	// DefaultWriteTimeout bounds a single websocket write.
	DefaultWriteTimeout = 10 * time.Second
)

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithSendBuffer sets the per-subscriber event buffer.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithCheckOrigin sets the websocket origin check. The default accepts
// same-origin requests only.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = fn
	}
}

// Hub serves a reactive object over HTTP and a websocket change feed.
type Hub struct {
	loop       *reactive.Loop
	logger     *slog.Logger
	upgrader   websocket.Upgrader
	sendBuffer int

	// Owned by the loop goroutine.
	state   *reactive.View
	watcher *reactive.Watcher
	last    map[string]any
	version uint64

	mu      sync.RWMutex
	clients map[uuid.UUID]*subscriber
	closed  bool
}

// New creates a hub whose state lives on loop. The hub starts empty.
func New(ctx context.Context, loop *reactive.Loop, opts ...Option) (*Hub, error) {
	h := &Hub{
		loop:       loop,
		logger:     slog.Default().With("component", "statehub"),
		sendBuffer: DefaultSendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[uuid.UUID]*subscriber),
	}
	for _, opt := range opts {
		opt(h)
	}

	var werr error
	err := loop.Do(ctx, func(e *reactive.Engine) {
		h.state = e.Reactive(reactive.NewObject())
		h.last = map[string]any{}
		h.watcher, werr = e.Watch(func() any {
			return plain(h.state)
		}, h.onChange, reactive.WithFlush(reactive.FlushPost))
	})
	if err != nil {
		return nil, err
	}
	if werr != nil {
		return nil, werr
	}
	return h, nil
}

// onChange runs on the loop after a batch of writes.
func (h *Hub) onChange(newValue, _ any, _ func(func())) {
	next, _ := newValue.(map[string]any)
	events := diff(h.last, next, h.version+1)
	h.last = next
	if len(events) == 0 {
		return
	}
	h.version++
	h.logger.Debug("state changed", "version", h.version, "keys", len(events))
	for _, ev := range events {
		h.broadcast(ev)
	}
}

// Router returns the hub's HTTP routes.
func (h *Hub) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/state", func(r chi.Router) {
		r.Get("/", h.handleSnapshot)
		r.Get("/{key}", h.handleGet)
		r.Put("/{key}", h.handlePut)
		r.Delete("/{key}", h.handleDelete)
	})
	r.Get("/ws", h.handleWebSocket)
	r.Get("/stats", h.handleStats)
	return r
}

// Snapshot returns a copy of the current state and its version.
func (h *Hub) Snapshot(ctx context.Context) (map[string]any, uint64, error) {
	var (
		state   map[string]any
		version uint64
	)
	err := h.loop.Do(ctx, func(e *reactive.Engine) {
		state, _ = plain(h.state).(map[string]any)
		version = h.version
	})
	return state, version, err
}

// Set replaces the value at key. Maps and slices become nested reactive
// objects and arrays.
func (h *Hub) Set(ctx context.Context, key string, value any) error {
	return h.loop.Do(ctx, func(*reactive.Engine) {
		h.state.Set(key, reactive.From(value))
	})
}

// Delete removes key and reports whether it existed.
func (h *Hub) Delete(ctx context.Context, key string) (bool, error) {
	var found bool
	err := h.loop.Do(ctx, func(e *reactive.Engine) {
		e.Untracked(func() {
			found = h.state.Has(key)
		})
		if found {
			h.state.Delete(key)
		}
	})
	return found, err
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops the watcher and disconnects every subscriber. The loop is
// left running.
func (h *Hub) Close(ctx context.Context) error {
	err := h.loop.Do(ctx, func(*reactive.Engine) {
		h.watcher.Stop()
	})

	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[uuid.UUID]*subscriber)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	return err
}

// register adds a subscriber. It runs on the loop so that the snapshot it
// receives and the events that follow are consistent.
func (h *Hub) register(conn *websocket.Conn) (*subscriber, bool) {
	c := newSubscriber(conn, h.sendBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	h.clients[c.id] = c
	return c, true
}

func (h *Hub) unregister(c *subscriber) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.close()
}

// broadcast hands ev to every subscriber, dropping those that fell behind.
func (h *Hub) broadcast(ev Event) {
	h.mu.RLock()
	clients := make([]*subscriber, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.send(ev) {
			h.logger.Warn("subscriber too slow, disconnecting", "subscriber", c.id)
			h.unregister(c)
		}
	}
}
