// Package stream pushes rendered game entities to websocket subscribers.
package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/riskibarqy/cebl-gameday/internal/domain/gameview"
	"github.com/riskibarqy/cebl-gameday/internal/interfaces/display"
	"github.com/riskibarqy/cebl-gameday/internal/platform/logging"
)

const (
	MessageTypeSnapshot   = "snapshot"
	MessageTypeGameUpdate = "game_update"

	broadcastBufferSize = 256
)

type Message struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub keeps the subscriber set and fans out rendered updates. It implements
// gameview.Publisher.
type Hub struct {
	renderer *display.Renderer
	logger   *logging.Logger
	upgrader websocket.Upgrader

	register   chan *Client
	unregister chan *Client
	broadcast  chan Message

	mu      sync.RWMutex
	clients map[*Client]struct{}

	runCtx context.Context
}

func NewHub(renderer *display.Renderer, allowedOrigins []string, logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	if renderer == nil {
		renderer = display.NewRenderer(nil)
	}

	h := &Hub{
		renderer:   renderer,
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, broadcastBufferSize),
		clients:    make(map[*Client]struct{}),
		runCtx:     context.Background(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// Run processes registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.runCtx = ctx
	h.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("stream client connected", "client_id", c.ID, "total", total)
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Publish renders view and queues it for every subscriber. A full queue drops
// the update; the next state change supersedes it.
func (h *Hub) Publish(ctx context.Context, view gameview.View) error {
	msg := Message{
		Type:      MessageTypeGameUpdate,
		Payload:   h.renderer.Render(view, true),
		Timestamp: time.Now().UTC(),
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.WarnContext(ctx, "stream broadcast buffer full, dropping update", "team_id", view.TeamID)
	}
	return nil
}

// Accept upgrades the request and registers the subscriber. initial is sent
// before any update.
func (h *Hub) Accept(w http.ResponseWriter, r *http.Request, initial []display.Entity) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := newClient(uuid.NewString(), conn, h, h.logger)
	c.trySend(Message{
		Type:      MessageTypeSnapshot,
		Payload:   initial,
		Timestamp: time.Now().UTC(),
	})

	h.mu.RLock()
	ctx := h.runCtx
	h.mu.RUnlock()

	h.register <- c
	go c.writePump(ctx)
	go c.readPump(ctx)
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done():
	}
}

func (h *Hub) done() <-chan struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.runCtx.Done()
}

func (h *Hub) deliver(msg Message) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.trySend(msg) {
			h.logger.Warn("stream client too slow, disconnecting", "client_id", c.ID)
			h.remove(c)
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Info("stream client disconnected", "client_id", c.ID, "total", total)
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
